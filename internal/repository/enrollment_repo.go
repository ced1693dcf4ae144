package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kdomac-14/AC215-HARV/internal/model"
)

// EnrollmentRepository 选课数据访问接口
type EnrollmentRepository interface {
	// Enroll 幂等选课，返回是否为新增（false 表示已选过）
	Enroll(ctx context.Context, studentID string, courseID int64) (bool, error)
	Unenroll(ctx context.Context, studentID string, courseID int64) error
	IsEnrolled(ctx context.Context, studentID string, courseID int64) (bool, error)
	ListCourseIDsByStudent(ctx context.Context, studentID string) ([]int64, error)
}

type enrollmentRepo struct {
	db *gorm.DB
}

// NewEnrollmentRepo 创建 EnrollmentRepository 实例
func NewEnrollmentRepo(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

func (r *enrollmentRepo) Enroll(ctx context.Context, studentID string, courseID int64) (bool, error) {
	enr := model.Enrollment{StudentID: studentID, CourseID: courseID}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(&enr)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *enrollmentRepo) Unenroll(ctx context.Context, studentID string, courseID int64) error {
	return r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Delete(&model.Enrollment{}).Error
}

func (r *enrollmentRepo) IsEnrolled(ctx context.Context, studentID string, courseID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Count(&n).Error
	return n > 0, err
}

func (r *enrollmentRepo) ListCourseIDsByStudent(ctx context.Context, studentID string) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("student_id = ?", studentID).
		Order("course_id ASC").
		Pluck("course_id", &ids).Error
	return ids, err
}
