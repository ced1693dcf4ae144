package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kdomac-14/AC215-HARV/internal/model"
)

// CourseRepository 课程数据访问接口
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	GetByID(ctx context.Context, id int64) (*model.Course, error)
	GetByCode(ctx context.Context, code string) (*model.Course, error)
	ListByProfessor(ctx context.Context, professorID string) ([]model.Course, error)
	ListAll(ctx context.Context) ([]model.Course, error)
	AddPhoto(ctx context.Context, photo *model.CoursePhoto) error
	CountPhotos(ctx context.Context, courseID int64) (int64, error)
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepo) GetByID(ctx context.Context, id int64) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("course_id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) GetByCode(ctx context.Context, code string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) ListByProfessor(ctx context.Context, professorID string) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Where("professor_id = ?", professorID).
		Order("course_id ASC").
		Find(&courses).Error
	return courses, err
}

func (r *courseRepo) ListAll(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Order("course_id ASC").
		Find(&courses).Error
	return courses, err
}

func (r *courseRepo) AddPhoto(ctx context.Context, photo *model.CoursePhoto) error {
	return r.db.WithContext(ctx).Create(photo).Error
}

func (r *courseRepo) CountPhotos(ctx context.Context, courseID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.CoursePhoto{}).
		Where("course_id = ?", courseID).
		Count(&n).Error
	return n, err
}
