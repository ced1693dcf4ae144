package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kdomac-14/AC215-HARV/internal/model"
)

// AttendanceFilter 考勤查询过滤条件
type AttendanceFilter struct {
	VerificationMethod string
	Status             string
	Start              *time.Time
	End                *time.Time
}

// AttendanceRepository 考勤事件数据访问接口
// 不提供删除操作：事件只能创建与订正
type AttendanceRepository interface {
	Create(ctx context.Context, event *model.AttendanceEvent) error
	GetByID(ctx context.Context, id int64) (*model.AttendanceEvent, error)
	ListByCourse(ctx context.Context, courseID int64, filter *AttendanceFilter) ([]model.AttendanceEvent, error)
	// FindForWindow 返回 (student, course) 在 [start, end) 窗口内最新的事件，用于同日去重
	FindForWindow(ctx context.Context, studentID string, courseID int64, start, end time.Time) (*model.AttendanceEvent, error)
	Update(ctx context.Context, event *model.AttendanceEvent) error
	// UpdateStatus 就地订正 status/notes 并清除复核标记，不改动 id 与 verification_method
	UpdateStatus(ctx context.Context, id int64, status string, notes *string) error
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Create(ctx context.Context, event *model.AttendanceEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *attendanceRepo) GetByID(ctx context.Context, id int64) (*model.AttendanceEvent, error) {
	var event model.AttendanceEvent
	err := r.db.WithContext(ctx).
		Where("event_id = ?", id).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *attendanceRepo) ListByCourse(ctx context.Context, courseID int64, filter *AttendanceFilter) ([]model.AttendanceEvent, error) {
	db := r.db.WithContext(ctx).Where("course_id = ?", courseID)

	if filter != nil {
		if filter.VerificationMethod != "" {
			db = db.Where("verification_method = ?", filter.VerificationMethod)
		}
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		if filter.Start != nil {
			db = db.Where("ts >= ?", *filter.Start)
		}
		if filter.End != nil {
			db = db.Where("ts <= ?", *filter.End)
		}
	}

	var events []model.AttendanceEvent
	// 按插入顺序返回（event_id 单调递增）
	err := db.Order("event_id ASC").Find(&events).Error
	return events, err
}

func (r *attendanceRepo) FindForWindow(ctx context.Context, studentID string, courseID int64, start, end time.Time) (*model.AttendanceEvent, error) {
	var event model.AttendanceEvent
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ? AND ts >= ? AND ts < ?", studentID, courseID, start, end).
		Order("event_id DESC").
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *attendanceRepo) Update(ctx context.Context, event *model.AttendanceEvent) error {
	return r.db.WithContext(ctx).Save(event).Error
}

func (r *attendanceRepo) UpdateStatus(ctx context.Context, id int64, status string, notes *string) error {
	return r.db.WithContext(ctx).
		Model(&model.AttendanceEvent{}).
		Where("event_id = ?", id).
		Updates(map[string]interface{}{
			"status":                 status,
			"notes":                  notes,
			"requires_manual_review": false,
		}).Error
}
