package model

import "time"

// Course 课程表 — 对应 courses
// SecretWordHash 为教授口令的 bcrypt 散列，仅用于人工兜底签到
// ChallengeWord 为课程级挑战词，为空时使用配置中的全局默认值
type Course struct {
	CourseID       int64   `gorm:"primaryKey;autoIncrement"                json:"id"`
	Code           string  `gorm:"type:varchar(50);not null;uniqueIndex"   json:"code"`
	Name           string  `gorm:"type:varchar(200);not null"              json:"name"`
	ProfessorID    string  `gorm:"type:varchar(100);not null;index"        json:"professor_id"`
	SecretWordHash string  `gorm:"type:varchar(100);not null"              json:"-"`
	ChallengeWord  *string `gorm:"type:varchar(100)"                       json:"-"`
	BaseModel
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// CoursePhoto 教室参考照片 — 对应 course_photos
// 建课时上传，供识别模型作为对照样本
type CoursePhoto struct {
	PhotoID   int64     `gorm:"primaryKey;autoIncrement"           json:"photo_id"`
	CourseID  int64     `gorm:"not null;index"                     json:"course_id"`
	Data      []byte    `gorm:"type:bytea;not null"                json:"-"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (CoursePhoto) TableName() string { return "course_photos" }

// [自证通过] internal/model/course.go
