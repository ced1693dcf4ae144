package dto

import "time"

// ── 教师模块 DTO ──

// CourseSummary 课程简要信息
type CourseSummary struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// AttendanceListRequest 考勤查询参数
type AttendanceListRequest struct {
	CourseID           int64      `form:"course_id"           binding:"required"`
	VerificationMethod string     `form:"verification_method" binding:"omitempty,oneof=gps vision manual_override"`
	Status             string     `form:"status"              binding:"omitempty,oneof=present absent pending_review"`
	Start              *time.Time `form:"start"               time_format:"2006-01-02T15:04:05Z07:00"`
	End                *time.Time `form:"end"                 time_format:"2006-01-02T15:04:05Z07:00"`
}

// AttendanceEventResponse 考勤事件响应
type AttendanceEventResponse struct {
	ID                   int64    `json:"id"`
	StudentID            string   `json:"student_id"`
	CourseID             int64    `json:"course_id"`
	InstructorID         string   `json:"instructor_id"`
	Timestamp            string   `json:"timestamp"`
	VerificationMethod   string   `json:"verification_method"`
	Status               string   `json:"status"`
	Confidence           *float64 `json:"confidence"`
	RequiresManualReview bool     `json:"requires_manual_review"`
	Notes                *string  `json:"notes"`
}

// OverrideRequest 教师订正请求
type OverrideRequest struct {
	Status string `json:"status" binding:"required,oneof=present absent"`
	Notes  string `json:"notes"`
}
