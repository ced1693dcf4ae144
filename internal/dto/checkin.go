package dto

// ── 签到模块 DTO ──

// GPSCheckInRequest GPS 签到请求
type GPSCheckInRequest struct {
	StudentID    string   `json:"student_id"    binding:"required"`
	CourseID     int64    `json:"course_id"     binding:"required"`
	InstructorID string   `json:"instructor_id"`
	Latitude     *float64 `json:"latitude"      binding:"required"`
	Longitude    *float64 `json:"longitude"     binding:"required"`
	DeviceID     string   `json:"device_id"`
}

// VisionCheckInRequest 视觉兜底签到请求
type VisionCheckInRequest struct {
	StudentID    string `json:"student_id"    binding:"required"`
	CourseID     int64  `json:"course_id"     binding:"required"`
	InstructorID string `json:"instructor_id"`
	ImageB64     string `json:"image_b64"     binding:"required"`
}

// CheckInResponse GPS/视觉签到共用响应
type CheckInResponse struct {
	Status                     string   `json:"status"`
	Message                    string   `json:"message"`
	RecordID                   int64    `json:"record_id"`
	RequiresVisualVerification bool     `json:"requires_visual_verification"`
	Confidence                 *float64 `json:"confidence,omitempty"`
}

// StudentCheckInRequest 移动端合并签到请求（按课程码，GPS 优先、图像兜底）
// student_id 由 JWT 注入，不从请求体读取
type StudentCheckInRequest struct {
	ClassCode string   `json:"class_code" binding:"required"`
	StudentID string   `json:"-"`
	ImageB64  string   `json:"image_b64"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	AccuracyM *float64 `json:"accuracy_m"`
}

// StudentCheckInResponse 移动端合并签到响应
type StudentCheckInResponse struct {
	OK                  bool     `json:"ok"`
	Reason              string   `json:"reason,omitempty"`
	Method              string   `json:"method,omitempty"`
	DistanceM           *float64 `json:"distance_m,omitempty"`
	Label               string   `json:"label,omitempty"`
	Confidence          *float64 `json:"confidence,omitempty"`
	NeedsManualOverride bool     `json:"needs_manual_override,omitempty"`
	RecordID            *int64   `json:"record_id,omitempty"`
}

// ManualOverrideRequest 口令兜底签到请求
type ManualOverrideRequest struct {
	ClassCode  string `json:"class_code"  binding:"required"`
	StudentID  string `json:"-"`
	SecretWord string `json:"secret_word" binding:"required"`
}

// ManualOverrideResponse 口令兜底签到响应
type ManualOverrideResponse struct {
	OK       bool   `json:"ok"`
	Reason   string `json:"reason,omitempty"`
	RecordID *int64 `json:"record_id,omitempty"`
}
