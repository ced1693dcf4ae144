package dto

// ── 视觉验证模块 DTO ──

// VisionVerifyRequest 图像验证请求（/verify 演示端点）
type VisionVerifyRequest struct {
	ImageB64      string `json:"image_b64"      binding:"required"`
	ChallengeWord string `json:"challenge_word"`
	CourseID      int64  `json:"course_id"`
}

// VisionVerifyResponse 图像验证响应
// 低于阈值时 ok=false 但 confidence 照常返回
type VisionVerifyResponse struct {
	OK         bool     `json:"ok"`
	Label      string   `json:"label,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	LatencyMs  int64    `json:"latency_ms"`
}
