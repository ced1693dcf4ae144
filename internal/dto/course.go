package dto

// ── 课程模块 DTO ──

// CreateClassRequest 教授建课请求
// 一次请求完成课程 + 标定 + 口令 + 参考照片的创建
type CreateClassRequest struct {
	Name          string   `json:"name"           binding:"required,min=2,max=200"`
	Code          string   `json:"code"           binding:"required,min=2,max=50"`
	SecretWord    string   `json:"secret_word"    binding:"required,min=4,max=100"`
	ChallengeWord string   `json:"challenge_word" binding:"omitempty,max=100"`
	Lat           *float64 `json:"lat"`
	Lon           *float64 `json:"lon"`
	EpsilonM      *float64 `json:"epsilon_m"`
	RoomPhotos    []string `json:"room_photos"` // base64 编码图片
}

// ClassResponse 课程信息响应
type ClassResponse struct {
	ID          int64    `json:"id"`
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	ProfessorID string   `json:"professor_id"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	EpsilonM    *float64 `json:"epsilon_m,omitempty"`
	PhotoCount  int      `json:"photo_count"`
	CreatedAt   string   `json:"created_at"`
}

// CreateClassResponse 建课响应
type CreateClassResponse struct {
	OK    bool          `json:"ok"`
	Class ClassResponse `json:"class"`
}

// EnrollRequest 学生选课请求
// student_id 由 JWT 注入，不从请求体读取
type EnrollRequest struct {
	ClassCode string `json:"class_code" binding:"required"`
	StudentID string `json:"-"`
}

// EnrollResponse 选课响应（重复选课幂等，already_enrolled=true）
type EnrollResponse struct {
	OK              bool  `json:"ok"`
	CourseID        int64 `json:"course_id"`
	AlreadyEnrolled bool  `json:"already_enrolled"`
}

// UnenrollRequest 学生退课请求
// student_id 由 JWT 注入，不从请求体读取
type UnenrollRequest struct {
	ClassCode string `json:"class_code" binding:"required"`
	StudentID string `json:"-"`
}

// UnenrollResponse 退课响应（未选课时退课同样幂等返回 ok）
type UnenrollResponse struct {
	OK       bool  `json:"ok"`
	CourseID int64 `json:"course_id"`
}
