package dto

// ── 地理围栏模块 DTO ──

// CalibrateRequest 标定请求
// course_id 省略时写入全局标定行；lat/lon 用指针以允许合法的 0 值
type CalibrateRequest struct {
	CourseID int64    `json:"course_id"`
	Lat      *float64 `json:"lat"       binding:"required"`
	Lon      *float64 `json:"lon"       binding:"required"`
	EpsilonM *float64 `json:"epsilon_m"`
}

// CalibrationPayload 标定数据
// 未标定时 lat/lon/updated_at 为 null，epsilon_m 返回默认半径
type CalibrationPayload struct {
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	EpsilonM  float64  `json:"epsilon_m"`
	UpdatedAt *string  `json:"updated_at"`
}

// CalibrateResponse 标定响应
type CalibrateResponse struct {
	OK          bool               `json:"ok"`
	Calibration CalibrationPayload `json:"calibration"`
}

// GeoStatusRequest 标定状态查询参数
type GeoStatusRequest struct {
	CourseID int64 `form:"course_id"`
}

// GeoVerifyRequest 地理验证请求
// 客户端有 HTML5 定位时直接上报 GPS，否则服务端按来源 IP 估算
type GeoVerifyRequest struct {
	CourseID           int64    `json:"course_id"`
	ClientGPSLat       *float64 `json:"client_gps_lat"`
	ClientGPSLon       *float64 `json:"client_gps_lon"`
	ClientGPSAccuracyM *float64 `json:"client_gps_accuracy_m"`
}

// GeoVerifyResponse 地理验证响应
// 即使 ok=false 也尽量返回 distance_m/epsilon_m，便于前端提示"差多远"
type GeoVerifyResponse struct {
	OK                 bool     `json:"ok"`
	Source             string   `json:"source,omitempty"` // "client_gps" | "ip_geo"
	ClientIP           string   `json:"client_ip,omitempty"`
	DistanceM          *float64 `json:"distance_m,omitempty"`
	EpsilonM           *float64 `json:"epsilon_m,omitempty"`
	EstimatedLat       *float64 `json:"estimated_lat,omitempty"`
	EstimatedLon       *float64 `json:"estimated_lon,omitempty"`
	EstimatedAccuracyM *float64 `json:"estimated_accuracy_m,omitempty"`
	Reason             string   `json:"reason,omitempty"`
}
