package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kdomac-14/AC215-HARV/config"
	"github.com/kdomac-14/AC215-HARV/internal/api/handler"
	"github.com/kdomac-14/AC215-HARV/internal/api/middleware"
	"github.com/kdomac-14/AC215-HARV/internal/model"
	"github.com/kdomac-14/AC215-HARV/pkg/jwt"
	"github.com/kdomac-14/AC215-HARV/pkg/redis"
)

// 图像上传接口（base64 JPEG）需要更大的请求体上限
const imageBodyLimit = 16 << 20

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(imageBodyLimit))

	// ── 健康检查 ──
	r.GET("/healthz", h.Health.Check)

	// ── 认证模块（无需认证）──
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
	}
	authed := middleware.JWTAuth(jwtMgr, rdb)
	r.POST("/auth/logout", authed, h.Auth.Logout)
	r.GET("/auth/me", authed, h.Auth.Me)

	// ── 地理围栏模块 ──
	// 标定仅限教授；status/verify 对演示页开放
	geo := r.Group("/geo")
	{
		geo.POST("/calibrate", authed, middleware.RoleAuth(model.RoleProfessor), h.Geo.Calibrate)
		geo.GET("/status", h.Geo.Status)
		geo.POST("/verify", h.Geo.Verify)
	}

	// ── 视觉验证演示接口 ──
	r.POST("/verify", h.Vision.Verify)

	// ── 设备直连签到 API ──
	checkin := r.Group("/api/checkin", authed, middleware.RoleAuth(model.RoleStudent))
	{
		checkin.POST("/gps", h.Checkin.CheckInGPS)
		checkin.POST("/vision", h.Checkin.CheckInVision)
	}

	// ── 学生移动端 ──
	student := r.Group("/student", authed, middleware.RoleAuth(model.RoleStudent))
	{
		student.POST("/enroll", h.Student.Enroll)
		student.POST("/unenroll", h.Student.Unenroll)
		student.GET("/classes", h.Student.ListAvailable)
		student.GET("/classes/:student_id", h.Student.ListEnrolled)
		student.POST("/checkin", h.Student.CheckIn)
		// 口令兜底限速，防止对课程口令的暴力猜测
		student.POST("/manual-override",
			middleware.RateLimit(rdb, 5, time.Minute),
			h.Student.ManualOverride)
	}

	// ── 教授课程管理 ──
	professor := r.Group("/professor", authed, middleware.RoleAuth(model.RoleProfessor))
	{
		professor.POST("/classes", h.Professor.CreateClass)
		professor.GET("/classes/:professor_id", h.Professor.ListClasses)
	}

	// ── 教师考勤面板 ──
	instructor := r.Group("/api/instructor", authed, middleware.RoleAuth(model.RoleProfessor))
	{
		instructor.GET("/courses", h.Instructor.ListCourses)
		instructor.GET("/attendance", h.Instructor.ListAttendance)
		instructor.POST("/attendance/:id/override", h.Instructor.Override)
		instructor.GET("/attendance/export", h.Instructor.ExportAttendance)
	}

	return r
}
