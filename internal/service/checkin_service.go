package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kdomac-14/AC215-HARV/internal/dto"
	"github.com/kdomac-14/AC215-HARV/internal/model"
	"github.com/kdomac-14/AC215-HARV/internal/repository"
	"github.com/kdomac-14/AC215-HARV/pkg/vision"
)

// ── 签到模块业务错误 ──

var (
	ErrCourseNotFound = errors.New("课程不存在")
	ErrBadImage       = errors.New("图像无法解析")
)

// 签到拒绝原因码
const (
	ReasonNotEnrolled    = "not_enrolled"
	ReasonSecretMismatch = "secret_mismatch"
	ReasonNoLocation     = "no_location"
)

// VerificationOutcome 验证结果标记联合
// Method 为判别标记，对应的指针字段恰有一个非空
type VerificationOutcome struct {
	Method   string // gps | vision | manual_override
	Geo      *dto.GeoVerifyResponse
	Vision   *vision.Score
	Override *OverrideOutcome
}

// OverrideOutcome 口令兜底验证结果
type OverrideOutcome struct {
	Matched bool
}

// Passed 该验证路径是否通过；视觉路径须有打分且达到阈值
func (o *VerificationOutcome) Passed(threshold float64) bool {
	switch o.Method {
	case model.MethodGPS:
		return o.Geo != nil && o.Geo.OK
	case model.MethodVision:
		return o.Vision != nil && o.Vision.Confidence >= threshold
	case model.MethodManualOverride:
		return o.Override != nil && o.Override.Matched
	default:
		return false
	}
}

// CheckinService 签到编排业务接口
// 状态机：GPS 优先 → 视觉兜底 → 口令兜底；每个 (student, course, UTC 日)
// 至多产生一条最终事件，后续路径在同一行上收敛
type CheckinService interface {
	CheckInGPS(ctx context.Context, req *dto.GPSCheckInRequest) (*dto.CheckInResponse, error)
	CheckInVision(ctx context.Context, req *dto.VisionCheckInRequest) (*dto.CheckInResponse, error)
	// StudentCheckIn 移动端合并签到：按课程码，GPS 有则先试，失败转视觉
	StudentCheckIn(ctx context.Context, req *dto.StudentCheckInRequest) (*dto.StudentCheckInResponse, error)
	// ManualOverride 口令兜底：口令匹配则落为 present，不匹配不改任何状态
	ManualOverride(ctx context.Context, req *dto.ManualOverrideRequest) (*dto.ManualOverrideResponse, error)
}

type checkinService struct {
	repo      *repository.Repository
	geoSvc    GeoService
	visionSvc VisionService
	threshold float64
	logger    *zap.Logger
	now       func() time.Time // 测试注入
}

// NewCheckinService 创建 CheckinService 实例
func NewCheckinService(repo *repository.Repository, geoSvc GeoService, visionSvc VisionService, threshold float64, logger *zap.Logger) CheckinService {
	return &checkinService{
		repo:      repo,
		geoSvc:    geoSvc,
		visionSvc: visionSvc,
		threshold: threshold,
		logger:    logger,
		now:       time.Now,
	}
}

// ────────────────────── CheckInGPS ──────────────────────

func (s *checkinService) CheckInGPS(ctx context.Context, req *dto.GPSCheckInRequest) (*dto.CheckInResponse, error) {
	geoResp, err := s.geoSvc.Verify(ctx, &dto.GeoVerifyRequest{
		CourseID:     req.CourseID,
		ClientGPSLat: req.Latitude,
		ClientGPSLon: req.Longitude,
	}, "")
	if err != nil {
		return nil, err
	}

	if !geoResp.OK {
		// 围栏外（或未标定/定位失败）：不落 present 事件，引导视觉兜底
		return &dto.CheckInResponse{
			Status:                     model.StatusPendingReview,
			Message:                    gpsFailMessage(geoResp),
			RequiresVisualVerification: true,
		}, nil
	}

	event, err := s.finalizeEvent(ctx, req.StudentID, req.CourseID, req.InstructorID, &VerificationOutcome{
		Method: model.MethodGPS,
		Geo:    geoResp,
	})
	if err != nil {
		return nil, err
	}

	return &dto.CheckInResponse{
		Status:   model.StatusPresent,
		Message:  "GPS 定位确认在教室围栏内",
		RecordID: event.EventID,
	}, nil
}

// ────────────────────── CheckInVision ──────────────────────

func (s *checkinService) CheckInVision(ctx context.Context, req *dto.VisionCheckInRequest) (*dto.CheckInResponse, error) {
	score, reason, err := s.visionSvc.ScoreImage(ctx, req.ImageB64)
	if err != nil {
		return nil, err
	}
	if reason == ReasonBadImage {
		return nil, ErrBadImage
	}

	outcome := &VerificationOutcome{Method: model.MethodVision, Vision: score}

	if outcome.Passed(s.threshold) {
		event, err := s.finalizeEvent(ctx, req.StudentID, req.CourseID, req.InstructorID, outcome)
		if err != nil {
			return nil, err
		}
		return &dto.CheckInResponse{
			Status:     model.StatusPresent,
			Message:    "视觉验证通过",
			RecordID:   event.EventID,
			Confidence: &score.Confidence,
		}, nil
	}

	// 未通过：落 pending_review 事件，标记待人工复核
	notes := reason
	if score != nil {
		notes = ReasonBelowThreshold
	}
	event, err := s.pendingEvent(ctx, req.StudentID, req.CourseID, req.InstructorID, score, notes)
	if err != nil {
		return nil, err
	}

	resp := &dto.CheckInResponse{
		Status:                     model.StatusPendingReview,
		Message:                    "视觉验证未通过，已转入人工复核",
		RecordID:                   event.EventID,
		RequiresVisualVerification: true,
	}
	if score != nil {
		resp.Confidence = &score.Confidence
	}
	return resp, nil
}

// ────────────────────── StudentCheckIn ──────────────────────

func (s *checkinService) StudentCheckIn(ctx context.Context, req *dto.StudentCheckInRequest) (*dto.StudentCheckInResponse, error) {
	course, err := s.repo.Course.GetByCode(ctx, req.ClassCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("code", req.ClassCode), zap.Error(err))
		return nil, err
	}

	enrolled, err := s.repo.Enrollment.IsEnrolled(ctx, req.StudentID, course.CourseID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return &dto.StudentCheckInResponse{OK: false, Reason: ReasonNotEnrolled}, nil
	}

	// 1. GPS 优先
	var geoResp *dto.GeoVerifyResponse
	if req.Lat != nil && req.Lon != nil {
		geoResp, err = s.geoSvc.Verify(ctx, &dto.GeoVerifyRequest{
			CourseID:           course.CourseID,
			ClientGPSLat:       req.Lat,
			ClientGPSLon:       req.Lon,
			ClientGPSAccuracyM: req.AccuracyM,
		}, "")
		if err != nil {
			return nil, err
		}
		if geoResp.OK {
			event, err := s.finalizeEvent(ctx, req.StudentID, course.CourseID, course.ProfessorID, &VerificationOutcome{
				Method: model.MethodGPS,
				Geo:    geoResp,
			})
			if err != nil {
				return nil, err
			}
			return &dto.StudentCheckInResponse{
				OK:        true,
				Method:    model.MethodGPS,
				DistanceM: geoResp.DistanceM,
				RecordID:  &event.EventID,
			}, nil
		}
	}

	// 2. 视觉兜底
	if req.ImageB64 == "" {
		resp := &dto.StudentCheckInResponse{OK: false, Reason: ReasonNoLocation}
		if geoResp != nil {
			resp.Reason = geoFailReason(geoResp)
			resp.DistanceM = geoResp.DistanceM
		}
		return resp, nil
	}

	score, reason, err := s.visionSvc.ScoreImage(ctx, req.ImageB64)
	if err != nil {
		return nil, err
	}
	outcome := &VerificationOutcome{Method: model.MethodVision, Vision: score}
	if outcome.Passed(s.threshold) {
		event, err := s.finalizeEvent(ctx, req.StudentID, course.CourseID, course.ProfessorID, outcome)
		if err != nil {
			return nil, err
		}
		return &dto.StudentCheckInResponse{
			OK:         true,
			Method:     model.MethodVision,
			Label:      score.Label,
			Confidence: &score.Confidence,
			RecordID:   &event.EventID,
		}, nil
	}

	// 3. 两条自动路径都失败：落待复核事件，提示口令兜底
	notes := reason
	if score != nil {
		notes = ReasonBelowThreshold
	}
	event, err := s.pendingEvent(ctx, req.StudentID, course.CourseID, course.ProfessorID, score, notes)
	if err != nil {
		return nil, err
	}

	resp := &dto.StudentCheckInResponse{
		OK:                  false,
		Reason:              notes,
		NeedsManualOverride: true,
		RecordID:            &event.EventID,
	}
	if score != nil {
		resp.Label = score.Label
		resp.Confidence = &score.Confidence
	}
	if geoResp != nil {
		resp.DistanceM = geoResp.DistanceM
	}
	return resp, nil
}

// ────────────────────── ManualOverride ──────────────────────

func (s *checkinService) ManualOverride(ctx context.Context, req *dto.ManualOverrideRequest) (*dto.ManualOverrideResponse, error) {
	course, err := s.repo.Course.GetByCode(ctx, req.ClassCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("code", req.ClassCode), zap.Error(err))
		return nil, err
	}

	enrolled, err := s.repo.Enrollment.IsEnrolled(ctx, req.StudentID, course.CourseID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return &dto.ManualOverrideResponse{OK: false, Reason: ReasonNotEnrolled}, nil
	}

	// 口令不匹配：不改任何状态，直接拒绝
	if bcrypt.CompareHashAndPassword([]byte(course.SecretWordHash), []byte(req.SecretWord)) != nil {
		s.logger.Warn("口令兜底失败",
			zap.String("student_id", req.StudentID),
			zap.Int64("course_id", course.CourseID),
		)
		return &dto.ManualOverrideResponse{OK: false, Reason: ReasonSecretMismatch}, nil
	}

	event, err := s.finalizeEvent(ctx, req.StudentID, course.CourseID, course.ProfessorID, &VerificationOutcome{
		Method:   model.MethodManualOverride,
		Override: &OverrideOutcome{Matched: true},
	})
	if err != nil {
		return nil, err
	}

	return &dto.ManualOverrideResponse{OK: true, RecordID: &event.EventID}, nil
}

// ────────────────────── 事件收敛 ──────────────────────

// finalizeEvent 将一次通过的验证落为 present 事件
// 同一 (student, course, UTC 日) 已有事件时在原行上收敛，不产生重复行
func (s *checkinService) finalizeEvent(ctx context.Context, studentID string, courseID int64, instructorID string, outcome *VerificationOutcome) (*model.AttendanceEvent, error) {
	event, err := s.eventForToday(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}

	fresh := event == nil
	if fresh {
		event = &model.AttendanceEvent{
			StudentID:    studentID,
			CourseID:     courseID,
			InstructorID: instructorID,
			Timestamp:    s.now().UTC(),
		}
	}

	event.VerificationMethod = outcome.Method
	event.Status = model.StatusPresent
	event.RequiresManualReview = false
	event.Notes = nil
	event.Confidence = nil

	switch outcome.Method {
	case model.MethodGPS:
		event.Latitude = outcome.Geo.EstimatedLat
		event.Longitude = outcome.Geo.EstimatedLon
	case model.MethodVision:
		event.Confidence = &outcome.Vision.Confidence
	}

	if fresh {
		err = s.repo.Attendance.Create(ctx, event)
	} else {
		err = s.repo.Attendance.Update(ctx, event)
	}
	if err != nil {
		s.logger.Error("写入考勤事件失败",
			zap.String("student_id", studentID),
			zap.Int64("course_id", courseID),
			zap.Error(err),
		)
		return nil, err
	}
	return event, nil
}

// pendingEvent 视觉失败后落 pending_review 事件；当日已有 present 行则不降级
func (s *checkinService) pendingEvent(ctx context.Context, studentID string, courseID int64, instructorID string, score *vision.Score, reason string) (*model.AttendanceEvent, error) {
	event, err := s.eventForToday(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	if event != nil && event.Status == model.StatusPresent {
		return event, nil
	}

	fresh := event == nil
	if fresh {
		event = &model.AttendanceEvent{
			StudentID:    studentID,
			CourseID:     courseID,
			InstructorID: instructorID,
			Timestamp:    s.now().UTC(),
		}
	}

	event.VerificationMethod = model.MethodVision
	event.Status = model.StatusPendingReview
	event.RequiresManualReview = true
	event.Notes = &reason
	event.Confidence = nil
	if score != nil {
		event.Confidence = &score.Confidence
	}

	if fresh {
		err = s.repo.Attendance.Create(ctx, event)
	} else {
		err = s.repo.Attendance.Update(ctx, event)
	}
	if err != nil {
		s.logger.Error("写入考勤事件失败",
			zap.String("student_id", studentID),
			zap.Int64("course_id", courseID),
			zap.Error(err),
		)
		return nil, err
	}
	return event, nil
}

// eventForToday 查当日（UTC 自然日）已有事件，没有返回 nil
func (s *checkinService) eventForToday(ctx context.Context, studentID string, courseID int64) (*model.AttendanceEvent, error) {
	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	event, err := s.repo.Attendance.FindForWindow(ctx, studentID, courseID, dayStart, dayEnd)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("查询当日考勤失败",
			zap.String("student_id", studentID),
			zap.Int64("course_id", courseID),
			zap.Error(err),
		)
		return nil, err
	}
	return event, nil
}

// ── 提示文案 ──

func gpsFailMessage(resp *dto.GeoVerifyResponse) string {
	switch resp.Reason {
	case ReasonNotCalibrated:
		return "教室尚未标定，请使用视觉验证"
	case ReasonIPLookupFailed:
		return "无法定位，请使用视觉验证"
	default:
		return "GPS 定位在教室围栏外，请拍摄教室照片验证"
	}
}

func geoFailReason(resp *dto.GeoVerifyResponse) string {
	if resp.Reason != "" {
		return resp.Reason
	}
	return "outside_geofence"
}

// [自证通过] internal/service/checkin_service.go
