package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/kdomac-14/AC215-HARV/config"
	"github.com/kdomac-14/AC215-HARV/internal/dto"
	"github.com/kdomac-14/AC215-HARV/internal/model"
	"github.com/kdomac-14/AC215-HARV/internal/repository"
	"github.com/kdomac-14/AC215-HARV/pkg/geoip"
	"github.com/kdomac-14/AC215-HARV/pkg/vision"
)

// ── 测试辅助 ──

type checkinFixture struct {
	svc    CheckinService
	repo   *repository.Repository
	course *model.Course
}

// setupCheckinFixture 准备一个已标定课程与已选课学生 stu-1
// rec 控制视觉路径的打分结果
func setupCheckinFixture(t *testing.T, rec vision.Recognizer) *checkinFixture {
	t.Helper()

	repo := newMockRepository()
	logger := zap.NewNop()

	geoCfg := &config.GeoConfig{DefaultEpsilonM: 60.0, MinEpsilonM: 1.0}
	geoSvc := NewGeoService(geoCfg, repo, &geoip.MockProvider{}, logger)

	visionCfg := &config.VisionConfig{Threshold: 0.65, ChallengeWord: "orchid"}
	if rec == nil {
		rec = &fakeRecognizer{label: "classroom", confidence: 0.9}
	}
	visionSvc := NewVisionService(visionCfg, repo, rec, logger)

	svc := NewCheckinService(repo, geoSvc, visionSvc, visionCfg.Threshold, logger)

	hash, _ := bcrypt.GenerateFromPassword([]byte("open-sesame"), bcrypt.MinCost)
	course := &model.Course{
		Code:           "CS101",
		Name:           "测试课程",
		ProfessorID:    "prof-1",
		SecretWordHash: string(hash),
	}
	if err := repo.Course.Create(context.Background(), course); err != nil {
		t.Fatalf("创建课程失败: %v", err)
	}
	if err := repo.Calibration.Set(context.Background(), &model.Calibration{
		CourseID: course.CourseID,
		Lat:      42.3745,
		Lon:      -71.1189,
		EpsilonM: 60,
	}); err != nil {
		t.Fatalf("写入标定失败: %v", err)
	}
	if _, err := repo.Enrollment.Enroll(context.Background(), "stu-1", course.CourseID); err != nil {
		t.Fatalf("选课失败: %v", err)
	}

	return &checkinFixture{svc: svc, repo: repo, course: course}
}

// ── GPS 签到测试 ──

func TestCheckInGPS_Inside(t *testing.T) {
	fx := setupCheckinFixture(t, nil)

	resp, err := fx.svc.CheckInGPS(context.Background(), &dto.GPSCheckInRequest{
		StudentID: "stu-1",
		CourseID:  fx.course.CourseID,
		Latitude:  f64(42.3745),
		Longitude: f64(-71.1189),
	})
	if err != nil {
		t.Fatalf("CheckInGPS 应成功: %v", err)
	}
	if resp.Status != model.StatusPresent {
		t.Errorf("期望 status=present，实际=%s", resp.Status)
	}
	if resp.RecordID == 0 {
		t.Error("期望生成考勤事件")
	}

	event, err := fx.repo.Attendance.GetByID(context.Background(), resp.RecordID)
	if err != nil {
		t.Fatalf("查询事件失败: %v", err)
	}
	if event.VerificationMethod != model.MethodGPS {
		t.Errorf("期望 method=gps，实际=%s", event.VerificationMethod)
	}
	if event.RequiresManualReview {
		t.Error("GPS 通过的事件不应要求人工复核")
	}
}

func TestCheckInGPS_Outside(t *testing.T) {
	fx := setupCheckinFixture(t, nil)

	resp, err := fx.svc.CheckInGPS(context.Background(), &dto.GPSCheckInRequest{
		StudentID: "stu-1",
		CourseID:  fx.course.CourseID,
		Latitude:  f64(43.3745),
		Longitude: f64(-71.1189),
	})
	if err != nil {
		t.Fatalf("CheckInGPS 应成功: %v", err)
	}
	if resp.Status != model.StatusPendingReview {
		t.Errorf("围栏外期望 status=pending_review，实际=%s", resp.Status)
	}
	if !resp.RequiresVisualVerification {
		t.Error("围栏外应引导视觉兜底")
	}
	// GPS 失败不落事件
	if resp.RecordID != 0 {
		t.Errorf("GPS 失败不应生成事件，实际 record_id=%d", resp.RecordID)
	}
}

// ── 视觉签到测试 ──

func TestCheckInVision_Pass(t *testing.T) {
	fx := setupCheckinFixture(t, &fakeRecognizer{label: "classroom", confidence: 0.88})

	resp, err := fx.svc.CheckInVision(context.Background(), &dto.VisionCheckInRequest{
		StudentID: "stu-1",
		CourseID:  fx.course.CourseID,
		ImageB64:  testImageB64(),
	})
	if err != nil {
		t.Fatalf("CheckInVision 应成功: %v", err)
	}
	if resp.Status != model.StatusPresent {
		t.Errorf("期望 status=present，实际=%s", resp.Status)
	}
	if resp.Confidence == nil || *resp.Confidence != 0.88 {
		t.Errorf("期望 confidence=0.88，实际=%v", resp.Confidence)
	}

	event, _ := fx.repo.Attendance.GetByID(context.Background(), resp.RecordID)
	if event.VerificationMethod != model.MethodVision {
		t.Errorf("期望 method=vision，实际=%s", event.VerificationMethod)
	}
}

func TestCheckInVision_BelowThreshold(t *testing.T) {
	fx := setupCheckinFixture(t, &fakeRecognizer{label: "hallway", confidence: 0.3})

	resp, err := fx.svc.CheckInVision(context.Background(), &dto.VisionCheckInRequest{
		StudentID: "stu-1",
		CourseID:  fx.course.CourseID,
		ImageB64:  testImageB64(),
	})
	if err != nil {
		t.Fatalf("CheckInVision 应成功: %v", err)
	}
	if resp.Status != model.StatusPendingReview {
		t.Errorf("低于阈值期望 status=pending_review，实际=%s", resp.Status)
	}
	if resp.RecordID == 0 {
		t.Fatal("视觉失败应落待复核事件")
	}

	event, _ := fx.repo.Attendance.GetByID(context.Background(), resp.RecordID)
	if !event.RequiresManualReview {
		t.Error("待复核事件应标记 requires_manual_review")
	}
	if event.Status != model.StatusPendingReview {
		t.Errorf("期望事件 status=pending_review，实际=%s", event.Status)
	}
}

func TestVerificationOutcome_Passed(t *testing.T) {
	cases := []struct {
		name    string
		outcome VerificationOutcome
		want    bool
	}{
		{"GPS 通过", VerificationOutcome{Method: model.MethodGPS, Geo: &dto.GeoVerifyResponse{OK: true}}, true},
		{"GPS 围栏外", VerificationOutcome{Method: model.MethodGPS, Geo: &dto.GeoVerifyResponse{OK: false}}, false},
		{"视觉达到阈值", VerificationOutcome{Method: model.MethodVision, Vision: &vision.Score{Confidence: 0.88}}, true},
		{"视觉恰好等于阈值", VerificationOutcome{Method: model.MethodVision, Vision: &vision.Score{Confidence: 0.65}}, true},
		{"视觉低于阈值", VerificationOutcome{Method: model.MethodVision, Vision: &vision.Score{Confidence: 0.3}}, false},
		{"视觉无打分", VerificationOutcome{Method: model.MethodVision}, false},
		{"口令匹配", VerificationOutcome{Method: model.MethodManualOverride, Override: &OverrideOutcome{Matched: true}}, true},
		{"口令不匹配", VerificationOutcome{Method: model.MethodManualOverride, Override: &OverrideOutcome{Matched: false}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.outcome.Passed(0.65); got != tc.want {
				t.Errorf("期望 %v，实际=%v", tc.want, got)
			}
		})
	}
}

func TestCheckInVision_BadImage(t *testing.T) {
	fx := setupCheckinFixture(t, nil)

	_, err := fx.svc.CheckInVision(context.Background(), &dto.VisionCheckInRequest{
		StudentID: "stu-1",
		CourseID:  fx.course.CourseID,
		ImageB64:  "!!!not-base64!!!",
	})
	if !errors.Is(err, ErrBadImage) {
		t.Errorf("期望 ErrBadImage，实际: %v", err)
	}
}

// ── 同日去重测试 ──

func TestCheckIn_SameDayConverges(t *testing.T) {
	fx := setupCheckinFixture(t, &fakeRecognizer{label: "hallway", confidence: 0.3})

	// 先视觉失败落待复核
	visionResp, err := fx.svc.CheckInVision(context.Background(), &dto.VisionCheckInRequest{
		StudentID: "stu-1",
		CourseID:  fx.course.CourseID,
		ImageB64:  testImageB64(),
	})
	if err != nil {
		t.Fatalf("CheckInVision 失败: %v", err)
	}

	// 再 GPS 通过：同一行收敛为 present，不新增事件
	gpsResp, err := fx.svc.CheckInGPS(context.Background(), &dto.GPSCheckInRequest{
		StudentID: "stu-1",
		CourseID:  fx.course.CourseID,
		Latitude:  f64(42.3745),
		Longitude: f64(-71.1189),
	})
	if err != nil {
		t.Fatalf("CheckInGPS 失败: %v", err)
	}
	if gpsResp.RecordID != visionResp.RecordID {
		t.Errorf("同日事件应收敛到同一行：%d != %d", gpsResp.RecordID, visionResp.RecordID)
	}

	event, _ := fx.repo.Attendance.GetByID(context.Background(), gpsResp.RecordID)
	if event.Status != model.StatusPresent {
		t.Errorf("收敛后期望 status=present，实际=%s", event.Status)
	}
	if event.VerificationMethod != model.MethodGPS {
		t.Errorf("收敛后期望 method=gps，实际=%s", event.VerificationMethod)
	}
	if event.RequiresManualReview {
		t.Error("收敛为 present 后不应再要求复核")
	}
}

func TestCheckIn_PendingDoesNotDowngradePresent(t *testing.T) {
	fx := setupCheckinFixture(t, &fakeRecognizer{label: "hallway", confidence: 0.3})

	// 先 GPS 通过
	gpsResp, err := fx.svc.CheckInGPS(context.Background(), &dto.GPSCheckInRequest{
		StudentID: "stu-1",
		CourseID:  fx.course.CourseID,
		Latitude:  f64(42.3745),
		Longitude: f64(-71.1189),
	})
	if err != nil {
		t.Fatalf("CheckInGPS 失败: %v", err)
	}

	// 随后视觉失败：不应把已 present 的行降级
	if _, err := fx.svc.CheckInVision(context.Background(), &dto.VisionCheckInRequest{
		StudentID: "stu-1",
		CourseID:  fx.course.CourseID,
		ImageB64:  testImageB64(),
	}); err != nil {
		t.Fatalf("CheckInVision 失败: %v", err)
	}

	event, _ := fx.repo.Attendance.GetByID(context.Background(), gpsResp.RecordID)
	if event.Status != model.StatusPresent {
		t.Errorf("已 present 的事件不应被降级，实际=%s", event.Status)
	}
}

// ── 合并签到测试 ──

func TestStudentCheckIn_GPSFirst(t *testing.T) {
	fx := setupCheckinFixture(t, nil)

	resp, err := fx.svc.StudentCheckIn(context.Background(), &dto.StudentCheckInRequest{
		ClassCode: "CS101",
		StudentID: "stu-1",
		Lat:       f64(42.3745),
		Lon:       f64(-71.1189),
	})
	if err != nil {
		t.Fatalf("StudentCheckIn 应成功: %v", err)
	}
	if !resp.OK {
		t.Errorf("期望 ok=true，实际 reason=%s", resp.Reason)
	}
	if resp.Method != model.MethodGPS {
		t.Errorf("期望 method=gps，实际=%s", resp.Method)
	}
}

func TestStudentCheckIn_FallsBackToVision(t *testing.T) {
	fx := setupCheckinFixture(t, &fakeRecognizer{label: "classroom", confidence: 0.9})

	// GPS 在围栏外，但附带图像且打分达标 → 视觉兜底通过
	resp, err := fx.svc.StudentCheckIn(context.Background(), &dto.StudentCheckInRequest{
		ClassCode: "CS101",
		StudentID: "stu-1",
		Lat:       f64(43.3745),
		Lon:       f64(-71.1189),
		ImageB64:  testImageB64(),
	})
	if err != nil {
		t.Fatalf("StudentCheckIn 应成功: %v", err)
	}
	if !resp.OK {
		t.Errorf("期望视觉兜底通过，实际 reason=%s", resp.Reason)
	}
	if resp.Method != model.MethodVision {
		t.Errorf("期望 method=vision，实际=%s", resp.Method)
	}
}

func TestStudentCheckIn_NotEnrolled(t *testing.T) {
	fx := setupCheckinFixture(t, nil)

	resp, err := fx.svc.StudentCheckIn(context.Background(), &dto.StudentCheckInRequest{
		ClassCode: "CS101",
		StudentID: "stu-2", // 未选课
		Lat:       f64(42.3745),
		Lon:       f64(-71.1189),
	})
	if err != nil {
		t.Fatalf("StudentCheckIn 应成功返回业务拒绝: %v", err)
	}
	if resp.OK || resp.Reason != ReasonNotEnrolled {
		t.Errorf("期望 reason=%s，实际 ok=%v reason=%s", ReasonNotEnrolled, resp.OK, resp.Reason)
	}
}

func TestStudentCheckIn_CourseNotFound(t *testing.T) {
	fx := setupCheckinFixture(t, nil)

	_, err := fx.svc.StudentCheckIn(context.Background(), &dto.StudentCheckInRequest{
		ClassCode: "NOPE",
		StudentID: "stu-1",
	})
	if !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound，实际: %v", err)
	}
}

func TestStudentCheckIn_BothFail(t *testing.T) {
	fx := setupCheckinFixture(t, &fakeRecognizer{label: "hallway", confidence: 0.2})

	resp, err := fx.svc.StudentCheckIn(context.Background(), &dto.StudentCheckInRequest{
		ClassCode: "CS101",
		StudentID: "stu-1",
		Lat:       f64(43.3745),
		Lon:       f64(-71.1189),
		ImageB64:  testImageB64(),
	})
	if err != nil {
		t.Fatalf("StudentCheckIn 应成功: %v", err)
	}
	if resp.OK {
		t.Error("两条路径均失败期望 ok=false")
	}
	if !resp.NeedsManualOverride {
		t.Error("应提示口令兜底")
	}
	if resp.RecordID == nil {
		t.Fatal("视觉失败应落待复核事件")
	}
	event, _ := fx.repo.Attendance.GetByID(context.Background(), *resp.RecordID)
	if event.Status != model.StatusPendingReview {
		t.Errorf("期望事件 status=pending_review，实际=%s", event.Status)
	}
}

// ── 口令兜底测试 ──

func TestManualOverride_Match(t *testing.T) {
	fx := setupCheckinFixture(t, nil)

	resp, err := fx.svc.ManualOverride(context.Background(), &dto.ManualOverrideRequest{
		ClassCode:  "CS101",
		StudentID:  "stu-1",
		SecretWord: "open-sesame",
	})
	if err != nil {
		t.Fatalf("ManualOverride 应成功: %v", err)
	}
	if !resp.OK {
		t.Errorf("口令正确期望 ok=true，实际 reason=%s", resp.Reason)
	}
	if resp.RecordID == nil {
		t.Fatal("期望生成考勤事件")
	}

	event, _ := fx.repo.Attendance.GetByID(context.Background(), *resp.RecordID)
	if event.VerificationMethod != model.MethodManualOverride {
		t.Errorf("期望 method=manual_override，实际=%s", event.VerificationMethod)
	}
	if event.Status != model.StatusPresent {
		t.Errorf("期望 status=present，实际=%s", event.Status)
	}
}

func TestManualOverride_Mismatch(t *testing.T) {
	fx := setupCheckinFixture(t, nil)

	resp, err := fx.svc.ManualOverride(context.Background(), &dto.ManualOverrideRequest{
		ClassCode:  "CS101",
		StudentID:  "stu-1",
		SecretWord: "wrong-word",
	})
	if err != nil {
		t.Fatalf("ManualOverride 应成功返回业务拒绝: %v", err)
	}
	if resp.OK || resp.Reason != ReasonSecretMismatch {
		t.Errorf("期望 reason=%s，实际 ok=%v reason=%s", ReasonSecretMismatch, resp.OK, resp.Reason)
	}
	// 口令不匹配不产生任何事件
	if resp.RecordID != nil {
		t.Error("口令不匹配不应生成事件")
	}
}

func TestManualOverride_FinalizesPendingEvent(t *testing.T) {
	fx := setupCheckinFixture(t, &fakeRecognizer{label: "hallway", confidence: 0.2})

	// 先视觉失败落待复核
	visionResp, err := fx.svc.CheckInVision(context.Background(), &dto.VisionCheckInRequest{
		StudentID: "stu-1",
		CourseID:  fx.course.CourseID,
		ImageB64:  testImageB64(),
	})
	if err != nil {
		t.Fatalf("CheckInVision 失败: %v", err)
	}

	// 再口令兜底：同一行收敛
	resp, err := fx.svc.ManualOverride(context.Background(), &dto.ManualOverrideRequest{
		ClassCode:  "CS101",
		StudentID:  "stu-1",
		SecretWord: "open-sesame",
	})
	if err != nil {
		t.Fatalf("ManualOverride 失败: %v", err)
	}
	if resp.RecordID == nil || *resp.RecordID != visionResp.RecordID {
		t.Errorf("期望收敛到待复核行 %d，实际=%v", visionResp.RecordID, resp.RecordID)
	}

	event, _ := fx.repo.Attendance.GetByID(context.Background(), visionResp.RecordID)
	if event.Status != model.StatusPresent || event.RequiresManualReview {
		t.Errorf("收敛后期望 present 且无复核标记，实际 status=%s review=%v",
			event.Status, event.RequiresManualReview)
	}
}

// ── 时间窗辅助验证 ──

func TestCheckIn_NextDayNewEvent(t *testing.T) {
	fx := setupCheckinFixture(t, nil)

	impl := fx.svc.(*checkinService)
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	impl.now = func() time.Time { return base }

	first, err := fx.svc.CheckInGPS(context.Background(), &dto.GPSCheckInRequest{
		StudentID: "stu-1",
		CourseID:  fx.course.CourseID,
		Latitude:  f64(42.3745),
		Longitude: f64(-71.1189),
	})
	if err != nil {
		t.Fatalf("首日签到失败: %v", err)
	}

	// 次日签到：新事件
	impl.now = func() time.Time { return base.Add(24 * time.Hour) }
	second, err := fx.svc.CheckInGPS(context.Background(), &dto.GPSCheckInRequest{
		StudentID: "stu-1",
		CourseID:  fx.course.CourseID,
		Latitude:  f64(42.3745),
		Longitude: f64(-71.1189),
	})
	if err != nil {
		t.Fatalf("次日签到失败: %v", err)
	}
	if second.RecordID == first.RecordID {
		t.Error("不同 UTC 日的签到应生成新事件")
	}
}
