package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/kdomac-14/AC215-HARV/config"
	"github.com/kdomac-14/AC215-HARV/internal/dto"
	"github.com/kdomac-14/AC215-HARV/internal/repository"
	"github.com/kdomac-14/AC215-HARV/pkg/geoip"
)

func setupTestCourseService() (CourseService, *repository.Repository) {
	repo := newMockRepository()
	logger := zap.NewNop()
	geoCfg := &config.GeoConfig{DefaultEpsilonM: 60.0, MinEpsilonM: 1.0}
	geoSvc := NewGeoService(geoCfg, repo, &geoip.MockProvider{}, logger)
	return NewCourseService(repo, geoSvc, logger), repo
}

// ────────────────────── CreateClass ──────────────────────

func TestCreateClass_Success(t *testing.T) {
	svc, repo := setupTestCourseService()

	resp, err := svc.CreateClass(context.Background(), &dto.CreateClassRequest{
		Name:          "分布式系统",
		Code:          "CS262",
		SecretWord:    "open-sesame",
		ChallengeWord: "magnolia",
		Lat:           f64(42.3745),
		Lon:           f64(-71.1189),
		EpsilonM:      f64(80),
		RoomPhotos:    []string{testImageB64(), testImageB64()},
	}, "prof-1")
	if err != nil {
		t.Fatalf("CreateClass 应成功: %v", err)
	}
	if !resp.OK {
		t.Error("期望 ok=true")
	}
	if resp.Class.Code != "CS262" {
		t.Errorf("期望 code=CS262，实际=%s", resp.Class.Code)
	}
	if resp.Class.Lat == nil || *resp.Class.Lat != 42.3745 {
		t.Errorf("期望同步写入标定 lat=42.3745，实际=%v", resp.Class.Lat)
	}
	if resp.Class.EpsilonM == nil || *resp.Class.EpsilonM != 80 {
		t.Errorf("期望 epsilon_m=80，实际=%v", resp.Class.EpsilonM)
	}
	if resp.Class.PhotoCount != 2 {
		t.Errorf("期望 photo_count=2，实际=%d", resp.Class.PhotoCount)
	}

	// 口令以 bcrypt 散列存储
	course, err := repo.Course.GetByCode(context.Background(), "CS262")
	if err != nil {
		t.Fatalf("查询课程失败: %v", err)
	}
	if course.SecretWordHash == "open-sesame" {
		t.Error("口令不应明文存储")
	}
	if bcrypt.CompareHashAndPassword([]byte(course.SecretWordHash), []byte("open-sesame")) != nil {
		t.Error("口令散列应能校验原口令")
	}
	if course.ChallengeWord == nil || *course.ChallengeWord != "magnolia" {
		t.Errorf("期望 challenge_word=magnolia，实际=%v", course.ChallengeWord)
	}
}

func TestCreateClass_WithoutCalibration(t *testing.T) {
	svc, repo := setupTestCourseService()

	resp, err := svc.CreateClass(context.Background(), &dto.CreateClassRequest{
		Name:       "编译原理",
		Code:       "CS153",
		SecretWord: "open-sesame",
	}, "prof-1")
	if err != nil {
		t.Fatalf("CreateClass 应成功: %v", err)
	}
	if resp.Class.Lat != nil || resp.Class.EpsilonM != nil {
		t.Error("未附带坐标的建课不应产生标定")
	}
	if _, err := repo.Calibration.Get(context.Background(), resp.Class.ID); err == nil {
		t.Error("标定表不应存在该课程记录")
	}
}

func TestCreateClass_CodeTaken(t *testing.T) {
	svc, _ := setupTestCourseService()

	req := &dto.CreateClassRequest{Name: "数据库系统", Code: "CS165", SecretWord: "open-sesame"}
	if _, err := svc.CreateClass(context.Background(), req, "prof-1"); err != nil {
		t.Fatalf("首次建课应成功: %v", err)
	}
	if _, err := svc.CreateClass(context.Background(), req, "prof-2"); !errors.Is(err, ErrCodeTaken) {
		t.Errorf("期望 ErrCodeTaken，实际: %v", err)
	}
}

func TestCreateClass_BadPhoto(t *testing.T) {
	svc, repo := setupTestCourseService()

	_, err := svc.CreateClass(context.Background(), &dto.CreateClassRequest{
		Name:       "操作系统",
		Code:       "CS161",
		SecretWord: "open-sesame",
		RoomPhotos: []string{"!!!not-base64!!!"},
	}, "prof-1")
	if !errors.Is(err, ErrBadPhoto) {
		t.Errorf("期望 ErrBadPhoto，实际: %v", err)
	}
	// 照片解码失败时不留半成品课程
	if _, err := repo.Course.GetByCode(context.Background(), "CS161"); err == nil {
		t.Error("建课失败不应留下课程记录")
	}
}

// ────────────────────── Enroll ──────────────────────

func TestEnroll_Success(t *testing.T) {
	svc, _ := setupTestCourseService()

	created, err := svc.CreateClass(context.Background(), &dto.CreateClassRequest{
		Name: "机器学习", Code: "CS181", SecretWord: "open-sesame",
	}, "prof-1")
	if err != nil {
		t.Fatalf("建课失败: %v", err)
	}

	resp, err := svc.Enroll(context.Background(), &dto.EnrollRequest{ClassCode: "CS181", StudentID: "stu-1"})
	if err != nil {
		t.Fatalf("Enroll 应成功: %v", err)
	}
	if !resp.OK || resp.AlreadyEnrolled {
		t.Errorf("首次选课期望 ok=true already_enrolled=false，实际 ok=%v already=%v", resp.OK, resp.AlreadyEnrolled)
	}
	if resp.CourseID != created.Class.ID {
		t.Errorf("期望 course_id=%d，实际=%d", created.Class.ID, resp.CourseID)
	}
}

func TestEnroll_Idempotent(t *testing.T) {
	svc, _ := setupTestCourseService()

	if _, err := svc.CreateClass(context.Background(), &dto.CreateClassRequest{
		Name: "机器学习", Code: "CS181", SecretWord: "open-sesame",
	}, "prof-1"); err != nil {
		t.Fatalf("建课失败: %v", err)
	}

	req := &dto.EnrollRequest{ClassCode: "CS181", StudentID: "stu-1"}
	if _, err := svc.Enroll(context.Background(), req); err != nil {
		t.Fatalf("首次选课失败: %v", err)
	}
	resp, err := svc.Enroll(context.Background(), req)
	if err != nil {
		t.Fatalf("重复选课应幂等成功: %v", err)
	}
	if !resp.OK || !resp.AlreadyEnrolled {
		t.Errorf("重复选课期望 already_enrolled=true，实际 ok=%v already=%v", resp.OK, resp.AlreadyEnrolled)
	}
}

func TestEnroll_CourseNotFound(t *testing.T) {
	svc, _ := setupTestCourseService()

	_, err := svc.Enroll(context.Background(), &dto.EnrollRequest{ClassCode: "NOPE", StudentID: "stu-1"})
	if !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound，实际: %v", err)
	}
}

func TestUnenroll_Success(t *testing.T) {
	svc, repo := setupTestCourseService()

	created, err := svc.CreateClass(context.Background(), &dto.CreateClassRequest{
		Name: "机器学习", Code: "CS181", SecretWord: "open-sesame",
	}, "prof-1")
	if err != nil {
		t.Fatalf("建课失败: %v", err)
	}
	if _, err := svc.Enroll(context.Background(), &dto.EnrollRequest{ClassCode: "CS181", StudentID: "stu-1"}); err != nil {
		t.Fatalf("选课失败: %v", err)
	}

	resp, err := svc.Unenroll(context.Background(), &dto.UnenrollRequest{ClassCode: "CS181", StudentID: "stu-1"})
	if err != nil {
		t.Fatalf("Unenroll 应成功: %v", err)
	}
	if !resp.OK || resp.CourseID != created.Class.ID {
		t.Errorf("期望 ok=true course_id=%d，实际 ok=%v course_id=%d", created.Class.ID, resp.OK, resp.CourseID)
	}

	// 选课关系应已删除
	enrolled, err := repo.Enrollment.IsEnrolled(context.Background(), "stu-1", created.Class.ID)
	if err != nil || enrolled {
		t.Errorf("期望退课后 enrolled=false，实际 enrolled=%v err=%v", enrolled, err)
	}
}

func TestUnenroll_NotEnrolledIsIdempotent(t *testing.T) {
	svc, _ := setupTestCourseService()

	if _, err := svc.CreateClass(context.Background(), &dto.CreateClassRequest{
		Name: "机器学习", Code: "CS181", SecretWord: "open-sesame",
	}, "prof-1"); err != nil {
		t.Fatalf("建课失败: %v", err)
	}

	// 未选课时退课幂等返回成功
	resp, err := svc.Unenroll(context.Background(), &dto.UnenrollRequest{ClassCode: "CS181", StudentID: "stu-1"})
	if err != nil {
		t.Fatalf("未选课退课应幂等成功: %v", err)
	}
	if !resp.OK {
		t.Errorf("期望 ok=true，实际=%v", resp.OK)
	}
}

func TestUnenroll_CourseNotFound(t *testing.T) {
	svc, _ := setupTestCourseService()

	_, err := svc.Unenroll(context.Background(), &dto.UnenrollRequest{ClassCode: "NOPE", StudentID: "stu-1"})
	if !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound，实际: %v", err)
	}
}

// ────────────────────── 课程列表 ──────────────────────

func TestListByProfessor(t *testing.T) {
	svc, _ := setupTestCourseService()

	for _, code := range []string{"CS101", "CS102"} {
		if _, err := svc.CreateClass(context.Background(), &dto.CreateClassRequest{
			Name: "课程 " + code, Code: code, SecretWord: "open-sesame",
		}, "prof-1"); err != nil {
			t.Fatalf("建课失败: %v", err)
		}
	}
	if _, err := svc.CreateClass(context.Background(), &dto.CreateClassRequest{
		Name: "其他教授的课", Code: "CS999", SecretWord: "open-sesame",
	}, "prof-2"); err != nil {
		t.Fatalf("建课失败: %v", err)
	}

	classes, err := svc.ListByProfessor(context.Background(), "prof-1")
	if err != nil {
		t.Fatalf("ListByProfessor 失败: %v", err)
	}
	if len(classes) != 2 {
		t.Fatalf("期望 2 门课程，实际=%d", len(classes))
	}
	for _, c := range classes {
		if c.ProfessorID != "prof-1" {
			t.Errorf("期望 professor_id=prof-1，实际=%s", c.ProfessorID)
		}
	}
}

func TestListByStudent(t *testing.T) {
	svc, _ := setupTestCourseService()

	if _, err := svc.CreateClass(context.Background(), &dto.CreateClassRequest{
		Name: "算法导论", Code: "CS124", SecretWord: "open-sesame",
		Lat: f64(42.3745), Lon: f64(-71.1189),
	}, "prof-1"); err != nil {
		t.Fatalf("建课失败: %v", err)
	}
	if _, err := svc.CreateClass(context.Background(), &dto.CreateClassRequest{
		Name: "未选的课", Code: "CS229", SecretWord: "open-sesame",
	}, "prof-1"); err != nil {
		t.Fatalf("建课失败: %v", err)
	}
	if _, err := svc.Enroll(context.Background(), &dto.EnrollRequest{ClassCode: "CS124", StudentID: "stu-1"}); err != nil {
		t.Fatalf("选课失败: %v", err)
	}

	classes, err := svc.ListByStudent(context.Background(), "stu-1")
	if err != nil {
		t.Fatalf("ListByStudent 失败: %v", err)
	}
	if len(classes) != 1 {
		t.Fatalf("期望 1 门课程，实际=%d", len(classes))
	}
	if classes[0].Code != "CS124" {
		t.Errorf("期望 code=CS124，实际=%s", classes[0].Code)
	}
	// 列表应带出标定信息
	if classes[0].Lat == nil || *classes[0].Lat != 42.3745 {
		t.Errorf("期望带出标定 lat=42.3745，实际=%v", classes[0].Lat)
	}
}

func TestListAvailable(t *testing.T) {
	svc, _ := setupTestCourseService()

	for i, code := range []string{"CS101", "CS102", "CS103"} {
		prof := "prof-1"
		if i == 2 {
			prof = "prof-2"
		}
		if _, err := svc.CreateClass(context.Background(), &dto.CreateClassRequest{
			Name: "课程 " + code, Code: code, SecretWord: "open-sesame",
		}, prof); err != nil {
			t.Fatalf("建课失败: %v", err)
		}
	}

	classes, err := svc.ListAvailable(context.Background())
	if err != nil {
		t.Fatalf("ListAvailable 失败: %v", err)
	}
	if len(classes) != 3 {
		t.Errorf("期望全部 3 门课程，实际=%d", len(classes))
	}
}
