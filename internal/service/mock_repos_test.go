package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kdomac-14/AC215-HARV/internal/model"
	"github.com/kdomac-14/AC215-HARV/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Email
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses map[int64]*model.Course
	photos  map[int64][]*model.CoursePhoto
	nextID  int64
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{
		courses: make(map[int64]*model.Course),
		photos:  make(map[int64][]*model.CoursePhoto),
		nextID:  1,
	}
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	if course.CourseID == 0 {
		course.CourseID = m.nextID
		m.nextID++
	}
	course.CreatedAt = time.Now()
	m.courses[course.CourseID] = course
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id int64) (*model.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) GetByCode(_ context.Context, code string) (*model.Course, error) {
	for _, c := range m.courses {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) ListByProfessor(_ context.Context, professorID string) ([]model.Course, error) {
	var result []model.Course
	for id := int64(1); id < m.nextID; id++ {
		if c, ok := m.courses[id]; ok && c.ProfessorID == professorID {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockCourseRepo) ListAll(_ context.Context) ([]model.Course, error) {
	var result []model.Course
	for id := int64(1); id < m.nextID; id++ {
		if c, ok := m.courses[id]; ok {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockCourseRepo) AddPhoto(_ context.Context, photo *model.CoursePhoto) error {
	photo.PhotoID = int64(len(m.photos[photo.CourseID]) + 1)
	m.photos[photo.CourseID] = append(m.photos[photo.CourseID], photo)
	return nil
}

func (m *mockCourseRepo) CountPhotos(_ context.Context, courseID int64) (int64, error) {
	return int64(len(m.photos[courseID])), nil
}

// ── Mock CalibrationRepository ──

type mockCalibrationRepo struct {
	calibrations map[int64]*model.Calibration
}

func newMockCalibrationRepo() *mockCalibrationRepo {
	return &mockCalibrationRepo{calibrations: make(map[int64]*model.Calibration)}
}

func (m *mockCalibrationRepo) Set(_ context.Context, cal *model.Calibration) error {
	cal.UpdatedAt = time.Now().UTC()
	stored := *cal
	m.calibrations[cal.CourseID] = &stored
	return nil
}

func (m *mockCalibrationRepo) Get(_ context.Context, courseID int64) (*model.Calibration, error) {
	if c, ok := m.calibrations[courseID]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock EnrollmentRepository ──

type enrollPair struct {
	studentID string
	courseID  int64
}

type mockEnrollmentRepo struct {
	enrolled map[enrollPair]bool
}

func newMockEnrollmentRepo() *mockEnrollmentRepo {
	return &mockEnrollmentRepo{enrolled: make(map[enrollPair]bool)}
}

func (m *mockEnrollmentRepo) Enroll(_ context.Context, studentID string, courseID int64) (bool, error) {
	key := enrollPair{studentID, courseID}
	if m.enrolled[key] {
		return false, nil
	}
	m.enrolled[key] = true
	return true, nil
}

func (m *mockEnrollmentRepo) Unenroll(_ context.Context, studentID string, courseID int64) error {
	delete(m.enrolled, enrollPair{studentID, courseID})
	return nil
}

func (m *mockEnrollmentRepo) IsEnrolled(_ context.Context, studentID string, courseID int64) (bool, error) {
	return m.enrolled[enrollPair{studentID, courseID}], nil
}

func (m *mockEnrollmentRepo) ListCourseIDsByStudent(_ context.Context, studentID string) ([]int64, error) {
	var ids []int64
	for key := range m.enrolled {
		if key.studentID == studentID {
			ids = append(ids, key.courseID)
		}
	}
	return ids, nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	events map[int64]*model.AttendanceEvent
	nextID int64
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{events: make(map[int64]*model.AttendanceEvent), nextID: 1}
}

func (m *mockAttendanceRepo) Create(_ context.Context, event *model.AttendanceEvent) error {
	if event.EventID == 0 {
		event.EventID = m.nextID
		m.nextID++
	}
	stored := *event
	m.events[event.EventID] = &stored
	return nil
}

func (m *mockAttendanceRepo) GetByID(_ context.Context, id int64) (*model.AttendanceEvent, error) {
	if e, ok := m.events[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) ListByCourse(_ context.Context, courseID int64, filter *repository.AttendanceFilter) ([]model.AttendanceEvent, error) {
	var result []model.AttendanceEvent
	for id := int64(1); id < m.nextID; id++ {
		e, ok := m.events[id]
		if !ok || e.CourseID != courseID {
			continue
		}
		if filter != nil {
			if filter.VerificationMethod != "" && e.VerificationMethod != filter.VerificationMethod {
				continue
			}
			if filter.Status != "" && e.Status != filter.Status {
				continue
			}
			if filter.Start != nil && e.Timestamp.Before(*filter.Start) {
				continue
			}
			if filter.End != nil && e.Timestamp.After(*filter.End) {
				continue
			}
		}
		result = append(result, *e)
	}
	return result, nil
}

func (m *mockAttendanceRepo) FindForWindow(_ context.Context, studentID string, courseID int64, start, end time.Time) (*model.AttendanceEvent, error) {
	var latest *model.AttendanceEvent
	for id := int64(1); id < m.nextID; id++ {
		e, ok := m.events[id]
		if !ok || e.StudentID != studentID || e.CourseID != courseID {
			continue
		}
		if e.Timestamp.Before(start) || !e.Timestamp.Before(end) {
			continue
		}
		latest = e
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *latest
	return &copied, nil
}

func (m *mockAttendanceRepo) Update(_ context.Context, event *model.AttendanceEvent) error {
	if _, ok := m.events[event.EventID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *event
	m.events[event.EventID] = &stored
	return nil
}

func (m *mockAttendanceRepo) UpdateStatus(_ context.Context, id int64, status string, notes *string) error {
	e, ok := m.events[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.Status = status
	e.Notes = notes
	e.RequiresManualReview = false
	return nil
}

// ── 测试辅助 ──

func newMockRepository() *repository.Repository {
	return &repository.Repository{
		User:        newMockUserRepo(),
		Course:      newMockCourseRepo(),
		Calibration: newMockCalibrationRepo(),
		Enrollment:  newMockEnrollmentRepo(),
		Attendance:  newMockAttendanceRepo(),
	}
}
