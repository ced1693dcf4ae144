package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kdomac-14/AC215-HARV/internal/dto"
	"github.com/kdomac-14/AC215-HARV/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoEvents     = errors.New("该课程暂无考勤记录")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 考勤表导出为 Excel (.xlsx)，供教师线下归档
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - 第一个 Sheet 为逐条明细，第二个 Sheet 为按学生的到课汇总
type ExportService interface {
	// ExportAttendance 导出课程考勤为 Excel
	ExportAttendance(ctx context.Context, instructorID string, req *dto.AttendanceListRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportAttendance — 导出考勤表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "考勤明细"：每行一条事件（时间、学生、方式、状态、置信度、备注）
//   - Sheet "学生汇总"：每行一个学生（出勤/缺勤/待复核计数）
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportAttendance(ctx context.Context, instructorID string, req *dto.AttendanceListRequest) (*bytes.Buffer, string, error) {
	// 1. 课程归属校验
	course, err := s.repo.Course.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.Int64("course_id", req.CourseID), zap.Error(err))
		return nil, "", err
	}
	if course.ProfessorID != instructorID {
		return nil, "", ErrNotYourOwn
	}

	// 2. 查询考勤事件
	events, err := s.repo.Attendance.ListByCourse(ctx, req.CourseID, &repository.AttendanceFilter{
		VerificationMethod: req.VerificationMethod,
		Status:             req.Status,
		Start:              req.Start,
		End:                req.End,
	})
	if err != nil {
		s.logger.Error("查询考勤事件失败", zap.Int64("course_id", req.CourseID), zap.Error(err))
		return nil, "", err
	}
	if len(events) == 0 {
		return nil, "", ErrExportNoEvents
	}

	methodNames := map[string]string{
		"gps":             "GPS 定位",
		"vision":          "视觉验证",
		"manual_override": "口令兜底",
	}
	statusNames := map[string]string{
		"present":        "出勤",
		"absent":         "缺勤",
		"pending_review": "待复核",
	}

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	detailSheet := "考勤明细"
	idx, _ := f.NewSheet(detailSheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(detailSheet, "A", "A", 8)
	f.SetColWidth(detailSheet, "B", "B", 22)
	f.SetColWidth(detailSheet, "C", "C", 28)
	f.SetColWidth(detailSheet, "D", "F", 12)
	f.SetColWidth(detailSheet, "G", "G", 30)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(detailSheet, "A1", fmt.Sprintf("%s (%s) — 考勤明细", course.Name, course.Code))
	f.MergeCell(detailSheet, "A1", "G1")
	f.SetCellStyle(detailSheet, "A1", "A1", headerStyle)

	// 表头
	headers := []string{"序号", "时间 (UTC)", "学生", "方式", "状态", "置信度", "备注"}
	for i, h := range headers {
		f.SetCellValue(detailSheet, cell(colName(i), 2), h)
	}

	// 数据行 + 汇总统计
	type tally struct{ present, absent, pending int }
	perStudent := make(map[string]*tally)
	var studentOrder []string

	row := 3
	for i := range events {
		ev := &events[i]

		f.SetCellValue(detailSheet, cell("A", row), row-2)
		f.SetCellValue(detailSheet, cell("B", row), ev.Timestamp.UTC().Format(time.RFC3339))
		f.SetCellValue(detailSheet, cell("C", row), ev.StudentID)
		f.SetCellValue(detailSheet, cell("D", row), methodNames[ev.VerificationMethod])
		f.SetCellValue(detailSheet, cell("E", row), statusNames[ev.Status])
		if ev.Confidence != nil {
			f.SetCellValue(detailSheet, cell("F", row), fmt.Sprintf("%.2f", *ev.Confidence))
		} else {
			f.SetCellValue(detailSheet, cell("F", row), "-")
		}
		if ev.Notes != nil {
			f.SetCellValue(detailSheet, cell("G", row), *ev.Notes)
		}
		row++

		t, ok := perStudent[ev.StudentID]
		if !ok {
			t = &tally{}
			perStudent[ev.StudentID] = t
			studentOrder = append(studentOrder, ev.StudentID)
		}
		switch ev.Status {
		case "present":
			t.present++
		case "absent":
			t.absent++
		default:
			t.pending++
		}
	}

	// 4. 学生汇总 Sheet
	summarySheet := "学生汇总"
	f.NewSheet(summarySheet)
	f.SetColWidth(summarySheet, "A", "A", 28)
	f.SetColWidth(summarySheet, "B", "D", 10)

	sumHeaders := []string{"学生", "出勤", "缺勤", "待复核"}
	for i, h := range sumHeaders {
		f.SetCellValue(summarySheet, cell(colName(i), 1), h)
	}
	row = 2
	for _, sid := range studentOrder {
		t := perStudent[sid]
		f.SetCellValue(summarySheet, cell("A", row), sid)
		f.SetCellValue(summarySheet, cell("B", row), t.present)
		f.SetCellValue(summarySheet, cell("C", row), t.absent)
		f.SetCellValue(summarySheet, cell("D", row), t.pending)
		row++
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("考勤表_%s.xlsx", course.Code)
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
