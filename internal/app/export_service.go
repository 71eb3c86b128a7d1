// internal/app/export_service.go
package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"member_attendance_bot/internal/domain/attendance"
	"member_attendance_bot/internal/domain/member"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// Custom application-level errors for report export
var ErrReportEmpty = errors.New("no attendance records in the requested range")

var reportHeader = []string{"ID", "Штрихкод", "Имя", "Время", "Направление", "Автовыход", "Требует проверки"}

// ExportService renders attendance reports over a date range, joined with
// member names, as CSV or XLSX for the admin surface.
type ExportService struct {
	attRepo    attendance.Repository
	memberRepo member.Repository
	logger     *logrus.Entry
}

func NewExportService(ar attendance.Repository, mr member.Repository, logger *logrus.Entry) *ExportService {
	return &ExportService{attRepo: ar, memberRepo: mr, logger: logger}
}

// reportRows loads the range and resolves member names. The members table is
// small enough to load whole rather than per-record.
func (s *ExportService) reportRows(ctx context.Context, from, to time.Time) ([][]string, error) {
	records, err := s.attRepo.ListRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance records for report: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrReportEmpty
	}

	members, err := s.memberRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load members for report: %w", err)
	}
	byID := make(map[int64]*member.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		barcode, name := "", ""
		if m, ok := byID[rec.MemberID]; ok {
			barcode, name = m.Barcode, m.DisplayName()
		}
		direction := "выход"
		if rec.IsCheckIn {
			direction = "вход"
		}
		rows = append(rows, []string{
			strconv.FormatInt(rec.ID, 10),
			barcode,
			name,
			rec.ScanTime.Format("2006-01-02 15:04"),
			direction,
			yesNo(rec.IsAutoLogout),
			yesNo(rec.NeedsReview),
		})
	}
	return rows, nil
}

func yesNo(b bool) string {
	if b {
		return "да"
	}
	return ""
}

// ReportCSV renders the range as CSV. Returns the content and a suggested
// file name.
func (s *ExportService) ReportCSV(ctx context.Context, from, to time.Time) (*bytes.Buffer, string, error) {
	rows, err := s.reportRows(ctx, from, to)
	if err != nil {
		return nil, "", err
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(reportHeader); err != nil {
		return nil, "", fmt.Errorf("failed to write report header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, "", fmt.Errorf("failed to write report row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", fmt.Errorf("failed to flush report: %w", err)
	}

	s.logger.WithField("rows", len(rows)).Info("CSV attendance report generated")
	return buf, reportFileName(from, to, "csv"), nil
}

// ReportXLSX renders the range as an Excel workbook.
func (s *ExportService) ReportXLSX(ctx context.Context, from, to time.Time) (*bytes.Buffer, string, error) {
	rows, err := s.reportRows(ctx, from, to)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Посещения"
	f.SetSheetName("Sheet1", sheet)

	for col, title := range reportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, "", fmt.Errorf("failed to write report header: %w", err)
		}
	}
	for i, row := range rows {
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, "", fmt.Errorf("failed to write report row: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to render xlsx report: %w", err)
	}

	s.logger.WithField("rows", len(rows)).Info("XLSX attendance report generated")
	return buf, reportFileName(from, to, "xlsx"), nil
}

func reportFileName(from, to time.Time, ext string) string {
	return fmt.Sprintf("attendance_%s_%s.%s", from.Format("2006-01-02"), to.Format("2006-01-02"), ext)
}
