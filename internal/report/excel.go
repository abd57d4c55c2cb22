package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"timetracker/internal/core/tracker"
	"timetracker/internal/storage"
)

// ErrNoData indicates a report query returned nothing to export.
var ErrNoData = errors.New("no data available for export")

var headerStyle = &excelize.Style{
	Font:      &excelize.Font{Bold: true, Color: "1F2937"},
	Fill:      excelize.Fill{Type: "pattern", Color: []string{"E5E7EB"}, Pattern: 1},
	Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
}

// ExportSessionActivity writes one session's activity log to an xlsx file
// named after the user and session, returning the path. Implements
// tracker.Exporter for the logout side effect.
func (s *Service) ExportSessionActivity(ctx context.Context, userID, sessionID string) (string, error) {
	var fullName string
	err := s.db.QueryRowContext(ctx, `SELECT full_name FROM users WHERE id = ?`, userID).Scan(&fullName)
	if err != nil {
		fullName = "user_" + userID
	}

	records, err := storage.NewActivityRepo(s.db).ListBySession(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", ErrNoData
	}

	file := excelize.NewFile()
	defer file.Close()
	sheet := "Activity Log"
	if err := file.SetSheetName("Sheet1", sheet); err != nil {
		return "", fmt.Errorf("naming sheet: %w", err)
	}

	headers := []string{"Timestamp", "Idle", "Break", "Screenshot Path", "Note"}
	widths := []float64{25, 10, 10, 60, 30}
	if err := writeHeader(file, sheet, headers, widths); err != nil {
		return "", err
	}

	for i, record := range records {
		row := i + 2
		setRow(file, sheet, row,
			record.Timestamp.Format("2006-01-02 15:04:05"),
			yesNo(record.IsIdle),
			yesNo(record.IsBreak),
			record.ScreenshotPath,
			record.Note,
		)
	}

	path := filepath.Join(s.outDir, fmt.Sprintf("ActivityLog_%s_%s.xlsx", sanitizeName(fullName), sessionID))
	if err := s.save(file, path); err != nil {
		return "", err
	}
	return path, nil
}

// ExportAttendance writes the per-user-per-day attendance report.
func (s *Service) ExportAttendance(ctx context.Context, userID string, from, to time.Time) (string, error) {
	rows, err := s.Attendance(ctx, userID, from, to)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", ErrNoData
	}

	file := excelize.NewFile()
	defer file.Close()
	sheet := "Attendance Report"
	if err := file.SetSheetName("Sheet1", sheet); err != nil {
		return "", fmt.Errorf("naming sheet: %w", err)
	}

	headers := []string{
		"Username", "Date", "Login", "Logout", "Idle Break", "Manual Break",
		"Working Ideal Limit (7h)", "Deduct", "Extra Hours", "Total Hours",
	}
	widths := []float64{20, 12, 20, 20, 12, 12, 20, 12, 12, 12}
	if err := writeHeader(file, sheet, headers, widths); err != nil {
		return "", err
	}

	for i, row := range rows {
		rowNum := i + 2
		setRow(file, sheet, rowNum,
			row.UserName,
			row.Day,
			row.FirstActivity.Format("2006-01-02 15:04:05"),
			row.LastActivity.Format("2006-01-02 15:04:05"),
			row.IdleBreaks,
			row.ManualBreaks,
			"7:00:00",
			formatSeconds(row.DeductSeconds),
			formatSeconds(row.ExtraSeconds),
			formatSeconds(row.TotalSeconds),
		)
		if err := s.colorTotalHours(file, sheet, rowNum, row.TotalSeconds); err != nil {
			return "", err
		}
	}

	path := filepath.Join(s.outDir,
		fmt.Sprintf("TimeTracker_Attendance_Report_%s.xlsx", time.Now().Format("2006-01-02_15-04-05")))
	if err := s.save(file, path); err != nil {
		return "", err
	}
	return path, nil
}

// ExportActivities writes the classified activity report.
func (s *Service) ExportActivities(ctx context.Context, userID string, from, to time.Time) (string, error) {
	rows, err := s.Activities(ctx, userID, from, to)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", ErrNoData
	}

	file := excelize.NewFile()
	defer file.Close()
	sheet := "Activity Log"
	if err := file.SetSheetName("Sheet1", sheet); err != nil {
		return "", fmt.Errorf("naming sheet: %w", err)
	}

	headers := []string{"User Name", "Email", "Timestamp", "Activity Type", "Note", "Screenshot Path"}
	widths := []float64{25, 30, 25, 15, 30, 50}
	if err := writeHeader(file, sheet, headers, widths); err != nil {
		return "", err
	}

	for i, row := range rows {
		setRow(file, sheet, i+2,
			row.UserName,
			row.Email,
			row.Timestamp.Format("2006-01-02 15:04:05"),
			row.ActivityType,
			row.Note,
			row.ScreenshotPath,
		)
	}

	path := filepath.Join(s.outDir,
		fmt.Sprintf("TimeTracker_ActivityLog_Report_%s.xlsx", time.Now().Format("2006-01-02_15-04-05")))
	if err := s.save(file, path); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Service) colorTotalHours(file *excelize.File, sheet string, row, totalSeconds int) error {
	color := "DC2626"
	switch {
	case totalSeconds >= workingDaySeconds:
		color = "16A34A"
	case totalSeconds >= 6*3600:
		color = "D97706"
	}
	style, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("creating total-hours style: %w", err)
	}
	cell, err := excelize.CoordinatesToCellName(10, row)
	if err != nil {
		return fmt.Errorf("resolving total-hours cell: %w", err)
	}
	if err := file.SetCellStyle(sheet, cell, cell, style); err != nil {
		return fmt.Errorf("styling total-hours cell: %w", err)
	}
	return nil
}

func (s *Service) save(file *excelize.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report dir: %w", err)
	}
	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func writeHeader(file *excelize.File, sheet string, headers []string, widths []float64) error {
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("resolving header cell: %w", err)
		}
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
		column := cell[:len(cell)-1]
		if err := file.SetColWidth(sheet, column, column, widths[i]); err != nil {
			return fmt.Errorf("setting column width: %w", err)
		}
	}

	style, err := file.NewStyle(headerStyle)
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	firstCell, _ := excelize.CoordinatesToCellName(1, 1)
	lastCell, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := file.SetCellStyle(sheet, firstCell, lastCell, style); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}
	if err := file.AutoFilter(sheet, firstCell+":"+lastCell, nil); err != nil {
		return fmt.Errorf("setting auto filter: %w", err)
	}
	if err := file.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freezing header row: %w", err)
	}
	return nil
}

func setRow(file *excelize.File, sheet string, row int, values ...any) {
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			continue
		}
		_ = file.SetCellValue(sheet, cell, value)
	}
}

func yesNo(flag bool) string {
	if flag {
		return "Yes"
	}
	return "No"
}

var _ tracker.Exporter = (*Service)(nil)
