// Package report builds the activity-log and attendance spreadsheets.
package report

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// workingDaySeconds is the ideal daily working time attendance rows are
// measured against.
const workingDaySeconds = 7 * 3600

// AttendanceRow is one user-day of aggregated attendance.
type AttendanceRow struct {
	UserName      string
	Day           string
	FirstActivity time.Time
	LastActivity  time.Time
	IdleBreaks    int
	ManualBreaks  int
	TotalSeconds  int
	DeductSeconds int
	ExtraSeconds  int
}

// ActivityRow is one classified activity entry for the admin report.
type ActivityRow struct {
	UserName       string
	Email          string
	Timestamp      time.Time
	ActivityType   string
	Note           string
	ScreenshotPath string
}

// Service reads report data and writes spreadsheets to outDir.
type Service struct {
	db     *sql.DB
	outDir string
}

// NewService creates a report service.
func NewService(db *sql.DB, outDir string) *Service {
	return &Service{db: db, outDir: outDir}
}

// Attendance aggregates per user per day between two days inclusive.
// An empty userID covers all users.
func (s *Service) Attendance(ctx context.Context, userID string, from, to time.Time) ([]AttendanceRow, error) {
	query := `
		SELECT u.full_name, date(a.ts) AS day, MIN(a.ts), MAX(a.ts),
			SUM(CASE WHEN a.is_idle = 1 AND a.is_break = 1 THEN 1 ELSE 0 END),
			SUM(CASE WHEN a.is_break = 1 AND a.is_idle = 0 THEN 1 ELSE 0 END)
		FROM users u
		JOIN activity a ON a.user_id = u.id
		WHERE date(a.ts) >= date(?) AND date(a.ts) <= date(?)`
	args := []any{from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339)}
	if userID != "" {
		query += ` AND u.id = ?`
		args = append(args, userID)
	}
	query += ` GROUP BY u.id, u.full_name, date(a.ts) ORDER BY u.full_name, day DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying attendance: %w", err)
	}
	defer rows.Close()

	var result []AttendanceRow
	for rows.Next() {
		var (
			row     AttendanceRow
			firstTs string
			lastTs  string
		)
		if err := rows.Scan(&row.UserName, &row.Day, &firstTs, &lastTs, &row.IdleBreaks, &row.ManualBreaks); err != nil {
			return nil, fmt.Errorf("scanning attendance row: %w", err)
		}
		if row.FirstActivity, err = time.Parse(time.RFC3339, firstTs); err != nil {
			return nil, fmt.Errorf("parsing first activity: %w", err)
		}
		if row.LastActivity, err = time.Parse(time.RFC3339, lastTs); err != nil {
			return nil, fmt.Errorf("parsing last activity: %w", err)
		}
		row.TotalSeconds = int(row.LastActivity.Sub(row.FirstActivity) / time.Second)
		if row.TotalSeconds > workingDaySeconds {
			row.ExtraSeconds = row.TotalSeconds - workingDaySeconds
		} else {
			row.DeductSeconds = workingDaySeconds - row.TotalSeconds
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating attendance: %w", err)
	}
	return result, nil
}

// Activities returns classified activity entries between two days
// inclusive, newest first. An empty userID covers all users.
func (s *Service) Activities(ctx context.Context, userID string, from, to time.Time) ([]ActivityRow, error) {
	query := `
		SELECT u.full_name, u.email, a.ts, a.is_idle, a.is_break,
			COALESCE(a.note, ''), COALESCE(a.screenshot_path, '')
		FROM users u
		JOIN activity a ON a.user_id = u.id
		WHERE date(a.ts) >= date(?) AND date(a.ts) <= date(?)`
	args := []any{from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339)}
	if userID != "" {
		query += ` AND u.id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY a.ts DESC, a.id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying activities: %w", err)
	}
	defer rows.Close()

	var result []ActivityRow
	for rows.Next() {
		var (
			row     ActivityRow
			ts      string
			isIdle  bool
			isBreak bool
		)
		if err := rows.Scan(&row.UserName, &row.Email, &ts, &isIdle, &isBreak, &row.Note, &row.ScreenshotPath); err != nil {
			return nil, fmt.Errorf("scanning activity row: %w", err)
		}
		if row.Timestamp, err = time.Parse(time.RFC3339, ts); err != nil {
			return nil, fmt.Errorf("parsing activity ts: %w", err)
		}
		row.ActivityType = classifyActivity(isIdle, isBreak)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activities: %w", err)
	}
	return result, nil
}

func classifyActivity(isIdle, isBreak bool) string {
	switch {
	case isIdle && isBreak:
		return "Idle Break"
	case isBreak:
		return "Manual Break"
	case isIdle:
		return "Idle"
	default:
		return "Work"
	}
}

// formatSeconds renders h:mm:ss.
func formatSeconds(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

func sanitizeName(name string) string {
	return strings.Join(strings.Fields(name), "_")
}
