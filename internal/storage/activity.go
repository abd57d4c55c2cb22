package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"timetracker/internal/core/tracker"
)

// ActivityRepo appends and reads activity records. Rows are immutable;
// readers order by (ts, id) so same-second records keep submission order.
type ActivityRepo struct {
	db *sql.DB
}

// NewActivityRepo creates an ActivityRepo.
func NewActivityRepo(db *sql.DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

// Append persists one record.
func (r *ActivityRepo) Append(ctx context.Context, record tracker.Record) error {
	var path any
	if record.ScreenshotPath != "" {
		path = record.ScreenshotPath
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO activity (user_id, session_id, ts, is_idle, is_break, screenshot_path, note)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.UserID, record.SessionID, record.Timestamp.UTC().Format(time.RFC3339),
		record.IsIdle, record.IsBreak, path, record.Note)
	if err != nil {
		return fmt.Errorf("inserting activity: %w", err)
	}
	return nil
}

// ListBySession returns all records of one session in submission order.
func (r *ActivityRepo) ListBySession(ctx context.Context, sessionID string) ([]tracker.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, session_id, ts, is_idle, is_break, screenshot_path, note
		FROM activity WHERE session_id = ? ORDER BY ts ASC, id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing session activity: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListByUserRange returns a user's records between two days inclusive, in
// submission order.
func (r *ActivityRepo) ListByUserRange(ctx context.Context, userID string, from, to time.Time) ([]tracker.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, session_id, ts, is_idle, is_break, screenshot_path, note
		FROM activity
		WHERE user_id = ? AND date(ts) >= date(?) AND date(ts) <= date(?)
		ORDER BY ts ASC, id ASC`,
		userID, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("listing activity range: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]tracker.Record, error) {
	var records []tracker.Record
	for rows.Next() {
		var (
			record tracker.Record
			ts     string
			path   sql.NullString
			note   sql.NullString
		)
		if err := rows.Scan(&record.UserID, &record.SessionID, &ts, &record.IsIdle, &record.IsBreak, &path, &note); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing activity ts: %w", err)
		}
		record.Timestamp = parsed
		record.ScreenshotPath = path.String
		record.Note = note.String
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity: %w", err)
	}
	return records, nil
}
