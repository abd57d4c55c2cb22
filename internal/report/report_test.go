package report

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetracker/internal/core/tracker"
	"timetracker/internal/storage"
	"timetracker/internal/testutil"
)

func seedTrackedDay(t *testing.T, svc *Service) (userID, sessionID string) {
	t.Helper()
	ctx := context.Background()

	user, err := storage.NewUserRepo(svc.db).Register(ctx, "Jess Doe", "jess@example.com", "pw")
	require.NoError(t, err)

	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	sessionID, err = storage.NewSessionRepo(svc.db).Create(ctx, user.ID, start)
	require.NoError(t, err)

	activity := storage.NewActivityRepo(svc.db)
	records := []tracker.Record{
		{Timestamp: start, ScreenshotPath: "/shots/a.png", Note: tracker.NoteAutoScreenshot},
		{Timestamp: start.Add(time.Hour), IsIdle: true, IsBreak: true, Note: tracker.NoteIdleBreakStart},
		{Timestamp: start.Add(time.Hour + 5*time.Minute), IsBreak: true, Note: tracker.NoteIdleBreakStop},
		{Timestamp: start.Add(2 * time.Hour), IsBreak: true, Note: tracker.NoteManualBreakStart},
		{Timestamp: start.Add(2*time.Hour + 30*time.Minute), IsBreak: true, Note: tracker.NoteManualBreakStop},
		{Timestamp: start.Add(6 * time.Hour), ScreenshotPath: "/shots/b.png", Note: tracker.NoteAutoScreenshot},
	}
	for _, record := range records {
		record.UserID = user.ID
		record.SessionID = sessionID
		require.NoError(t, activity.Append(ctx, record))
	}
	return user.ID, sessionID
}

func TestAttendanceAggregation(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewService(db, t.TempDir())
	userID, _ := seedTrackedDay(t, svc)

	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	rows, err := svc.Attendance(context.Background(), userID, from, from)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "Jess Doe", row.UserName)
	assert.Equal(t, "2025-03-10", row.Day)
	assert.Equal(t, 1, row.IdleBreaks, "only the idle start carries both flags")
	assert.Equal(t, 3, row.ManualBreaks, "break records without the idle flag")
	assert.Equal(t, 6*3600, row.TotalSeconds)
	assert.Equal(t, 3600, row.DeductSeconds, "an hour short of the 7h ideal")
	assert.Zero(t, row.ExtraSeconds)
}

func TestAttendanceOvertime(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewService(db, t.TempDir())
	ctx := context.Background()

	user, err := storage.NewUserRepo(db).Register(ctx, "Sam Lee", "sam@example.com", "pw")
	require.NoError(t, err)
	start := time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC)
	sessionID, err := storage.NewSessionRepo(db).Create(ctx, user.ID, start)
	require.NoError(t, err)

	activity := storage.NewActivityRepo(db)
	require.NoError(t, activity.Append(ctx, tracker.Record{
		UserID: user.ID, SessionID: sessionID, Timestamp: start, Note: tracker.NoteAutoScreenshot,
	}))
	require.NoError(t, activity.Append(ctx, tracker.Record{
		UserID: user.ID, SessionID: sessionID, Timestamp: start.Add(9 * time.Hour), Note: tracker.NoteAutoScreenshot,
	}))

	rows, err := svc.Attendance(ctx, user.ID, start, start)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 9*3600, rows[0].TotalSeconds)
	assert.Equal(t, 2*3600, rows[0].ExtraSeconds)
	assert.Zero(t, rows[0].DeductSeconds)
}

func TestActivitiesClassification(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewService(db, t.TempDir())
	userID, _ := seedTrackedDay(t, svc)

	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	rows, err := svc.Activities(context.Background(), userID, from, from)
	require.NoError(t, err)
	require.Len(t, rows, 6)

	types := map[string]int{}
	for _, row := range rows {
		types[row.ActivityType]++
	}
	assert.Equal(t, 2, types["Work"])
	assert.Equal(t, 1, types["Idle Break"])
	assert.Equal(t, 3, types["Manual Break"])
}

func TestExportSessionActivityWritesWorkbook(t *testing.T) {
	db := testutil.NewTestDB(t)
	outDir := t.TempDir()
	svc := NewService(db, outDir)
	userID, sessionID := seedTrackedDay(t, svc)

	path, err := svc.ExportSessionActivity(context.Background(), userID, sessionID)
	require.NoError(t, err)
	assert.Contains(t, path, "ActivityLog_Jess_Doe_")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestExportSessionActivityNoData(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewService(db, t.TempDir())

	_, err := svc.ExportSessionActivity(context.Background(), "u-missing", "s-missing")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestExportAttendanceWritesWorkbook(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewService(db, t.TempDir())
	userID, _ := seedTrackedDay(t, svc)

	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	path, err := svc.ExportAttendance(context.Background(), userID, from, from)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "0:00:00", formatSeconds(0))
	assert.Equal(t, "2:05:09", formatSeconds(2*3600+5*60+9))
	assert.Equal(t, "0:00:00", formatSeconds(-10))
}
