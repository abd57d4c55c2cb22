package storage

import (
	"context"
	"database/sql"
	"time"

	"timetracker/internal/core/tracker"
)

// TrackerStore bundles the session and activity repos behind the core's
// persistence interface.
type TrackerStore struct {
	sessions *SessionRepo
	activity *ActivityRepo
}

// NewTrackerStore creates the tracker.Store implementation.
func NewTrackerStore(db *sql.DB) *TrackerStore {
	return &TrackerStore{
		sessions: NewSessionRepo(db),
		activity: NewActivityRepo(db),
	}
}

func (s *TrackerStore) CreateSession(ctx context.Context, userID string, loginTime time.Time) (string, error) {
	return s.sessions.Create(ctx, userID, loginTime)
}

func (s *TrackerStore) CloseSession(ctx context.Context, sessionID string, logoutTime time.Time) error {
	return s.sessions.Close(ctx, sessionID, logoutTime)
}

func (s *TrackerStore) AppendActivity(ctx context.Context, record tracker.Record) error {
	return s.activity.Append(ctx, record)
}
