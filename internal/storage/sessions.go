package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is one login-to-logout span.
type Session struct {
	ID         string
	UserID     string
	LoginTime  time.Time
	LogoutTime *time.Time
}

// SessionRepo manages session rows. Sessions are never deleted, only
// closed.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo creates a SessionRepo.
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create opens a session and returns its assigned id.
func (r *SessionRepo) Create(ctx context.Context, userID string, loginTime time.Time) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, login_time) VALUES (?, ?, ?)`,
		id, userID, loginTime.UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("inserting session: %w", err)
	}
	return id, nil
}

// Close stamps the logout time on an open session.
func (r *SessionRepo) Close(ctx context.Context, id string, logoutTime time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET logout_time = ? WHERE id = ?`,
		logoutTime.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("closing session: %w", err)
	}
	return requireRow(result)
}

// Get returns one session.
func (r *SessionRepo) Get(ctx context.Context, id string) (Session, error) {
	var (
		session    Session
		loginTime  string
		logoutTime sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, login_time, logout_time FROM sessions WHERE id = ?`, id).
		Scan(&session.ID, &session.UserID, &loginTime, &logoutTime)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("getting session: %w", err)
	}

	if session.LoginTime, err = time.Parse(time.RFC3339, loginTime); err != nil {
		return Session{}, fmt.Errorf("parsing login_time: %w", err)
	}
	if logoutTime.Valid {
		parsed, err := time.Parse(time.RFC3339, logoutTime.String)
		if err != nil {
			return Session{}, fmt.Errorf("parsing logout_time: %w", err)
		}
		session.LogoutTime = &parsed
	}
	return session, nil
}
