// Package admin exposes the user management and statistics operations
// available to administrator accounts.
package admin

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"timetracker/internal/storage"
)

// Stats is the dashboard summary shown to administrators.
type Stats struct {
	TotalUsers      int
	ActiveUsers     int
	OpenSessions    int
	TodayActivities int
}

// UserPage is one page of the user listing.
type UserPage struct {
	Users []storage.User
	Total int
	Page  int
	Limit int
}

// Service performs admin operations on top of the storage layer.
type Service struct {
	db    *sql.DB
	users *storage.UserRepo
	now   func() time.Time
}

// NewService creates an admin service.
func NewService(db *sql.DB) *Service {
	return &Service{
		db:    db,
		users: storage.NewUserRepo(db),
		now:   time.Now,
	}
}

// Stats aggregates the counters for the admin dashboard.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	today := s.now().UTC().Format(time.RFC3339)

	queries := []struct {
		query string
		args  []any
		dest  *int
	}{
		{`SELECT COUNT(*) FROM users`, nil, &stats.TotalUsers},
		{`SELECT COUNT(*) FROM users WHERE is_active = 1`, nil, &stats.ActiveUsers},
		{`SELECT COUNT(*) FROM sessions WHERE logout_time IS NULL`, nil, &stats.OpenSessions},
		{`SELECT COUNT(*) FROM activity WHERE date(ts) = date(?)`, []any{today}, &stats.TodayActivities},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query, q.args...).Scan(q.dest); err != nil {
			return Stats{}, fmt.Errorf("counting stats: %w", err)
		}
	}
	return stats, nil
}

// ListUsers returns one page of users matching the optional search term.
func (s *Service) ListUsers(ctx context.Context, page, limit int, search string) (UserPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	users, total, err := s.users.List(ctx, page, limit, search)
	if err != nil {
		return UserPage{}, err
	}
	return UserPage{Users: users, Total: total, Page: page, Limit: limit}, nil
}

// UpdateUser edits a user's profile fields.
func (s *Service) UpdateUser(ctx context.Context, id, fullName, email string, isAdmin bool) error {
	return s.users.Update(ctx, id, fullName, email, isAdmin)
}

// SetUserActive activates or deactivates an account. Deactivated users
// cannot log in until reactivated.
func (s *Service) SetUserActive(ctx context.Context, id string, active bool) error {
	return s.users.SetActive(ctx, id, active)
}

// DeleteUser removes a user together with their sessions and activity.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	return s.users.Delete(ctx, id)
}
