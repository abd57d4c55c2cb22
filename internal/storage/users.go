package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"timetracker/internal/core/tracker"
)

// User is a stored account row.
type User struct {
	ID            string
	FullName      string
	Email         string
	IsAdmin       bool
	IsActive      bool
	CreatedAt     time.Time
	LastLogin     *time.Time
	DeactivatedAt *time.Time
}

// UserRepo manages account rows and implements tracker.Authenticator.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Register creates an account with a bcrypt-hashed password.
func (r *UserRepo) Register(ctx context.Context, fullName, email, password string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hashing password: %w", err)
	}

	user := User{
		ID:        uuid.NewString(),
		FullName:  fullName,
		Email:     email,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	query := `INSERT INTO users (id, full_name, email, password_hash, is_admin, is_active, created_at)
		VALUES (?, ?, ?, ?, 0, 1, ?)`
	_, err = r.db.ExecContext(ctx, query, user.ID, user.FullName, user.Email, string(hash), user.CreatedAt.Format(time.RFC3339))
	if err != nil {
		var exists int
		if lookupErr := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&exists); lookupErr == nil && exists > 0 {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("inserting user: %w", err)
	}
	return user, nil
}

// Authenticate validates credentials and stamps last_login. It rejects
// inactive accounts and returns one generic error for unknown email or
// bad password.
func (r *UserRepo) Authenticate(ctx context.Context, email, password string) (tracker.User, error) {
	query := `SELECT id, full_name, email, password_hash, is_admin, is_active FROM users WHERE email = ?`
	var (
		user tracker.User
		hash string
	)
	err := r.db.QueryRowContext(ctx, query, email).Scan(&user.ID, &user.FullName, &user.Email, &hash, &user.IsAdmin, &user.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return tracker.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return tracker.User{}, fmt.Errorf("looking up user: %w", err)
	}

	if !user.IsActive {
		return tracker.User{}, ErrAccountInactive
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return tracker.User{}, ErrInvalidCredentials
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, now, user.ID); err != nil {
		return tracker.User{}, fmt.Errorf("stamping last login: %w", err)
	}

	return user, nil
}

// GetByID returns one account.
func (r *UserRepo) GetByID(ctx context.Context, id string) (User, error) {
	query := `SELECT id, full_name, email, is_admin, is_active, created_at, last_login, deactivated_at
		FROM users WHERE id = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// List returns one page of accounts, newest first, optionally filtered by
// a name/email search term. Returns the page plus the matching total.
func (r *UserRepo) List(ctx context.Context, page, limit int, search string) ([]User, int, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	offset := (page - 1) * limit

	where := ""
	args := []any{}
	if search != "" {
		where = ` WHERE full_name LIKE ? OR email LIKE ?`
		term := "%" + search + "%"
		args = append(args, term, term)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}

	query := `SELECT id, full_name, email, is_admin, is_active, created_at, last_login, deactivated_at
		FROM users` + where + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := r.scanUserRow(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating users: %w", err)
	}
	return users, total, nil
}

// Update changes profile and role fields.
func (r *UserRepo) Update(ctx context.Context, id, fullName, email string, isAdmin bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET full_name = ?, email = ?, is_admin = ? WHERE id = ?`,
		fullName, email, isAdmin, id)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return requireRow(result)
}

// SetActive activates or deactivates an account, stamping deactivated_at.
func (r *UserRepo) SetActive(ctx context.Context, id string, active bool) error {
	var deactivatedAt any
	if !active {
		deactivatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_active = ?, deactivated_at = ? WHERE id = ?`,
		active, deactivatedAt, id)
	if err != nil {
		return fmt.Errorf("toggling user status: %w", err)
	}
	return requireRow(result)
}

// Delete removes an account.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return requireRow(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepo) scanUser(row *sql.Row) (User, error) {
	user, err := r.scanUserRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return user, err
}

func (r *UserRepo) scanUserRow(row rowScanner) (User, error) {
	var (
		user          User
		createdAt     string
		lastLogin     sql.NullString
		deactivatedAt sql.NullString
	)
	err := row.Scan(&user.ID, &user.FullName, &user.Email, &user.IsAdmin, &user.IsActive, &createdAt, &lastLogin, &deactivatedAt)
	if err != nil {
		return User{}, err
	}
	if user.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return User{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if lastLogin.Valid {
		parsed, err := time.Parse(time.RFC3339, lastLogin.String)
		if err != nil {
			return User{}, fmt.Errorf("parsing last_login: %w", err)
		}
		user.LastLogin = &parsed
	}
	if deactivatedAt.Valid {
		parsed, err := time.Parse(time.RFC3339, deactivatedAt.String)
		if err != nil {
			return User{}, fmt.Errorf("parsing deactivated_at: %w", err)
		}
		user.DeactivatedAt = &parsed
	}
	return user, nil
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
