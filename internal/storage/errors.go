package storage

import "errors"

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken indicates a registration reused an existing email.
	ErrEmailTaken = errors.New("user already exists")

	// ErrInvalidCredentials covers unknown email and bad password alike,
	// so login failures do not reveal which part was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountInactive indicates the account has been deactivated.
	ErrAccountInactive = errors.New("account is deactivated")
)
