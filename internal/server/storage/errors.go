package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this email or username already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrCodeNotFound indicates that verification code was not found or already used
	ErrCodeNotFound = errors.New("verification code not found")

	// ErrTokenRevoked indicates that token has been revoked
	ErrTokenRevoked = errors.New("token revoked")
)
