package storage

import (
	"context"
	"time"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/models"
)

// TokenStorage defines interface for the access token revocation list.
// Отдельные токены хранятся как SHA256 хеши до истечения их exp; смена
// пароля отзывает все токены пользователя через cutoff по времени выпуска.
type TokenStorage interface {
	// RevokeToken adds a token hash to the revocation list
	// Saving the same hash twice is not an error
	RevokeToken(ctx context.Context, token *models.RevokedToken) error

	// IsRevoked reports whether a token hash is on the revocation list
	IsRevoked(ctx context.Context, tokenHash string) (bool, error)

	// RevokeUserTokens invalidates every token of the user issued before cutoff
	RevokeUserTokens(ctx context.Context, userID string, cutoff time.Time) error

	// UserRevokedAt returns the user's revocation cutoff, if any
	UserRevokedAt(ctx context.Context, userID string) (time.Time, bool, error)

	// DeleteExpiredTokens removes revocation entries whose tokens have expired anyway
	// Returns number of deleted entries
	DeleteExpiredTokens(ctx context.Context) (int, error)
}
