package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/models"
)

// RevokeToken adds a token hash to the revocation list
func (s *Storage) RevokeToken(ctx context.Context, token *models.RevokedToken) error {
	query := `
		INSERT OR REPLACE INTO revoked_tokens (token_hash, user_id, expires_at, revoked_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		token.TokenHash,
		token.UserID,
		token.ExpiresAt,
		token.RevokedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

// IsRevoked reports whether a token hash is on the revocation list
func (s *Storage) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	query := `SELECT 1 FROM revoked_tokens WHERE token_hash = ?`

	var one int
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}

	return true, nil
}

// RevokeUserTokens invalidates every token of the user issued before cutoff
func (s *Storage) RevokeUserTokens(ctx context.Context, userID string, cutoff time.Time) error {
	query := `
		INSERT INTO user_revocations (user_id, revoked_at)
		VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET revoked_at = excluded.revoked_at
	`

	if _, err := s.db.ExecContext(ctx, query, userID, cutoff); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}

	return nil
}

// UserRevokedAt returns the user's revocation cutoff, if any
func (s *Storage) UserRevokedAt(ctx context.Context, userID string) (time.Time, bool, error) {
	query := `SELECT revoked_at FROM user_revocations WHERE user_id = ?`

	var revokedAt time.Time
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to get user revocation: %w", err)
	}

	return revokedAt, true, nil
}

// DeleteExpiredTokens removes revocation entries whose tokens have expired anyway
func (s *Storage) DeleteExpiredTokens(ctx context.Context) (int, error) {
	query := `DELETE FROM revoked_tokens WHERE expires_at < ?`

	result, err := s.db.ExecContext(ctx, query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}
