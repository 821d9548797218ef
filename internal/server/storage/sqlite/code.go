package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/models"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/server/storage"
)

// SaveCode stores a verification code, replacing any previous code
// for the same email and purpose
func (s *Storage) SaveCode(ctx context.Context, code *models.VerificationCode) error {
	query := `
		INSERT OR REPLACE INTO verification_codes (code, email, purpose, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		code.Code,
		code.Email,
		code.Purpose,
		code.ExpiresAt,
		code.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save verification code: %w", err)
	}

	return nil
}

// ConsumeCode atomically looks up and deletes a code by value and purpose
func (s *Storage) ConsumeCode(ctx context.Context, code, purpose string) (*models.VerificationCode, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		SELECT code, email, purpose, expires_at, created_at
		FROM verification_codes
		WHERE code = ? AND purpose = ?
	`

	vc := &models.VerificationCode{}
	err = tx.QueryRowContext(ctx, query, code, purpose).Scan(
		&vc.Code,
		&vc.Email,
		&vc.Purpose,
		&vc.ExpiresAt,
		&vc.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrCodeNotFound
		}
		return nil, fmt.Errorf("failed to get verification code: %w", err)
	}

	// Код одноразовый: удаляем в той же транзакции
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM verification_codes WHERE email = ? AND purpose = ?`,
		vc.Email, vc.Purpose,
	); err != nil {
		return nil, fmt.Errorf("failed to consume verification code: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return vc, nil
}

// DeleteExpiredCodes removes expired codes
func (s *Storage) DeleteExpiredCodes(ctx context.Context) (int, error) {
	query := `DELETE FROM verification_codes WHERE expires_at < ?`

	result, err := s.db.ExecContext(ctx, query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired codes: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}
