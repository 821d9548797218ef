package storage

import (
	"context"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/models"
)

// CodeStorage defines interface for email verification code persistence
type CodeStorage interface {
	// SaveCode stores a verification code, replacing any previous code
	// for the same email and purpose
	SaveCode(ctx context.Context, code *models.VerificationCode) error

	// ConsumeCode atomically looks up and deletes a code by value and purpose.
	// Returns ErrCodeNotFound if the code doesn't exist or was already used.
	ConsumeCode(ctx context.Context, code, purpose string) (*models.VerificationCode, error)

	// DeleteExpiredCodes removes expired codes
	// Returns number of deleted codes
	DeleteExpiredCodes(ctx context.Context) (int, error)
}
