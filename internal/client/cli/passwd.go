package cli

import (
	"context"
	"fmt"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/models"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/validation"
	pkgapi "github.com/Tychelis/virtual-tutor-system-sub001/pkg/api"
)

// Passwd меняет пароль по коду подтверждения.
// Сервер отзывает все выданные токены, поэтому локальная сессия
// после успешной смены тоже очищается.
func (c *Cli) Passwd(ctx context.Context) error {
	c.io.Println("=== Change Password ===")
	c.io.Println("")

	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}
	if err := validation.ValidateEmail(email); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}

	c.io.Println("Requesting verification code...")
	if _, err := c.apiClient.SendVerification(ctx, pkgapi.SendVerificationRequest{
		Email:   email,
		Purpose: models.PurposeUpdatePassword,
	}); err != nil {
		return err
	}
	c.io.Println("A verification code has been sent to your email.")
	c.io.Println("")

	code, err := c.io.ReadInput("Verification code: ")
	if err != nil {
		return fmt.Errorf("failed to read code: %w", err)
	}

	password, err := c.readNewPassword()
	if err != nil {
		return err
	}

	if err := c.apiClient.UpdatePassword(ctx, pkgapi.UpdatePasswordRequest{
		Code:        code,
		NewPassword: password,
	}); err != nil {
		return err
	}

	// Все токены отозваны сервером; чистим локальную сессию
	if err := c.store.ClearAuth(ctx); err != nil {
		c.logger.Warn("failed to clear local session", "error", err)
	}

	c.io.Println("")
	c.io.Println("✓ Password changed!")
	c.io.Println("All sessions have been signed out. Run 'tutor-client login' to sign in again.")

	return nil
}
