package cli

import (
	"context"
	"fmt"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/models"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/validation"
	pkgapi "github.com/Tychelis/virtual-tutor-system-sub001/pkg/api"
)

// Register создает новую учетную запись через одноразовый код подтверждения
func (c *Cli) Register(ctx context.Context) error {
	c.io.Println("=== Register ===")
	c.io.Println("")

	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}
	if err := validation.ValidateEmail(email); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}

	// Запрашиваем код подтверждения
	c.io.Println("Requesting verification code...")
	if _, err := c.apiClient.SendVerification(ctx, pkgapi.SendVerificationRequest{
		Email:   email,
		Purpose: models.PurposeRegister,
	}); err != nil {
		return err
	}
	c.io.Println("A verification code has been sent to your email.")
	c.io.Println("")

	code, err := c.io.ReadInput("Verification code: ")
	if err != nil {
		return fmt.Errorf("failed to read code: %w", err)
	}

	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	if err := validation.ValidateUsername(username); err != nil {
		return fmt.Errorf("invalid username: %w", err)
	}

	role, err := c.io.ReadInput("Role (student/tutor) [student]: ")
	if err != nil {
		return fmt.Errorf("failed to read role: %w", err)
	}
	if role == "" {
		role = string(models.RoleStudent)
	}

	password, err := c.readNewPassword()
	if err != nil {
		return err
	}

	c.io.Println("")
	c.io.Println("Registering...")

	resp, err := c.apiClient.Register(ctx, pkgapi.RegisterRequest{
		Email:    email,
		Username: username,
		Password: password,
		Code:     code,
		Role:     role,
	})
	if err != nil {
		return err
	}

	c.io.Println("")
	c.io.Println("✓ Registration successful!")
	c.io.Printf("User ID: %s\n", resp.UserID)
	c.io.Println("Run 'tutor-client login' to sign in.")

	return nil
}

// readNewPassword читает пароль дважды и проверяет совпадение
func (c *Cli) readNewPassword() (string, error) {
	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return "", fmt.Errorf("invalid password: %w", err)
	}

	confirm, err := c.io.ReadPassword("Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password confirmation: %w", err)
	}
	if password != confirm {
		return "", fmt.Errorf("passwords do not match")
	}

	return password, nil
}
