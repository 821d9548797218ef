package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/expiry"
)

// Status показывает состояние сессии и остаток времени жизни токена
func (c *Cli) Status(ctx context.Context) error {
	c.io.Println("=== Session Status ===")
	c.io.Println("")

	token, err := c.store.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	if token == "" {
		c.io.Println("Status: Not authenticated")
		c.io.Println("")
		c.io.Println("Run 'tutor-client login' to sign in.")
		return nil
	}

	c.io.Println("Status: Authenticated")

	user, err := c.store.User(ctx)
	if err != nil {
		return fmt.Errorf("failed to read stored profile: %w", err)
	}
	if user != nil {
		c.io.Printf("Username:  %s\n", user.Username)
		c.io.Printf("Email:     %s\n", user.Email)
		c.io.Printf("Role:      %s\n", user.Role)
	}

	remaining, err := expiry.FromClaims(c.store)(ctx)
	if err != nil {
		c.io.Printf("Remaining: unknown (%v)\n", err)
		return nil
	}

	if remaining > 0 {
		c.io.Printf("Remaining: %s\n", remaining.Round(time.Second))
	} else {
		c.io.Println("⚠️  Token has expired. Please login again.")
	}

	return nil
}
