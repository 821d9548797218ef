package cli

import (
	"context"
	"fmt"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/monitor"
)

// Login выполняет вход и сохраняет сессию локально
func (c *Cli) Login(ctx context.Context) error {
	c.io.Println("=== Login ===")
	c.io.Println("")

	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	c.io.Println("")
	c.io.Println("Authenticating...")

	ctrl := c.newController(monitor.DefaultConfig(), nil, nil)
	defer ctrl.Close()

	if err := ctrl.Login(ctx, email, password); err != nil {
		return err
	}

	user, err := c.store.User(ctx)
	if err != nil {
		return fmt.Errorf("failed to read stored profile: %w", err)
	}

	c.io.Println("")
	c.io.Println("✓ Login successful!")
	if user != nil {
		c.io.Printf("Signed in as: %s (%s)\n", user.Username, user.Role)
	}
	c.io.Println("Your session has been saved.")

	return nil
}
