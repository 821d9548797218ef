package cli

import (
	"context"
	"fmt"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/monitor"
)

// Logout завершает сессию: сервер уведомляется best effort,
// локальные данные удаляются всегда
func (c *Cli) Logout(ctx context.Context) error {
	c.io.Println("=== Logout ===")

	ctrl := c.newController(monitor.DefaultConfig(), nil, nil)
	defer ctrl.Close()

	if err := ctrl.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	c.io.Println("✓ Logout successful!")
	c.io.Println("Your local session has been deleted.")

	return nil
}
