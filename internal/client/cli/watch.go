package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/expiry"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/monitor"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/prompt"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/session"
)

// Watch следит за сессией в интерактивном режиме: предупреждает перед
// истечением токена и дает продлить наблюдение или выйти.
func (c *Cli) Watch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	warning := fs.Duration("warning", monitor.DefaultConfig().WarningThreshold, "Warn when this much validity remains")
	interval := fs.Duration("interval", monitor.DefaultConfig().PollInterval, "How often to poll the token")
	useStatus := fs.Bool("use-status", false, "Ask the server for token status instead of reading the exp claim")
	failLimit := fs.Int("fail-limit", 0, "Treat N consecutive poll failures as expiry (0 = keep session on failures)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	token, err := c.store.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	if token == "" {
		return fmt.Errorf("not authenticated. Please run 'tutor-client login' first")
	}

	remaining := expiry.FromClaims(c.store)
	if *useStatus {
		remaining = expiry.FromStatus(c.apiClient, c.store)
	}

	snapshots := make(chan prompt.Snapshot, 16)
	signedOut := make(chan struct{}, 1)

	mon := monitor.New(remaining, c.logger)
	ctrl := session.New(c.apiClient, c.store, mon, session.Config{
		Monitor: monitor.Config{
			WarningThreshold: *warning,
			PollInterval:     *interval,
			FailureLimit:     *failLimit,
		},
		OnChange: func(s prompt.Snapshot) {
			select {
			case snapshots <- s:
			default:
			}
		},
		OnSignedOut: func() {
			select {
			case signedOut <- struct{}{}:
			default:
			}
		},
		Logger: c.logger,
	})
	defer ctrl.Close()

	if err := ctrl.Reconcile(ctx); err != nil {
		return fmt.Errorf("failed to start watching: %w", err)
	}

	c.io.Println("Watching session. Commands: d=dismiss warning, l=logout, q=quit")

	// Ввод читается в отдельной горутине, чтобы не блокировать рендер
	input := make(chan string)
	go func() {
		defer close(input)
		for {
			line, err := c.io.ReadInput("")
			if err != nil {
				return
			}
			select {
			case input <- strings.ToLower(strings.TrimSpace(line)):
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-signedOut:
			c.io.Println("Session ended. Goodbye.")
			return nil

		case s := <-snapshots:
			c.renderSnapshot(s)

		case line, ok := <-input:
			if !ok {
				return nil
			}
			switch line {
			case "d":
				if err := ctrl.Prompt().Dismiss(); err != nil {
					c.io.Printf("Cannot dismiss: %v\n", err)
				} else {
					c.io.Println("Warning dismissed, still watching.")
				}
			case "l":
				if err := ctrl.Prompt().Logout(ctx); err != nil {
					c.io.Printf("Logout failed: %v\n", err)
				}
			case "q":
				c.io.Println("Stopped watching. The session stays open.")
				return nil
			case "":
				// пустой Enter игнорируем
			default:
				c.io.Printf("Unknown command %q. Use d, l or q.\n", line)
			}
		}
	}
}

func (c *Cli) renderSnapshot(s prompt.Snapshot) {
	switch s.State {
	case prompt.StateWarning:
		c.io.Printf("⚠️  Session expires in %s. [d]ismiss / [l]ogout\n", s.Remaining.Round(time.Second))
	case prompt.StateExpired:
		c.io.Println("⛔ Session has expired. [l]ogout or quit and login again.")
	case prompt.StateHidden:
		// скрытие подсказки не рисуем отдельно
	}
}
