// Package session orchestrates the client session lifecycle: login and
// logout against the Auth API, the shared auth store, the token monitor and
// the expiry prompt. One Controller runs per execution context; all contexts
// share the same store and converge through its change notifications.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/monitor"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/prompt"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/storage"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/models"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/validation"
	pkgapi "github.com/Tychelis/virtual-tutor-system-sub001/pkg/api"
)

//go:generate moq -out api_mock.go . API

// API определяет операции Auth API, которые нужны контроллеру сессии
type API interface {
	// Login обменивает учетные данные на bearer токен
	Login(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.LoginResponse, error)

	// Logout отзывает токен на сервере (best effort)
	Logout(ctx context.Context, token string) error

	// Profile загружает профиль владельца токена
	Profile(ctx context.Context, token string) (*models.UserProfile, error)
}

// Config holds controller wiring
type Config struct {
	// Monitor is the timing policy passed to every monitor start
	Monitor monitor.Config
	// OnChange receives prompt snapshots for the UI, optional
	OnChange func(prompt.Snapshot)
	// OnSignedOut fires when the session ends, including ends observed from
	// another execution context; optional
	OnSignedOut func()
	// Logger for diagnostics; slog.Default() when nil
	Logger *slog.Logger
}

// Controller drives the session lifecycle for one execution context
type Controller struct {
	api         API
	store       storage.AuthStore
	mon         *monitor.Monitor
	prompt      *prompt.Prompt
	monCfg      monitor.Config
	logger      *slog.Logger
	onSignedOut func()

	runCtx    context.Context
	cancelRun context.CancelFunc
	sub       storage.Subscription
	closeOnce sync.Once

	mu     sync.Mutex
	active bool
}

// New creates a controller and subscribes it to store change notifications.
// Подписка освобождается в Close; вызывающий обязан вызвать Close на всех
// путях завершения, включая ошибочные.
func New(apiClient API, store storage.AuthStore, mon *monitor.Monitor, cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	runCtx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		api:         apiClient,
		store:       store,
		mon:         mon,
		monCfg:      cfg.Monitor,
		logger:      logger.With("component", "session"),
		onSignedOut: cfg.OnSignedOut,
		runCtx:      runCtx,
		cancelRun:   cancel,
	}

	c.prompt = prompt.New(prompt.Config{
		OnChange: cfg.OnChange,
		CheckNow: mon.CheckNow,
		Logout:   c.Logout,
		Logger:   logger,
	})

	c.sub = store.Subscribe(c.onStoreChange)

	return c
}

// Prompt returns the expiry prompt so the UI can route user actions
func (c *Controller) Prompt() *prompt.Prompt {
	return c.prompt
}

// Login authenticates against the backend and opens a local session:
// token and profile are stored atomically, then the monitor starts.
// On failure the store is left untouched and a wrapped API error returns.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	if err := validation.ValidateEmail(email); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return fmt.Errorf("invalid password: %w", err)
	}

	resp, err := c.api.Login(ctx, pkgapi.LoginRequest{Email: email, Password: password})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	// Профиль запрашивается отдельно сразу после получения токена
	user, err := c.api.Profile(ctx, resp.Token)
	if err != nil {
		return fmt.Errorf("profile fetch failed: %w", err)
	}

	if err := c.store.SetAuth(ctx, resp.Token, user); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	c.setActive(true)
	c.startMonitor()

	c.logger.Info("session opened", "email", user.Email, "expires_in", resp.ExpiresIn)
	return nil
}

// Logout ends the session. The server call is best effort: its failure is
// logged and swallowed, the user is logged out from this device regardless.
// The monitor stops strictly before the store is cleared, so no poll can
// observe a half-cleared session.
func (c *Controller) Logout(ctx context.Context) error {
	token, err := c.store.Token(ctx)
	if err != nil {
		c.logger.Warn("failed to read token during logout", "error", err)
	}

	if token != "" {
		if err := c.api.Logout(ctx, token); err != nil {
			c.logger.Warn("server logout failed, clearing local session anyway", "error", err)
		}
	}

	c.mon.Stop()
	c.prompt.Hide()

	if err := c.store.ClearAuth(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	c.setActive(false)
	c.logger.Info("session closed")
	return nil
}

// Reconcile re-reads the shared store and brings this context in line with
// it: token absent means another context signed out (or expiry was acted
// on), token present with an idle monitor means another context signed in.
func (c *Controller) Reconcile(ctx context.Context) error {
	token, err := c.store.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}

	if token == "" {
		c.mon.Stop()
		c.prompt.Hide()
		c.setActive(false)
		return nil
	}

	c.setActive(true)
	if !c.mon.Running() {
		c.startMonitor()
	}
	return nil
}

// Close stops the monitor and releases the store subscription. Idempotent;
// must run on every teardown path.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.cancelRun()
		c.sub.Unsubscribe()
		c.mon.Stop()
		c.prompt.Hide()
	})
}

// onStoreChange is the subscription callback: any token/user change, local
// or from another execution context, funnels into Reconcile.
func (c *Controller) onStoreChange(key storage.ChangeKey) {
	if key != storage.KeyToken && key != storage.KeyUser {
		return
	}
	if err := c.Reconcile(c.runCtx); err != nil {
		c.logger.Warn("reconcile after store change failed", "key", string(key), "error", err)
	}
}

// startMonitor wires the monitor callbacks to the prompt transitions.
// Монитор живет на runCtx контроллера, а не на контексте запроса login.
func (c *Controller) startMonitor() {
	c.mon.Start(c.runCtx, c.prompt.ShowWarning, c.onExpired, c.monCfg)
}

// onExpired surfaces the terminal expiry state to the user. The monitor has
// already stopped itself; the stored credential stays until the user logs
// out or re-authenticates.
func (c *Controller) onExpired() {
	c.prompt.ShowExpired()
}

// setActive tracks the signed-in/signed-out transition and fires OnSignedOut
// exactly once per transition to signed-out.
func (c *Controller) setActive(active bool) {
	c.mu.Lock()
	changed := c.active != active
	c.active = active
	c.mu.Unlock()

	if changed && !active && c.onSignedOut != nil {
		c.onSignedOut()
	}
}
