// Package monitor implements the token validity watchdog. One Monitor runs
// per execution context; it periodically asks an injected capability how much
// validity the current credential has left and raises warning/expired
// callbacks according to the configured thresholds.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RemainingFunc reports how long the current credential remains valid.
// Определение остатка делегируется внешней возможности (разбор exp claim
// или запрос token_status); монитор занимается только таймингом.
// An error means the check could not be performed this tick; the tick is
// skipped and retried on the next interval.
type RemainingFunc func(ctx context.Context) (time.Duration, error)

// Config holds the monitor timing policy
type Config struct {
	// WarningThreshold is the remaining validity at which onWarning fires
	WarningThreshold time.Duration
	// PollInterval is how often remaining validity is re-checked
	PollInterval time.Duration
	// FailureLimit treats this many consecutive check failures as expiry
	// (fail-closed). 0 disables the limit: failures are logged and skipped.
	FailureLimit int
}

// DefaultConfig returns the policy used by the application
func DefaultConfig() Config {
	return Config{
		WarningThreshold: 5 * time.Minute,
		PollInterval:     30 * time.Second,
	}
}

// Monitor is a two-state machine: Idle -> Running -> Idle. Start moves it to
// Running; it returns to Idle via Stop, context cancellation, or on its own
// once it reports expiry.
type Monitor struct {
	remaining RemainingFunc
	logger    *slog.Logger

	mu  sync.Mutex
	cur *run
}

// run holds the cancellation state of one Running period. A fresh run is
// created on every Start, so the warning-fired flag never leaks between runs.
type run struct {
	stop chan struct{}
	done chan struct{}
	kick chan struct{}
}

// New creates an idle monitor
func New(remaining RemainingFunc, logger *slog.Logger) *Monitor {
	return &Monitor{
		remaining: remaining,
		logger:    logger.With("component", "monitor"),
	}
}

// Start begins polling. If the monitor is already running, the previous run
// is stopped first, so two timers never overlap. One poll is performed
// immediately: a session restored with an already-expired token is caught
// without waiting a full interval.
func (m *Monitor) Start(ctx context.Context, onWarning func(remaining time.Duration), onExpired func(), cfg Config) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if cfg.WarningThreshold <= 0 {
		cfg.WarningThreshold = DefaultConfig().WarningThreshold
	}

	m.Stop()

	r := &run{
		stop: make(chan struct{}),
		done: make(chan struct{}),
		kick: make(chan struct{}, 1),
	}

	m.mu.Lock()
	m.cur = r
	m.mu.Unlock()

	go m.loop(ctx, r, onWarning, onExpired, cfg)
}

// Stop cancels the pending timer, waits for the poll goroutine to exit and
// moves the monitor to Idle. Safe to call from Idle and safe to call twice.
func (m *Monitor) Stop() {
	m.mu.Lock()
	r := m.cur
	m.cur = nil
	m.mu.Unlock()

	if r == nil {
		return
	}

	close(r.stop)
	<-r.done
}

// Running reports whether a poll loop is active
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur != nil
}

// CheckNow triggers one out-of-band poll on the running monitor.
// No-op when idle; never blocks.
func (m *Monitor) CheckNow() {
	m.mu.Lock()
	r := m.cur
	m.mu.Unlock()

	if r == nil {
		return
	}
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

func (m *Monitor) loop(ctx context.Context, r *run, onWarning func(time.Duration), onExpired func(), cfg Config) {
	defer close(r.done)
	defer m.clear(r)

	// Состояние одного запуска: предупреждение срабатывает не больше
	// одного раза до следующего Start
	warned := false
	failures := 0

	poll := func() bool {
		rem, err := m.remaining(ctx)
		if err != nil {
			failures++
			m.logger.Warn("validity check failed", "error", err, "consecutive_failures", failures)
			if cfg.FailureLimit > 0 && failures >= cfg.FailureLimit {
				m.logger.Warn("failure limit reached, treating session as expired", "limit", cfg.FailureLimit)
				onExpired()
				return false
			}
			return true
		}
		failures = 0

		if rem <= 0 {
			m.logger.Info("token expired")
			onExpired()
			return false
		}

		if rem <= cfg.WarningThreshold && !warned {
			warned = true
			m.logger.Info("token expiring soon", "remaining", rem.Round(time.Second))
			onWarning(rem)
		}

		return true
	}

	if !poll() {
		return
	}

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-r.kick:
			if !poll() {
				return
			}
		case <-ticker.C:
			if !poll() {
				return
			}
		}
	}
}

// clear moves the monitor to Idle when the loop exits on its own (expiry or
// context cancellation). A later Stop then becomes a no-op.
func (m *Monitor) clear(r *run) {
	m.mu.Lock()
	if m.cur == r {
		m.cur = nil
	}
	m.mu.Unlock()
}
