// Package prompt implements the session-expiry modal state machine.
// The prompt never polls the token itself: transitions into Warning and
// Expired are driven only by the monitor's callbacks, user actions drive the
// way back out. The per-second countdown shown while in Warning is cosmetic;
// when it reaches zero the prompt asks the monitor for one immediate
// re-check instead of deciding expiry locally.
package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State identifies the modal state; exactly one is active at a time
type State int

const (
	// StateHidden - модальное окно скрыто (начальное состояние)
	StateHidden State = iota
	// StateWarning - показано предупреждение с обратным отсчетом
	StateWarning
	// StateExpired - сессия истекла; выйти из состояния можно только
	// через logout или повторный вход
	StateExpired
)

// String returns a readable state name
func (s State) String() string {
	switch s {
	case StateHidden:
		return "hidden"
	case StateWarning:
		return "warning"
	case StateExpired:
		return "expired"
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// Snapshot is what the surrounding UI renders
type Snapshot struct {
	State     State
	Remaining time.Duration // countdown value, meaningful in Warning only
}

// Config wires the prompt to its collaborators
type Config struct {
	// OnChange is called after every visible change, optional.
	// Invoked from monitor and countdown goroutines: hand the snapshot off
	// (channel, UI event queue) instead of calling back into the prompt.
	OnChange func(Snapshot)
	// CheckNow requests one immediate validity re-check, optional
	CheckNow func()
	// Logout ends the session; required for the Logout action
	Logout func(ctx context.Context) error
	// Logger for diagnostics; slog.Default() when nil
	Logger *slog.Logger
}

// Prompt is the modal state machine
type Prompt struct {
	cfg    Config
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	remaining time.Duration
	countdown *countdown
}

// countdown holds the cancellation state of one cosmetic 1 Hz ticker
type countdown struct {
	stop chan struct{}
	done chan struct{}
}

// New creates a hidden prompt
func New(cfg Config) *Prompt {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Prompt{
		cfg:    cfg,
		logger: logger.With("component", "prompt"),
	}
}

// Snapshot returns the current visible state
func (p *Prompt) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{State: p.state, Remaining: p.remaining}
}

// ShowWarning moves the prompt to Warning and starts the cosmetic countdown.
// Ignored once the session has expired: Expired is terminal until logout or
// re-login.
func (p *Prompt) ShowWarning(remaining time.Duration) {
	p.mu.Lock()
	if p.state == StateExpired {
		p.mu.Unlock()
		return
	}
	old := p.countdown
	p.countdown = nil
	p.mu.Unlock()

	stopCountdown(old)

	p.mu.Lock()
	if p.state == StateExpired {
		p.mu.Unlock()
		return
	}
	p.state = StateWarning
	p.remaining = remaining
	c := &countdown{stop: make(chan struct{}), done: make(chan struct{})}
	p.countdown = c
	snap := Snapshot{State: p.state, Remaining: p.remaining}
	p.mu.Unlock()

	p.notify(snap)
	go p.runCountdown(c)
}

// ShowExpired moves the prompt to Expired, overriding any Warning
func (p *Prompt) ShowExpired() {
	p.mu.Lock()
	if p.state == StateExpired {
		p.mu.Unlock()
		return
	}
	old := p.countdown
	p.countdown = nil
	p.state = StateExpired
	p.remaining = 0
	snap := Snapshot{State: p.state}
	p.mu.Unlock()

	stopCountdown(old)
	p.notify(snap)
}

// Dismiss hides the warning. Valid only from Warning; по решению продукта
// действие не продлевает токен, а только закрывает окно.
func (p *Prompt) Dismiss() error {
	p.mu.Lock()
	if p.state != StateWarning {
		state := p.state
		p.mu.Unlock()
		return fmt.Errorf("cannot dismiss prompt in state %q", state)
	}
	old := p.countdown
	p.countdown = nil
	p.state = StateHidden
	p.remaining = 0
	snap := Snapshot{State: p.state}
	p.mu.Unlock()

	stopCountdown(old)
	p.notify(snap)
	return nil
}

// Logout ends the session from the Warning or Expired prompt. The prompt is
// hidden first, then the configured logout runs; its error is returned.
func (p *Prompt) Logout(ctx context.Context) error {
	p.mu.Lock()
	if p.state == StateHidden {
		p.mu.Unlock()
		return fmt.Errorf("no prompt shown")
	}
	old := p.countdown
	p.countdown = nil
	p.state = StateHidden
	p.remaining = 0
	snap := Snapshot{State: p.state}
	p.mu.Unlock()

	stopCountdown(old)
	p.notify(snap)

	if p.cfg.Logout == nil {
		return fmt.Errorf("logout is not configured")
	}
	return p.cfg.Logout(ctx)
}

// Hide resets the prompt to Hidden from any state. Used by the controller
// when the session ends for reasons outside the modal (logout elsewhere,
// cross-context sign-out).
func (p *Prompt) Hide() {
	p.mu.Lock()
	if p.state == StateHidden && p.countdown == nil {
		p.mu.Unlock()
		return
	}
	old := p.countdown
	p.countdown = nil
	p.state = StateHidden
	p.remaining = 0
	snap := Snapshot{State: p.state}
	p.mu.Unlock()

	stopCountdown(old)
	p.notify(snap)
}

// runCountdown ticks once a second while this countdown owns the prompt.
// Reaching zero does not transition the prompt; it only pokes the monitor
// for a real check.
func (p *Prompt) runCountdown(c *countdown) {
	defer close(c.done)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			p.mu.Lock()
			if p.countdown != c {
				// Отсчет уже заменен или остановлен
				p.mu.Unlock()
				return
			}

			p.remaining -= time.Second
			if p.remaining <= 0 {
				p.remaining = 0
				p.countdown = nil
				snap := Snapshot{State: p.state, Remaining: 0}
				p.mu.Unlock()

				p.notify(snap)
				if p.cfg.CheckNow != nil {
					p.cfg.CheckNow()
				}
				return
			}

			snap := Snapshot{State: p.state, Remaining: p.remaining}
			p.mu.Unlock()
			p.notify(snap)
		}
	}
}

func (p *Prompt) notify(snap Snapshot) {
	if p.cfg.OnChange != nil {
		p.cfg.OnChange(snap)
	}
}

// stopCountdown cancels a countdown and waits for its goroutine to exit.
// Must not be called while holding the prompt mutex.
func stopCountdown(c *countdown) {
	if c == nil {
		return
	}
	close(c.stop)
	<-c.done
}
