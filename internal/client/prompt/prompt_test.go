package prompt

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// changeLog собирает снапшоты OnChange
type changeLog struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (c *changeLog) onChange(s Snapshot) {
	c.mu.Lock()
	c.snaps = append(c.snaps, s)
	c.mu.Unlock()
}

func (c *changeLog) states() []State {
	c.mu.Lock()
	defer c.mu.Unlock()
	states := make([]State, len(c.snaps))
	for i, s := range c.snaps {
		states[i] = s.State
	}
	return states
}

func TestPrompt_ShowWarning(t *testing.T) {
	log := &changeLog{}
	p := New(Config{OnChange: log.onChange, Logger: testLogger()})

	assert.Equal(t, StateHidden, p.Snapshot().State)

	p.ShowWarning(3 * time.Minute)
	defer p.Hide()

	snap := p.Snapshot()
	assert.Equal(t, StateWarning, snap.State)
	assert.Equal(t, 3*time.Minute, snap.Remaining)
	assert.Equal(t, []State{StateWarning}, log.states())
}

func TestPrompt_ExpiredOverridesWarning(t *testing.T) {
	log := &changeLog{}
	p := New(Config{OnChange: log.onChange, Logger: testLogger()})

	p.ShowWarning(time.Minute)
	p.ShowExpired()

	assert.Equal(t, StateExpired, p.Snapshot().State)

	// Expired терминально: предупреждение больше не показывается
	p.ShowWarning(time.Minute)
	assert.Equal(t, StateExpired, p.Snapshot().State)

	// Повторный ShowExpired не дает нового уведомления
	p.ShowExpired()
	assert.Equal(t, []State{StateWarning, StateExpired}, log.states())
}

func TestPrompt_Dismiss(t *testing.T) {
	p := New(Config{Logger: testLogger()})

	t.Run("from warning hides the prompt", func(t *testing.T) {
		p.ShowWarning(time.Minute)
		require.NoError(t, p.Dismiss())
		assert.Equal(t, StateHidden, p.Snapshot().State)
	})

	t.Run("from hidden is an error", func(t *testing.T) {
		err := p.Dismiss()
		assert.ErrorContains(t, err, "hidden")
	})

	t.Run("from expired is an error", func(t *testing.T) {
		p.ShowWarning(time.Minute)
		p.ShowExpired()
		err := p.Dismiss()
		assert.ErrorContains(t, err, "expired")
		assert.Equal(t, StateExpired, p.Snapshot().State)
		p.Hide()
	})
}

func TestPrompt_Logout(t *testing.T) {
	t.Run("hides first, then runs the configured logout", func(t *testing.T) {
		var loggedOut bool
		p := New(Config{
			Logout: func(ctx context.Context) error {
				loggedOut = true
				return nil
			},
			Logger: testLogger(),
		})

		p.ShowWarning(time.Minute)
		require.NoError(t, p.Logout(context.Background()))
		assert.True(t, loggedOut)
		assert.Equal(t, StateHidden, p.Snapshot().State)
	})

	t.Run("works from expired", func(t *testing.T) {
		var loggedOut bool
		p := New(Config{
			Logout: func(ctx context.Context) error {
				loggedOut = true
				return nil
			},
			Logger: testLogger(),
		})

		p.ShowWarning(time.Minute)
		p.ShowExpired()
		require.NoError(t, p.Logout(context.Background()))
		assert.True(t, loggedOut)
		assert.Equal(t, StateHidden, p.Snapshot().State)
	})

	t.Run("logout error is returned, prompt stays hidden", func(t *testing.T) {
		p := New(Config{
			Logout: func(ctx context.Context) error {
				return errors.New("server down")
			},
			Logger: testLogger(),
		})

		p.ShowWarning(time.Minute)
		err := p.Logout(context.Background())
		assert.ErrorContains(t, err, "server down")
		assert.Equal(t, StateHidden, p.Snapshot().State)
	})

	t.Run("without a visible prompt is an error", func(t *testing.T) {
		p := New(Config{Logger: testLogger()})
		err := p.Logout(context.Background())
		assert.ErrorContains(t, err, "no prompt shown")
	})
}

func TestPrompt_HideFromAnyState(t *testing.T) {
	p := New(Config{Logger: testLogger()})

	p.ShowWarning(time.Minute)
	p.Hide()
	assert.Equal(t, StateHidden, p.Snapshot().State)

	p.ShowWarning(time.Minute)
	p.ShowExpired()
	p.Hide()
	assert.Equal(t, StateHidden, p.Snapshot().State)

	// Hide из Hidden - no-op
	p.Hide()
	assert.Equal(t, StateHidden, p.Snapshot().State)
}

func TestPrompt_CountdownReachingZeroAsksForCheck(t *testing.T) {
	checked := make(chan struct{}, 1)
	log := &changeLog{}
	p := New(Config{
		OnChange: log.onChange,
		CheckNow: func() {
			select {
			case checked <- struct{}{}:
			default:
			}
		},
		Logger: testLogger(),
	})

	p.ShowWarning(time.Second)
	defer p.Hide()

	// Отсчет идет с шагом в секунду; на нуле prompt просит re-check
	select {
	case <-checked:
	case <-time.After(3 * time.Second):
		t.Fatal("countdown should request a validity re-check at zero")
	}

	// Ноль отсчета сам по себе не переводит prompt в Expired
	assert.Equal(t, StateWarning, p.Snapshot().State)
	assert.Equal(t, time.Duration(0), p.Snapshot().Remaining)
}

func TestPrompt_StateString(t *testing.T) {
	assert.Equal(t, "hidden", StateHidden.String())
	assert.Equal(t, "warning", StateWarning.String())
	assert.Equal(t, "expired", StateExpired.String())
}
