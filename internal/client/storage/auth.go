package storage

import (
	"context"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/models"
)

// ChangeKey identifies which persisted entry changed
type ChangeKey string

const (
	// KeyToken is the persisted key holding the raw bearer token
	KeyToken ChangeKey = "token"
	// KeyUser is the persisted key holding the user profile JSON
	KeyUser ChangeKey = "user"
)

// Listener receives key-scoped change notifications. Notifications are
// delivered after the write has committed, so a listener may read the store.
// Changes made by any execution context sharing the store are delivered to
// every registered listener.
type Listener func(key ChangeKey)

// Subscription represents a registered listener. Unsubscribe is idempotent.
type Subscription interface {
	Unsubscribe()
}

// AuthStore defines the durable per-origin storage for the current credential
// and user profile. It is the single source of truth shared by all execution
// contexts of the application; conflicting writes are last-writer-wins.
type AuthStore interface {
	// SetAuth stores the bearer token and profile together. Both entries are
	// written atomically: no reader observes the token without the profile.
	SetAuth(ctx context.Context, token string, user *models.UserProfile) error

	// Token returns the stored bearer token, or "" when no session exists
	Token(ctx context.Context) (string, error)

	// User returns the stored profile, or nil when absent. A malformed stored
	// record is reported as nil with a diagnostic log entry, never an error.
	User(ctx context.Context) (*models.UserProfile, error)

	// UpdateUser merges the given fields into the stored profile and returns
	// the result. When no profile is stored it is a no-op returning nil.
	UpdateUser(ctx context.Context, upd models.UserUpdate) (*models.UserProfile, error)

	// ClearAuth removes both entries. Idempotent; clearing an already-empty
	// store succeeds and emits no notifications.
	ClearAuth(ctx context.Context) error

	// Subscribe registers a change listener
	Subscribe(l Listener) Subscription
}
