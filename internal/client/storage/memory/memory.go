// Package memory provides an in-memory AuthStore used by tests and by
// short-lived tools that do not need a durable session. Several subscribers
// sharing one instance model several execution contexts sharing the same
// durable storage, which makes cross-context notification deterministic to
// test.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/storage"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/models"
)

var (
	errEmptyToken = errors.New("token cannot be empty")
	errNilUser    = errors.New("user profile cannot be nil")
)

// Store is an in-memory implementation of storage.AuthStore
type Store struct {
	mu    sync.RWMutex
	token string
	user  *models.UserProfile
	hub   *storage.Hub
}

// Compile-time check that Store implements storage.AuthStore
var _ storage.AuthStore = (*Store)(nil)

// New creates an empty in-memory store
func New() *Store {
	return &Store{hub: storage.NewHub()}
}

// SetAuth stores the bearer token and user profile atomically
func (s *Store) SetAuth(ctx context.Context, token string, user *models.UserProfile) error {
	if token == "" {
		return errEmptyToken
	}
	if user == nil {
		return errNilUser
	}

	u := *user
	s.mu.Lock()
	s.token = token
	s.user = &u
	s.mu.Unlock()

	s.hub.Notify(storage.KeyToken, storage.KeyUser)
	return nil
}

// Token returns the stored bearer token, or "" when no session exists
func (s *Store) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

// User returns a copy of the stored profile, or nil when absent
func (s *Store) User(ctx context.Context) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return nil, nil
	}
	u := *s.user
	return &u, nil
}

// UpdateUser merges the given fields into the stored profile; no-op when
// no profile is stored
func (s *Store) UpdateUser(ctx context.Context, upd models.UserUpdate) (*models.UserProfile, error) {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return nil, nil
	}

	merged := upd.Apply(*s.user)
	s.user = &merged
	out := merged
	s.mu.Unlock()

	s.hub.Notify(storage.KeyUser)
	return &out, nil
}

// ClearAuth removes both entries; idempotent
func (s *Store) ClearAuth(ctx context.Context) error {
	s.mu.Lock()
	hadToken := s.token != ""
	hadUser := s.user != nil
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	keys := make([]storage.ChangeKey, 0, 2)
	if hadToken {
		keys = append(keys, storage.KeyToken)
	}
	if hadUser {
		keys = append(keys, storage.KeyUser)
	}
	if len(keys) > 0 {
		s.hub.Notify(keys...)
	}

	return nil
}

// Subscribe registers a change listener
func (s *Store) Subscribe(l storage.Listener) storage.Subscription {
	return s.hub.Subscribe(l)
}
