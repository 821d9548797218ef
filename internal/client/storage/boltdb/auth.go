package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/storage"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/models"
)

// SetAuth stores the bearer token and user profile in one transaction.
// Подписчики уведомляются после коммита: сначала token, затем user.
func (s *Store) SetAuth(ctx context.Context, token string, user *models.UserProfile) error {
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if user == nil {
		return fmt.Errorf("user profile cannot be nil")
	}

	// Сериализуем профиль в JSON
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user profile: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAuth)
		if bucket == nil {
			return fmt.Errorf("auth bucket not found")
		}

		if err := bucket.Put(keyToken, []byte(token)); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
		if err := bucket.Put(keyUser, data); err != nil {
			return fmt.Errorf("failed to save user profile: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.hub.Notify(storage.KeyToken, storage.KeyUser)
	return nil
}

// Token returns the stored bearer token, or "" when no session exists
func (s *Store) Token(ctx context.Context) (string, error) {
	var token string

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAuth)
		if bucket == nil {
			return fmt.Errorf("auth bucket not found")
		}

		if data := bucket.Get(keyToken); data != nil {
			token = string(data)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return token, nil
}

// User returns the stored profile, or nil when absent.
// Некорректный JSON трактуется как отсутствие профиля: пишем диагностику
// в лог и возвращаем nil, ошибки наружу не отдаем.
func (s *Store) User(ctx context.Context) (*models.UserProfile, error) {
	var raw []byte

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAuth)
		if bucket == nil {
			return fmt.Errorf("auth bucket not found")
		}

		if data := bucket.Get(keyUser); data != nil {
			raw = make([]byte, len(data))
			copy(raw, data)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if raw == nil {
		return nil, nil
	}

	user := &models.UserProfile{}
	if err := json.Unmarshal(raw, user); err != nil {
		s.logger.Warn("stored user profile is malformed, treating as absent", "error", err)
		return nil, nil
	}

	return user, nil
}

// UpdateUser merges the given fields into the stored profile.
// Read-modify-write выполняется в одной транзакции; если профиля нет,
// операция ничего не меняет и возвращает nil.
func (s *Store) UpdateUser(ctx context.Context, upd models.UserUpdate) (*models.UserProfile, error) {
	var merged *models.UserProfile

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAuth)
		if bucket == nil {
			return fmt.Errorf("auth bucket not found")
		}

		data := bucket.Get(keyUser)
		if data == nil {
			return nil
		}

		current := models.UserProfile{}
		if err := json.Unmarshal(data, &current); err != nil {
			s.logger.Warn("stored user profile is malformed, skipping update", "error", err)
			return nil
		}

		result := upd.Apply(current)
		out, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal user profile: %w", err)
		}

		if err := bucket.Put(keyUser, out); err != nil {
			return fmt.Errorf("failed to save user profile: %w", err)
		}

		merged = &result
		return nil
	})
	if err != nil {
		return nil, err
	}

	if merged != nil {
		s.hub.Notify(storage.KeyUser)
	}

	return merged, nil
}

// ClearAuth removes both entries (logout). Idempotent: clearing an empty
// store succeeds and emits no notifications.
func (s *Store) ClearAuth(ctx context.Context) error {
	var hadToken, hadUser bool

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAuth)
		if bucket == nil {
			return fmt.Errorf("auth bucket not found")
		}

		hadToken = bucket.Get(keyToken) != nil
		hadUser = bucket.Get(keyUser) != nil

		if err := bucket.Delete(keyToken); err != nil {
			return fmt.Errorf("failed to delete token: %w", err)
		}
		if err := bucket.Delete(keyUser); err != nil {
			return fmt.Errorf("failed to delete user profile: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

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
