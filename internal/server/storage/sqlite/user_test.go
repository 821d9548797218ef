package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/models"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/server/storage"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(context.Background(), dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})

	return s
}

func newTestUser() *models.User {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.User{
		ID:           uuid.New().String(),
		Email:        "a@b.com",
		Username:     "student1",
		PasswordHash: "$2a$10$fakehash",
		Role:         models.RoleStudent,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestStorage_CreateAndGetUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	user := newTestUser()
	require.NoError(t, s.CreateUser(ctx, user))

	byEmail, err := s.GetUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "student1", byEmail.Username)
	assert.Equal(t, models.RoleStudent, byEmail.Role)
	assert.True(t, byEmail.LastLoginAt.IsZero(), "never logged in")

	byID, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", byID.Email)
}

func TestStorage_CreateUserDuplicate(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	require.NoError(t, s.CreateUser(ctx, newTestUser()))

	dup := newTestUser()
	err := s.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)

	// Дубликат username при другом email тоже конфликт
	dup2 := newTestUser()
	dup2.Email = "c@d.com"
	err = s.CreateUser(ctx, dup2)
	assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)
}

func TestStorage_GetUserNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	_, err := s.GetUserByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	_, err = s.GetUserByID(ctx, "no-such-id")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestStorage_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	user := newTestUser()
	require.NoError(t, s.CreateUser(ctx, user))

	fullName := "Ada Lovelace"
	bio := "Algebra tutor"
	updated, err := s.UpdateProfile(ctx, user.ID, models.UserUpdate{
		FullName: &fullName,
		Bio:      &bio,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", updated.FullName)
	assert.Equal(t, "Algebra tutor", updated.Bio)
	assert.Equal(t, "student1", updated.Username, "untouched fields stay")
}

func TestStorage_UpdateProfileUsernameConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	first := newTestUser()
	require.NoError(t, s.CreateUser(ctx, first))

	second := newTestUser()
	second.Email = "c@d.com"
	second.Username = "student2"
	require.NoError(t, s.CreateUser(ctx, second))

	taken := "student1"
	_, err := s.UpdateProfile(ctx, second.ID, models.UserUpdate{Username: &taken})
	assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)
}

func TestStorage_UpdateProfileNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	bio := "nope"
	_, err := s.UpdateProfile(ctx, "no-such-id", models.UserUpdate{Bio: &bio})
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestStorage_UpdateProfileEmpty(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	user := newTestUser()
	require.NoError(t, s.CreateUser(ctx, user))

	// Пустое обновление просто возвращает текущее состояние
	same, err := s.UpdateProfile(ctx, user.ID, models.UserUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "student1", same.Username)
}

func TestStorage_UpdatePassword(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	user := newTestUser()
	require.NoError(t, s.CreateUser(ctx, user))

	require.NoError(t, s.UpdatePassword(ctx, user.ID, "$2a$10$newhash"))

	fresh, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$newhash", fresh.PasswordHash)

	err = s.UpdatePassword(ctx, "no-such-id", "$2a$10$x")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestStorage_UpdateLastLogin(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	user := newTestUser()
	require.NoError(t, s.CreateUser(ctx, user))

	loginAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.UpdateLastLogin(ctx, user.ID, loginAt))

	fresh, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, loginAt, fresh.LastLoginAt, time.Second)
}
