package boltdb

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/storage"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := New(context.Background(), dbPath, logger)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return store
}

func testProfile() *models.UserProfile {
	return &models.UserProfile{
		Email:    "a@b.com",
		Username: "student1",
		Role:     models.RoleStudent,
		FullName: "Ada Lovelace",
	}
}

func TestStore_SetAuthRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SetAuth(ctx, "tok1", testProfile()))

	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok1", token)

	user, err := store.User(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "a@b.com", user.Email)
	assert.Equal(t, "student1", user.Username)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.Equal(t, "Ada Lovelace", user.FullName)
}

func TestStore_SetAuthValidation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	assert.Error(t, store.SetAuth(ctx, "", testProfile()))
	assert.Error(t, store.SetAuth(ctx, "tok1", nil))

	// Неудачная запись не оставляет частичного состояния
	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestStore_EmptyStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	user, err := store.User(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestStore_MalformedUserTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SetAuth(ctx, "tok1", testProfile()))

	// Портим сохраненный профиль напрямую в базе
	err := store.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAuth).Put(keyUser, []byte("{not json"))
	})
	require.NoError(t, err)

	user, err := store.User(ctx)
	require.NoError(t, err, "malformed profile must not surface as an error")
	assert.Nil(t, user)

	// Токен при этом остается читаемым
	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok1", token)
}

func TestStore_UpdateUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SetAuth(ctx, "tok1", testProfile()))

	fullName := "Grace Hopper"
	bio := "Compilers"
	updated, err := store.UpdateUser(ctx, models.UserUpdate{FullName: &fullName, Bio: &bio})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Grace Hopper", updated.FullName)
	assert.Equal(t, "Compilers", updated.Bio)
	assert.Equal(t, "student1", updated.Username)

	// Изменение долетело до базы
	again, err := store.User(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", again.FullName)
}

func TestStore_UpdateUserWithoutProfile(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	bio := "nope"
	updated, err := store.UpdateUser(ctx, models.UserUpdate{Bio: &bio})
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestStore_ClearAuthIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SetAuth(ctx, "tok1", testProfile()))

	require.NoError(t, store.ClearAuth(ctx))
	require.NoError(t, store.ClearAuth(ctx))

	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	user, err := store.User(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestStore_Notifications(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	var mu sync.Mutex
	var keys []storage.ChangeKey
	sub := store.Subscribe(func(key storage.ChangeKey) {
		mu.Lock()
		keys = append(keys, key)
		mu.Unlock()
	})
	defer sub.Unsubscribe()

	require.NoError(t, store.SetAuth(ctx, "tok1", testProfile()))
	assert.Equal(t, []storage.ChangeKey{storage.KeyToken, storage.KeyUser}, keys)

	keys = nil
	bio := "tutor"
	_, err := store.UpdateUser(ctx, models.UserUpdate{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, []storage.ChangeKey{storage.KeyUser}, keys)

	keys = nil
	require.NoError(t, store.ClearAuth(ctx))
	assert.Equal(t, []storage.ChangeKey{storage.KeyToken, storage.KeyUser}, keys)

	// Повторная очистка пустого хранилища молчит
	keys = nil
	require.NoError(t, store.ClearAuth(ctx))
	assert.Empty(t, keys)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := New(ctx, dbPath, logger)
	require.NoError(t, err)
	require.NoError(t, store.SetAuth(ctx, "tok1", testProfile()))
	require.NoError(t, store.Close())

	// Сессия переживает перезапуск процесса
	reopened, err := New(ctx, dbPath, logger)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, reopened.Close())
	}()

	token, err := reopened.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok1", token)

	user, err := reopened.User(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "a@b.com", user.Email)
}
