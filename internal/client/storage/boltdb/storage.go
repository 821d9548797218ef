package boltdb

import (
	"context"
	"fmt"
	"log/slog"

	"go.etcd.io/bbolt"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/client/storage"
)

var (
	// BoltDB bucket names
	bucketAuth = []byte("auth")

	// Persisted keys inside the auth bucket; названия совпадают с ключами
	// browser-хранилища, которые видят подписчики
	keyToken = []byte(storage.KeyToken)
	keyUser  = []byte(storage.KeyUser)
)

// Store represents BoltDB-backed durable auth storage for the client
type Store struct {
	db     *bbolt.DB
	hub    *storage.Hub
	logger *slog.Logger
}

// Compile-time check that Store implements storage.AuthStore
var _ storage.AuthStore = (*Store)(nil)

// New creates a new BoltDB store instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string, logger *slog.Logger) (*Store, error) {
	// Открываем BoltDB
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	store := &Store{
		db:     db,
		hub:    storage.NewHub(),
		logger: logger.With("component", "authstore"),
	}

	// Инициализируем bucket
	if err := store.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Subscribe registers a change listener
func (s *Store) Subscribe(l storage.Listener) storage.Subscription {
	return s.hub.Subscribe(l)
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Store) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketAuth); err != nil {
			return fmt.Errorf("failed to create auth bucket: %w", err)
		}
		return nil
	})
}
