package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

// PebbleStore implements Store on an embedded pebble database, giving the
// location record the same survive-a-restart behaviour as browser local storage.
// TTLs are ignored; expiry of the location record is enforced by its reader.
type PebbleStore struct {
	db *pebble.DB
}

// OpenPebbleStore opens (or creates) a pebble database in dir.
func OpenPebbleStore(dir string) (*PebbleStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble %s: %w", dir, err)
	}
	return &PebbleStore{db: db}, nil
}

// Get implements Store.Get.
func (s *PebbleStore) Get(ctx context.Context, key string) (string, bool, error) {
	if ctx.Err() != nil {
		return "", false, ctx.Err()
	}
	val, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	// val is only valid until closer is closed
	out := string(val)
	if err := closer.Close(); err != nil {
		return "", false, err
	}
	return out, true, nil
}

// Set implements Store.Set. Writes are synced to disk.
func (s *PebbleStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return s.db.Set([]byte(key), []byte(value), pebble.Sync)
}

// Remove implements Store.Remove.
func (s *PebbleStore) Remove(ctx context.Context, key string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return s.db.Delete([]byte(key), pebble.Sync)
}

// Close flushes and closes the database.
func (s *PebbleStore) Close() error {
	return s.db.Close()
}
