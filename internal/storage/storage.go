package storage

import (
	"context"
	"time"
)

// Store is the key-value primitive the location cache persists through.
// Get returns ok=false with a nil error when the key is absent. A ttl of zero
// on Set means the value does not expire at the storage layer.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
}

// Pinger is implemented by backends that live behind a network connection.
type Pinger interface {
	Ping(ctx context.Context) error
}
