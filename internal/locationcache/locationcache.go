// Package locationcache persists the user's last known coordinates in a
// key-value store and treats records older than the expiration window as gone.
package locationcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Koda-Pig/vue-the-weather/internal/models"
	"github.com/Koda-Pig/vue-the-weather/internal/observability"
	"github.com/Koda-Pig/vue-the-weather/internal/storage"
)

const (
	// DefaultKey is the storage key of the last-location record.
	DefaultKey = "vue-weather-last-location"
	// DefaultExpiration is how long a saved location stays valid.
	DefaultExpiration = 30 * 24 * time.Hour
)

var errMalformed = errors.New("malformed stored location")

// Cache reads and writes the last-location record and tracks whether a valid one exists.
type Cache struct {
	store      storage.Store
	key        string
	expiration time.Duration
	now        func() time.Time
	logger     *zap.Logger

	present atomic.Bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithKey overrides the storage key. Empty keys are ignored.
func WithKey(key string) Option {
	return func(c *Cache) {
		if key != "" {
			c.key = key
		}
	}
}

// WithExpiration overrides the validity window. Non-positive values are ignored.
func WithExpiration(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.expiration = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger used for parse and storage warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a Cache over store. The presence flag starts false; call Refresh
// once the consumer is ready to initialise it from storage.
func New(store storage.Store, opts ...Option) *Cache {
	c := &Cache{
		store:      store,
		key:        DefaultKey,
		expiration: DefaultExpiration,
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the storage key in use.
func (c *Cache) Key() string {
	return c.key
}

// HasLastLocation reports the presence flag.
func (c *Cache) HasLastLocation() bool {
	return c.present.Load()
}

func (c *Cache) setPresent(v bool) {
	c.present.Store(v)
	observability.SetLocationPresent(v)
}

// Save stores coords stamped with the current time and marks the flag true.
// The flag is left untouched when the write fails.
func (c *Cache) Save(ctx context.Context, coords models.Coords) error {
	raw, err := json.Marshal(models.StoredLocation{
		Coords:    coords,
		Timestamp: c.now().UnixMilli(),
	})
	if err != nil {
		observability.LocationCacheSavesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("encode stored location: %w", err)
	}

	// No store TTL: expiry is decided by Load from the embedded timestamp, so an
	// expired record is evicted and the presence flag cleared.
	start := time.Now()
	err = c.store.Set(ctx, c.key, string(raw), 0)
	observeStorage("set", start, err)
	if err != nil {
		observability.LocationCacheSavesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("save last location: %w", err)
	}
	observability.LocationCacheSavesTotal.WithLabelValues("success").Inc()
	c.setPresent(true)
	return nil
}

// Load returns the stored coords when a record exists and is no older than the
// expiration window. Expired and unparsable records are cleared. Storage read
// errors are logged and reported as a miss without clearing.
func (c *Cache) Load(ctx context.Context) (models.Coords, bool) {
	start := time.Now()
	raw, ok, err := c.store.Get(ctx, c.key)
	observeStorage("get", start, err)
	if err != nil {
		observability.LocationCacheLoadsTotal.WithLabelValues("error").Inc()
		c.logger.Warn("failed to read stored location", zap.String("key", c.key), zap.Error(err))
		return models.Coords{}, false
	}
	if !ok || raw == "" {
		observability.LocationCacheLoadsTotal.WithLabelValues("miss").Inc()
		return models.Coords{}, false
	}

	stored, err := decode(raw)
	if err != nil {
		observability.LocationCacheLoadsTotal.WithLabelValues("malformed").Inc()
		c.logger.Warn("failed to parse stored location", zap.String("key", c.key), zap.Error(err))
		c.evict(ctx, "malformed")
		return models.Coords{}, false
	}

	age := c.now().Sub(time.UnixMilli(stored.Timestamp))
	if age > c.expiration {
		observability.LocationCacheLoadsTotal.WithLabelValues("expired").Inc()
		c.logger.Debug("stored location expired", zap.Duration("age", age))
		c.evict(ctx, "expired")
		return models.Coords{}, false
	}

	observability.LocationCacheLoadsTotal.WithLabelValues("hit").Inc()
	return stored.Coords, true
}

// Clear removes the record and marks the flag false.
func (c *Cache) Clear(ctx context.Context) error {
	return c.clear(ctx, "explicit")
}

// Refresh recomputes the presence flag from storage and returns it.
func (c *Cache) Refresh(ctx context.Context) bool {
	_, ok := c.Load(ctx)
	c.setPresent(ok)
	return ok
}

func (c *Cache) evict(ctx context.Context, reason string) {
	if err := c.clear(ctx, reason); err != nil {
		c.logger.Warn("failed to clear stored location", zap.String("reason", reason), zap.Error(err))
	}
}

// clear sets the flag false even when the removal fails: any record left behind
// is one Load would reject or the caller asked to forget.
func (c *Cache) clear(ctx context.Context, reason string) error {
	start := time.Now()
	err := c.store.Remove(ctx, c.key)
	observeStorage("remove", start, err)
	c.setPresent(false)
	observability.LocationCacheClearsTotal.WithLabelValues(reason).Inc()
	if err != nil {
		return fmt.Errorf("clear last location: %w", err)
	}
	return nil
}

// wireLocation mirrors models.StoredLocation with pointers so that missing
// fields can be told apart from zero values. Timestamp accepts integral and
// floating-point milliseconds.
type wireLocation struct {
	Coords    *models.Coords `json:"coords"`
	Timestamp *float64       `json:"timestamp"`
}

func decode(raw string) (models.StoredLocation, error) {
	var w wireLocation
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return models.StoredLocation{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if w.Coords == nil || w.Timestamp == nil {
		return models.StoredLocation{}, fmt.Errorf("%w: missing coords or timestamp", errMalformed)
	}
	return models.StoredLocation{Coords: *w.Coords, Timestamp: int64(math.Trunc(*w.Timestamp))}, nil
}

func observeStorage(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	observability.StorageOperationDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
}
