package locationcache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Koda-Pig/vue-the-weather/internal/models"
	"github.com/Koda-Pig/vue-the-weather/internal/storage"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestCache(t *testing.T, opts ...Option) (*Cache, *storage.MemoryStore, *fakeClock) {
	t.Helper()
	store := storage.NewMemoryStore()
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return New(store, opts...), store, clock
}

// failingStore returns the configured errors from every operation.
type failingStore struct {
	getErr    error
	setErr    error
	removeErr error
	value     string
	removed   int
}

func (f *failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	return f.value, f.value != "", nil
}

func (f *failingStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.value = value
	return nil
}

func (f *failingStore) Remove(ctx context.Context, key string) error {
	f.removed++
	if f.removeErr != nil {
		return f.removeErr
	}
	f.value = ""
	return nil
}

// TestCache_SaveThenLoad verifies that coordinates saved within the expiration
// window are returned unchanged and the presence flag is set.
func TestCache_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	c, _, clock := newTestCache(t)
	want := models.Coords{Lat: -33.9249, Lon: 18.4241}

	if err := c.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !c.HasLastLocation() {
		t.Error("HasLastLocation() = false after Save, want true")
	}

	clock.Advance(29 * 24 * time.Hour)
	got, ok := c.Load(ctx)
	if !ok {
		t.Fatal("Load() ok = false within expiration, want true")
	}
	if got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

// TestCache_Save_RecordFormat verifies the stored JSON shape and millisecond timestamp.
func TestCache_Save_RecordFormat(t *testing.T) {
	ctx := context.Background()
	c, store, clock := newTestCache(t)

	if err := c.Save(ctx, models.Coords{Lat: 1.5, Lon: -2.25}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	raw, ok, _ := store.Get(ctx, DefaultKey)
	if !ok {
		t.Fatalf("no record under %q", DefaultKey)
	}
	var got models.StoredLocation
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("stored record is not JSON: %v", err)
	}
	if got.Timestamp != clock.now.UnixMilli() {
		t.Errorf("Timestamp = %d, want %d", got.Timestamp, clock.now.UnixMilli())
	}
	if got.Coords.Lat != 1.5 || got.Coords.Lon != -2.25 {
		t.Errorf("Coords = %+v, want {1.5 -2.25}", got.Coords)
	}
}

// TestCache_Load_Expired verifies that a record older than 30 days is reported
// missing and removed from storage.
func TestCache_Load_Expired(t *testing.T) {
	ctx := context.Background()
	c, store, clock := newTestCache(t)
	_ = c.Save(ctx, models.Coords{Lat: 10, Lon: 20})

	clock.Advance(30*24*time.Hour + time.Millisecond)
	if _, ok := c.Load(ctx); ok {
		t.Fatal("Load() ok = true after expiration, want false")
	}
	if _, ok, _ := store.Get(ctx, DefaultKey); ok {
		t.Error("expired record still in storage, want removed")
	}
	if c.HasLastLocation() {
		t.Error("HasLastLocation() = true after expiry eviction, want false")
	}
}

// TestCache_Load_ExactlyAtExpiration verifies that age equal to the window is still valid.
func TestCache_Load_ExactlyAtExpiration(t *testing.T) {
	ctx := context.Background()
	c, _, clock := newTestCache(t)
	_ = c.Save(ctx, models.Coords{Lat: 10, Lon: 20})

	clock.Advance(DefaultExpiration)
	if _, ok := c.Load(ctx); !ok {
		t.Error("Load() ok = false at exactly the expiration age, want true")
	}
}

// TestCache_Load_Malformed verifies that unparsable or incomplete records are
// treated as a miss, removed, and logged at WARN.
func TestCache_Load_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "{not json"},
		{"json null", "null"},
		{"wrong type", `{"coords":"here","timestamp":1}`},
		{"missing timestamp", `{"coords":{"lat":1,"lon":2}}`},
		{"missing coords", `{"timestamp":1717243200000}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			core, logs := observer.New(zapcore.WarnLevel)
			c, store, _ := newTestCache(t, WithLogger(zap.New(core)))
			_ = store.Set(ctx, DefaultKey, tt.raw, 0)

			if _, ok := c.Load(ctx); ok {
				t.Fatal("Load() ok = true for malformed record, want false")
			}
			if _, ok, _ := store.Get(ctx, DefaultKey); ok {
				t.Error("malformed record still in storage, want removed")
			}
			if logs.FilterMessage("failed to parse stored location").Len() != 1 {
				t.Errorf("want one parse warning, got %v", logs.All())
			}
		})
	}
}

// TestCache_Load_Absent verifies a miss on an empty store and on an empty value,
// without any removal.
func TestCache_Load_Absent(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{}
	c := New(fs)

	if _, ok := c.Load(ctx); ok {
		t.Error("Load() ok = true on empty store, want false")
	}
	if fs.removed != 0 {
		t.Errorf("Remove called %d times on miss, want 0", fs.removed)
	}
}

// TestCache_Load_StorageError verifies that read failures are a miss and do not
// erase the record.
func TestCache_Load_StorageError(t *testing.T) {
	fs := &failingStore{getErr: errors.New("connection refused")}
	c := New(fs)

	if _, ok := c.Load(context.Background()); ok {
		t.Error("Load() ok = true on storage error, want false")
	}
	if fs.removed != 0 {
		t.Errorf("Remove called %d times on read error, want 0", fs.removed)
	}
}

func TestCache_Save_StorageError(t *testing.T) {
	fs := &failingStore{setErr: errors.New("server down")}
	c := New(fs)

	err := c.Save(context.Background(), models.Coords{Lat: 1, Lon: 1})
	if err == nil {
		t.Fatal("Save() error = nil, want error")
	}
	if !errors.Is(err, fs.setErr) {
		t.Errorf("Save() error = %v, want wrapping %v", err, fs.setErr)
	}
	if c.HasLastLocation() {
		t.Error("HasLastLocation() = true after failed Save, want false")
	}
}

func TestCache_Clear(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newTestCache(t)
	_ = c.Save(ctx, models.Coords{Lat: 1, Lon: 2})

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if c.HasLastLocation() {
		t.Error("HasLastLocation() = true after Clear, want false")
	}
	if store.Len() != 0 {
		t.Errorf("store.Len() = %d after Clear, want 0", store.Len())
	}
}

func TestCache_Clear_StorageError(t *testing.T) {
	fs := &failingStore{value: "x", removeErr: errors.New("timeout")}
	c := New(fs)
	c.setPresent(true)

	if err := c.Clear(context.Background()); err == nil {
		t.Error("Clear() error = nil, want error")
	}
	if c.HasLastLocation() {
		t.Error("HasLastLocation() = true after Clear, want false")
	}
}

// TestCache_Refresh verifies that Refresh initialises the flag from storage
// for a record written by an earlier process.
func TestCache_Refresh(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	clock := &fakeClock{now: time.Now()}

	writer := New(store, WithClock(clock.Now))
	_ = writer.Save(ctx, models.Coords{Lat: 5, Lon: 6})

	reader := New(store, WithClock(clock.Now))
	if reader.HasLastLocation() {
		t.Fatal("HasLastLocation() = true before Refresh, want false")
	}
	if !reader.Refresh(ctx) {
		t.Error("Refresh() = false with valid record, want true")
	}
	if !reader.HasLastLocation() {
		t.Error("HasLastLocation() = false after Refresh, want true")
	}

	clock.Advance(31 * 24 * time.Hour)
	if reader.Refresh(ctx) {
		t.Error("Refresh() = true with expired record, want false")
	}
	if reader.HasLastLocation() {
		t.Error("HasLastLocation() = true after Refresh of expired record, want false")
	}
}

func TestCache_Options(t *testing.T) {
	ctx := context.Background()
	c, store, clock := newTestCache(t, WithKey("custom"), WithExpiration(time.Hour), WithKey(""), WithExpiration(0))
	if c.Key() != "custom" {
		t.Errorf("Key() = %q, want custom", c.Key())
	}
	_ = c.Save(ctx, models.Coords{Lat: 1, Lon: 1})
	if _, ok, _ := store.Get(ctx, "custom"); !ok {
		t.Error("record not written under custom key")
	}
	clock.Advance(61 * time.Minute)
	if _, ok := c.Load(ctx); ok {
		t.Error("Load() ok = true after custom expiration, want false")
	}
}

// TestCache_Load_ExpiredWithTTLStore runs expiry on the real clock through a
// store that enforces its own TTLs. The record must surface as expired so the
// presence flag is cleared.
func TestCache_Load_ExpiredWithTTLStore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	c := New(store, WithExpiration(50*time.Millisecond))

	if err := c.Save(ctx, models.Coords{Lat: 1, Lon: 2}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	time.Sleep(120 * time.Millisecond)

	if _, ok := c.Load(ctx); ok {
		t.Fatal("Load() ok = true after expiration, want false")
	}
	if c.HasLastLocation() {
		t.Error("HasLastLocation() = true after expiry, want false")
	}
	if store.Len() != 0 {
		t.Errorf("store.Len() = %d after expiry, want 0", store.Len())
	}
}

// TestCache_Load_FloatTimestamp verifies that millisecond timestamps written as
// JSON floats are accepted and truncated.
func TestCache_Load_FloatTimestamp(t *testing.T) {
	tests := []struct {
		name string
		ts   string
	}{
		{"exponent", "1.7172432e12"},
		{"fraction", "1717243200000.75"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			c, store, _ := newTestCache(t)
			_ = store.Set(ctx, DefaultKey, `{"coords":{"lat":3,"lon":4},"timestamp":`+tt.ts+`}`, 0)

			got, ok := c.Load(ctx)
			if !ok {
				t.Fatal("Load() ok = false for float timestamp, want true")
			}
			if got != (models.Coords{Lat: 3, Lon: 4}) {
				t.Errorf("Load() = %+v, want {3 4}", got)
			}
		})
	}
}
