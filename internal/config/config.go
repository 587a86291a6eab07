package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Koda-Pig/vue-the-weather/internal/locationcache"
)

// Storage backend names accepted by storage.backend / STORAGE_BACKEND.
const (
	BackendInMemory  = "in_memory"
	BackendMemcached = "memcached"
	BackendRedis     = "redis"
	BackendPebble    = "pebble"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort string

	RequestTimeout time.Duration

	StorageBackend string
	StorageKey     string

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	RedisURL string

	PebblePath string

	LocationExpiration   time.Duration
	LocationSaveDebounce time.Duration // 0 = save synchronously

	RateLimitRPS   int
	RateLimitBurst int

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Storage struct {
		Backend   string `yaml:"backend"`
		Key       string `yaml:"key"`
		Memcached struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
		Redis struct {
			URL string `yaml:"url"`
		} `yaml:"redis"`
		Pebble struct {
			Path string `yaml:"path"`
		} `yaml:"pebble"`
	} `yaml:"storage"`

	Location struct {
		Expiration   string `yaml:"expiration"`
		SaveDebounce string `yaml:"save_debounce"`
	} `yaml:"location"`

	Reliability struct {
		RateLimitRPS   int `yaml:"rate_limit_rps"`
		RateLimitBurst int `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev). Storage
// settings can be overridden by STORAGE_BACKEND, STORAGE_KEY, MEMCACHED_ADDRS,
// REDIS_URL and PEBBLE_PATH. Call from project root.
func Load() (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = fc.Server.Port
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 5*time.Second)

	cfg.StorageBackend = envOr("STORAGE_BACKEND", fc.Storage.Backend, BackendInMemory)
	cfg.StorageBackend = strings.ToLower(cfg.StorageBackend)
	cfg.StorageKey = envOr("STORAGE_KEY", fc.Storage.Key, locationcache.DefaultKey)

	cfg.MemcachedAddrs = envOr("MEMCACHED_ADDRS", fc.Storage.Memcached.Addrs, "localhost:11211")
	cfg.MemcachedTimeout = parseDuration(fc.Storage.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Storage.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}
	cfg.RedisURL = envOr("REDIS_URL", fc.Storage.Redis.URL, "redis://localhost:6379/0")
	cfg.PebblePath = envOr("PEBBLE_PATH", fc.Storage.Pebble.Path, filepath.Join("data", "location"))

	cfg.LocationExpiration = parseDuration(fc.Location.Expiration, locationcache.DefaultExpiration)
	cfg.LocationSaveDebounce = parseDurationOrZero(fc.Location.SaveDebounce, 0)

	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 50
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 100
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envOr returns the trimmed env var, else the trimmed file value, else def.
func envOr(envKey, fileVal, def string) string {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		return v
	}
	if v := strings.TrimSpace(fileVal); v != "" {
		return v
	}
	return def
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Returns zero or negative durations as-is (caller should handle fallback).
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
func validate(cfg *Config) error {
	switch cfg.StorageBackend {
	case BackendInMemory, BackendMemcached, BackendRedis, BackendPebble:
		// valid
	default:
		return fmt.Errorf("storage.backend must be in_memory, memcached, redis or pebble, got %q", cfg.StorageBackend)
	}
	if cfg.LocationSaveDebounce < 0 {
		return fmt.Errorf("location.save_debounce must not be negative, got %s", cfg.LocationSaveDebounce)
	}
	if cfg.LocationSaveDebounce >= cfg.ShutdownTimeout {
		return fmt.Errorf("location.save_debounce (%s) must be shorter than shutdown.timeout (%s)", cfg.LocationSaveDebounce, cfg.ShutdownTimeout)
	}
	return nil
}
