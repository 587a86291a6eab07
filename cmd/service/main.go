package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Koda-Pig/vue-the-weather/internal/config"
	httphandler "github.com/Koda-Pig/vue-the-weather/internal/http"
	"github.com/Koda-Pig/vue-the-weather/internal/lifecycle"
	"github.com/Koda-Pig/vue-the-weather/internal/locationcache"
	"github.com/Koda-Pig/vue-the-weather/internal/observability"
	"github.com/Koda-Pig/vue-the-weather/internal/storage"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	openCtx, openCancel := context.WithTimeout(context.Background(), 5*time.Second)
	store, closer, err := openStore(openCtx, cfg)
	openCancel()
	if err != nil {
		logger.Fatal("storage", zap.String("backend", cfg.StorageBackend), zap.Error(err))
	}
	logger.Info("storage backend: "+cfg.StorageBackend, zap.String("key", cfg.StorageKey))

	cache := locationcache.New(store,
		locationcache.WithKey(cfg.StorageKey),
		locationcache.WithExpiration(cfg.LocationExpiration),
		locationcache.WithLogger(logger.Named("locationcache")),
	)
	// Presence flag starts false until the first refresh.
	refreshCtx, refreshCancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	present := cache.Refresh(refreshCtx)
	refreshCancel()
	logger.Info("last location checked", zap.Bool("has_last_location", present))

	healthConfig := &httphandler.HealthConfig{StorageBackend: cfg.StorageBackend}
	if p, ok := store.(storage.Pinger); ok {
		healthConfig.StoragePing = p.Ping
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	handler := httphandler.NewHandler(cache, healthConfig, logger, cfg.LocationSaveDebounce)
	if cfg.LocationSaveDebounce > 0 {
		logger.Info("location saves debounced", zap.Duration("wait", cfg.LocationSaveDebounce))
	}
	router := httphandler.NewRouter(handler, logger, limiter, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if handler.FlushPendingSave() {
		logger.Info("flushed pending location save")
	}

	if closer != nil {
		if err := closer.Close(); err != nil {
			logger.Error("storage close", zap.Error(err))
		}
	}
	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// openStore builds the configured storage backend. closer is nil for backends
// that hold no external resources.
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, io.Closer, error) {
	switch cfg.StorageBackend {
	case config.BackendMemcached:
		mc := storage.NewMemcachedStore(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		return mc, mc, nil
	case config.BackendRedis:
		rs, err := storage.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return rs, rs, nil
	case config.BackendPebble:
		ps, err := storage.OpenPebbleStore(cfg.PebblePath)
		if err != nil {
			return nil, nil, err
		}
		return ps, ps, nil
	case config.BackendInMemory:
		return storage.NewMemoryStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
