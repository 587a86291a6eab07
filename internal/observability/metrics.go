package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (client retry loops).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p99 increases on /location (slow storage backend).
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight.
	HTTPRequestsInFlight prometheus.Gauge

	// Location cache reads by result: hit, miss, expired, malformed, error.
	// Watch for: malformed > 0 (a writer producing bad records), error spikes (backend down).
	LocationCacheLoadsTotal *prometheus.CounterVec

	// Location cache writes by status.
	LocationCacheSavesTotal *prometheus.CounterVec

	// Location record removals, explicit or by eviction.
	LocationCacheClearsTotal *prometheus.CounterVec

	// 1 when a valid last location is known, 0 otherwise.
	LocationCachePresent prometheus.Gauge

	// Storage backend latency by operation and status.
	StorageOperationDuration *prometheus.HistogramVec

	// Debounced saves: scheduled (a Call) vs fired (the trailing invocation).
	// scheduled - fired = calls absorbed by the debounce window.
	DebouncedSavesTotal *prometheus.CounterVec

	// Rate limit denials.
	RateLimitDeniedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	LocationCacheLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "locationCacheLoadsTotal",
			Help: "Last-location reads by result (hit, miss, expired, malformed, error)",
		},
		[]string{"result"},
	)
	LocationCacheSavesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "locationCacheSavesTotal",
			Help: "Last-location writes by status",
		},
		[]string{"status"},
	)
	LocationCacheClearsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "locationCacheClearsTotal",
			Help: "Last-location removals by reason (explicit, expired, malformed)",
		},
		[]string{"reason"},
	)
	LocationCachePresent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "locationCachePresent",
			Help: "1 when a valid last location is stored",
		},
	)
	StorageOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storageOperationDurationSeconds",
			Help:    "Key-value storage latency in seconds by operation and status",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"operation", "status"},
	)
	DebouncedSavesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debouncedSavesTotal",
			Help: "Debounced location saves by outcome (scheduled, fired)",
		},
		[]string{"outcome"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		LocationCacheLoadsTotal, LocationCacheSavesTotal, LocationCacheClearsTotal, LocationCachePresent,
		StorageOperationDuration,
		DebouncedSavesTotal,
		RateLimitDeniedTotal,
	)
}

// SetLocationPresent mirrors the location cache presence flag into the gauge.
func SetLocationPresent(present bool) {
	if present {
		LocationCachePresent.Set(1)
		return
	}
	LocationCachePresent.Set(0)
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
