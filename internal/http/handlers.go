package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Koda-Pig/vue-the-weather/internal/debounce"
	"github.com/Koda-Pig/vue-the-weather/internal/format"
	"github.com/Koda-Pig/vue-the-weather/internal/lifecycle"
	"github.com/Koda-Pig/vue-the-weather/internal/locationcache"
	"github.com/Koda-Pig/vue-the-weather/internal/models"
	"github.com/Koda-Pig/vue-the-weather/internal/observability"
	"github.com/Koda-Pig/vue-the-weather/internal/validation"
)

// maxBodyBytes bounds request bodies. Provider payloads are a few KB.
const maxBodyBytes = 1 << 20

// LocationCache is the subset of locationcache.Cache the handlers use.
type LocationCache interface {
	Save(ctx context.Context, coords models.Coords) error
	Load(ctx context.Context) (models.Coords, bool)
	Clear(ctx context.Context) error
	Refresh(ctx context.Context) bool
	HasLastLocation() bool
}

var _ LocationCache = (*locationcache.Cache)(nil)

// HealthConfig holds the checks reported by GET /health.
type HealthConfig struct {
	// StoragePing, when set, is called to check storage reachability.
	StoragePing func(ctx context.Context) error
	// StorageBackend is reported as-is in the health body.
	StorageBackend string
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	cache        LocationCache
	healthConfig *HealthConfig
	logger       *zap.Logger
	now          func() time.Time

	// saver is non-nil when PUT /location is debounced.
	saver *debounce.Debouncer[models.Coords]
}

// NewHandler returns a new Handler. When saveDebounce is positive, PUT /location
// answers 202 and the write happens once the client stops sending updates for
// saveDebounce.
func NewHandler(cache LocationCache, healthConfig *HealthConfig, logger *zap.Logger, saveDebounce time.Duration) *Handler {
	h := &Handler{
		cache:        cache,
		healthConfig: healthConfig,
		logger:       logger,
		now:          time.Now,
	}
	if saveDebounce > 0 {
		h.saver = debounce.New(saveDebounce, h.saveDebounced)
	}
	return h
}

func (h *Handler) saveDebounced(coords models.Coords) {
	observability.DebouncedSavesTotal.WithLabelValues("fired").Inc()
	if err := h.cache.Save(context.Background(), coords); err != nil {
		h.logger.Error("debounced location save failed", zap.Error(err))
	}
}

// FlushPendingSave runs a debounced save that has not fired yet and waits for one
// already in progress. Call during shutdown before closing storage.
func (h *Handler) FlushPendingSave() bool {
	if h.saver == nil {
		return false
	}
	return h.saver.Flush()
}

type locationResponse struct {
	Coords models.Coords `json:"coords"`
}

type statusResponse struct {
	HasLastLocation bool `json:"hasLastLocation"`
}

// GetLocation handles GET /location.
func (h *Handler) GetLocation(w http.ResponseWriter, r *http.Request) {
	coords, ok := h.cache.Load(r.Context())
	if !ok {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "no stored location")
		return
	}
	writeJSON(w, http.StatusOK, locationResponse{Coords: coords})
}

// PutLocation handles PUT /location with a {"lat","lon"} body.
func (h *Handler) PutLocation(w http.ResponseWriter, r *http.Request) {
	var coords models.Coords
	if err := decodeBody(r, &coords); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_COORDS", "body must be {\"lat\": number, \"lon\": number}")
		return
	}
	if err := validation.ValidateCoords(coords); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_COORDS", err.Error())
		return
	}

	if h.saver != nil {
		observability.DebouncedSavesTotal.WithLabelValues("scheduled").Inc()
		h.saver.Call(coords)
		writeJSON(w, http.StatusAccepted, locationResponse{Coords: coords})
		return
	}

	if err := h.cache.Save(r.Context(), coords); err != nil {
		h.writeStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, locationResponse{Coords: coords})
}

// DeleteLocation handles DELETE /location. A pending debounced save is dropped first
// so it cannot resurrect the record.
func (h *Handler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	if h.saver != nil {
		h.saver.Cancel()
	}
	if err := h.cache.Clear(r.Context()); err != nil {
		h.writeStorageError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetLocationStatus handles GET /location/status.
func (h *Handler) GetLocationStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{HasLastLocation: h.cache.HasLastLocation()})
}

// PostLocationRefresh handles POST /location/refresh.
func (h *Handler) PostLocationRefresh(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{HasLastLocation: h.cache.Refresh(r.Context())})
}

// PostWeatherSummary handles POST /weather/summary with an OpenWeather current weather body.
func (h *Handler) PostWeatherSummary(w http.ResponseWriter, r *http.Request) {
	var data models.WeatherData
	if err := decodeBody(r, &data); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_WEATHER", "body must be a current weather document")
		return
	}
	writeJSON(w, http.StatusOK, format.Summarize(data, h.now()))
}

// PostGeocodeOptions handles POST /geocode/options with a geocoding autocomplete body.
func (h *Handler) PostGeocodeOptions(w http.ResponseWriter, r *http.Request) {
	var prediction models.LocationPrediction
	if err := decodeBody(r, &prediction); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_PREDICTION", "body must be an autocomplete FeatureCollection")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":   prediction.Query.Text,
		"options": prediction.Options(),
	})
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	statusCode := http.StatusOK
	checks := map[string]string{}

	if lifecycle.IsShuttingDown() {
		status = "shutting-down"
		statusCode = http.StatusServiceUnavailable
	}
	backend := ""
	if h.healthConfig != nil {
		backend = h.healthConfig.StorageBackend
		if h.healthConfig.StoragePing != nil {
			if err := h.healthConfig.StoragePing(r.Context()); err != nil {
				checks["storage"] = "unhealthy"
				if status == "healthy" {
					status = "degraded"
					statusCode = http.StatusServiceUnavailable
				}
				h.logger.Warn("storage ping failed", zap.Error(err))
			} else {
				checks["storage"] = "healthy"
			}
		}
	}

	writeJSON(w, statusCode, map[string]interface{}{
		"status":          status,
		"service":         "weather-client-support",
		"storageBackend":  backend,
		"hasLastLocation": h.cache.HasLastLocation(),
		"checks":          checks,
		"timestamp":       h.now().UTC().Format(time.RFC3339),
	})
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON body")
	}
	return nil
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": correlationID(r.Context()),
		},
	})
}

// writeStorageError writes a 503 for a failed storage write or removal.
func (h *Handler) writeStorageError(w http.ResponseWriter, r *http.Request, err error) {
	loggerFromContext(r.Context(), h.logger).Warn("storage error", zap.Error(err))
	writeError(w, r, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "unable to update stored location")
}
