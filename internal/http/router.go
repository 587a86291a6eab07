package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Koda-Pig/vue-the-weather/internal/observability"
)

// NewRouter wires the handler routes and middleware. Rate limiting and the
// request timeout apply to the /location, /weather and /geocode routes only.
func NewRouter(h *Handler, logger *zap.Logger, limiter *rate.Limiter, requestTimeout time.Duration) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	api := router.NewRoute().Subrouter()
	api.Use(RateLimitMiddleware(limiter))
	api.Use(TimeoutMiddleware(requestTimeout))
	api.HandleFunc("/location", h.GetLocation).Methods(http.MethodGet)
	api.HandleFunc("/location", h.PutLocation).Methods(http.MethodPut)
	api.HandleFunc("/location", h.DeleteLocation).Methods(http.MethodDelete)
	api.HandleFunc("/location/status", h.GetLocationStatus).Methods(http.MethodGet)
	api.HandleFunc("/location/refresh", h.PostLocationRefresh).Methods(http.MethodPost)
	api.HandleFunc("/weather/summary", h.PostWeatherSummary).Methods(http.MethodPost)
	api.HandleFunc("/geocode/options", h.PostGeocodeOptions).Methods(http.MethodPost)
	return router
}
