// Package handler provides HTTP handlers for all API endpoints.
// Handlers call the game services; table and leaderboard payloads are
// encoded once and served from the in-memory cache with ETags.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/scoracle-predict/internal/api/respond"
	"github.com/albapepper/scoracle-predict/internal/cache"
	"github.com/albapepper/scoracle-predict/internal/config"
	"github.com/albapepper/scoracle-predict/internal/fixture"
	"github.com/albapepper/scoracle-predict/internal/prediction"
	"github.com/albapepper/scoracle-predict/internal/standings"
	"github.com/albapepper/scoracle-predict/internal/store"
)

// Services are the game services the handlers call.
type Services struct {
	Store       store.Store
	Tables      *standings.Service
	Fixtures    *fixture.Service
	Predictions *prediction.Service
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	svc   Services
	cache *cache.Cache
	cfg   *config.Config
}

// New creates a Handler with shared dependencies.
func New(svc Services, c *cache.Cache, cfg *config.Config) *Handler {
	return &Handler{svc: svc, cache: c, cfg: cfg}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status and the active scoring rules.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"name":          "Scoracle Predict API",
		"version":       "1.0.0",
		"status":        "running",
		"environment":   h.cfg.Environment,
		"docs":          "/docs",
		"scoring_rules": h.svc.Predictions.Rules(),
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Store.Ping(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns in-memory cache statistics (active keys, expired keys).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// pathID parses a positive integer URL parameter, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ID", name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// serveCached writes the cached payload for key, building it on a miss.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key string, ttl time.Duration, build func() ([]byte, error)) {
	data, etag, hit, err := h.cache.GetOrBuild(key, ttl, build)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WritePayload(w, r, respond.Payload{Data: data, ETag: etag, TTL: ttl, Hit: hit})
}

// writeServiceError maps service errors to HTTP errors.
func writeServiceError(w http.ResponseWriter, err error) {
	var ferr *fixture.FinalizationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		respond.WriteErrorDetail(w, http.StatusNotFound, "NOT_FOUND", "Resource not found", err.Error())
	case errors.Is(err, prediction.ErrLocked):
		respond.WriteErrorDetail(w, http.StatusConflict, "PREDICTION_LOCKED", "Predictions are locked for this fixture", err.Error())
	case errors.Is(err, prediction.ErrInvalidScore), errors.Is(err, fixture.ErrInvalidScore):
		respond.WriteError(w, http.StatusBadRequest, "INVALID_SCORE", err.Error())
	case errors.As(err, &ferr):
		respond.WriteErrorDetail(w, http.StatusUnprocessableEntity, "FINALIZATION_REJECTED", "Fixture cannot be finalized", ferr.Reason)
	default:
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
