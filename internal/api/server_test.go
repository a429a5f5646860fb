package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/albapepper/scoracle-predict/internal/api/handler"
	"github.com/albapepper/scoracle-predict/internal/cache"
	"github.com/albapepper/scoracle-predict/internal/config"
	"github.com/albapepper/scoracle-predict/internal/fixture"
	"github.com/albapepper/scoracle-predict/internal/prediction"
	"github.com/albapepper/scoracle-predict/internal/standings"
	"github.com/albapepper/scoracle-predict/internal/store"
)

func newTestRouter(cfg *config.Config) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.NewMemory()
	c := cache.New(false)
	tables := standings.NewService(st, c, logger)
	svc := handler.Services{
		Store:       st,
		Tables:      tables,
		Fixtures:    fixture.NewService(st, tables, -1, logger),
		Predictions: prediction.NewService(st, "", -1, logger),
	}
	return NewRouter(svc, c, cfg, logger)
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRoutes(t *testing.T) {
	r := newTestRouter(&config.Config{CORSAllowOrigins: []string{"*"}})

	tests := []struct {
		path   string
		status int
	}{
		{"/", http.StatusOK},
		{"/health", http.StatusOK},
		{"/health/db", http.StatusOK},
		{"/health/cache", http.StatusOK},
		{"/api/v1/seasons/1/table", http.StatusOK},
		{"/api/v1/seasons/1/leaderboard", http.StatusOK},
		{"/api/v1/fixtures/1", http.StatusNotFound},
		{"/api/v1/predictions/1", http.StatusNotFound},
		{"/api/v1/predictions/x/points", http.StatusBadRequest},
		{"/api/v1/unknown", http.StatusNotFound},
	}
	for _, tt := range tests {
		if rec := get(r, tt.path); rec.Code != tt.status {
			t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.status)
		}
	}
}

func TestTimingHeader(t *testing.T) {
	r := newTestRouter(&config.Config{})
	if rec := get(r, "/health"); rec.Header().Get("X-Process-Time") == "" {
		t.Error("missing X-Process-Time")
	}
}

func TestRateLimit(t *testing.T) {
	r := newTestRouter(&config.Config{
		RateLimitEnabled:  true,
		RateLimitRequests: 4,
		RateLimitWindow:   time.Minute,
	})

	// Burst is half the window allowance.
	for i := range 2 {
		if rec := get(r, "/health"); rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, rec.Code)
		}
	}
	rec := get(r, "/health")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "15" {
		t.Errorf("Retry-After = %q, want 15", rec.Header().Get("Retry-After"))
	}
}

func TestIPLimiterDropsIdleClients(t *testing.T) {
	l := newIPLimiter(10, time.Minute)
	start := time.Now()
	l.swept = start
	l.get("10.0.0.1", start)
	l.get("10.0.0.2", start.Add(limiterIdleTTL))

	l.get("10.0.0.3", start.Add(limiterIdleTTL+time.Minute))
	if _, ok := l.clients["10.0.0.1"]; ok {
		t.Error("idle client kept")
	}
	if _, ok := l.clients["10.0.0.2"]; !ok {
		t.Error("active client dropped")
	}
}
