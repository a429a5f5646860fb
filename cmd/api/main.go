// Command api is the Scoracle Predict API server. Besides serving HTTP it
// runs the kickoff, results sync and scoring tickers, and listens for
// fixture_changed notifications to drop stale cached tables.
//
// Usage:
//
//	scoracle-api
//	API_PORT=8080 SPORTMONKS_API_TOKEN=... scoracle-api

// @title Scoracle Predict API
// @version 1.0.0
// @description Football prediction game API: live league tables, fixtures with prediction lock status, prediction submission and points.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name Scoracle
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/scoracle-predict/internal/api"
	"github.com/albapepper/scoracle-predict/internal/api/handler"
	"github.com/albapepper/scoracle-predict/internal/cache"
	"github.com/albapepper/scoracle-predict/internal/config"
	"github.com/albapepper/scoracle-predict/internal/db"
	"github.com/albapepper/scoracle-predict/internal/fixture"
	"github.com/albapepper/scoracle-predict/internal/listener"
	"github.com/albapepper/scoracle-predict/internal/maintenance"
	"github.com/albapepper/scoracle-predict/internal/prediction"
	"github.com/albapepper/scoracle-predict/internal/provider/sportmonks"
	"github.com/albapepper/scoracle-predict/internal/standings"
	"github.com/albapepper/scoracle-predict/internal/store"

	_ "github.com/albapepper/scoracle-predict/docs" // swagger docs
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.HealthCheck(ctx); err != nil {
		logger.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// --- Services ---
	st := store.NewPostgres(pool.Pool)
	tables := standings.NewService(st, appCache, logger)
	svc := handler.Services{
		Store:       st,
		Tables:      tables,
		Fixtures:    fixture.NewService(st, tables, cfg.FinalizeMinElapsed, logger),
		Predictions: prediction.NewService(st, cfg.ScoringRules, cfg.PredictionLock, logger).WithCache(appCache),
	}
	logger.Info("Game rules",
		"scoring", svc.Predictions.Rules(),
		"prediction_lock", cfg.PredictionLock,
		"finalize_min_elapsed", cfg.FinalizeMinElapsed)

	// --- Background work ---
	go listener.Start(ctx, cfg.DatabaseURL, appCache, logger)

	deps := maintenance.Deps{Fixtures: svc.Fixtures, Predictions: svc.Predictions}
	if cfg.SportMonksAPIToken != "" {
		deps.Feed = sportmonks.NewClient(cfg.SportMonksAPIToken, cfg.SportMonksRPM, logger)
	} else {
		logger.Info("Results sync disabled (no SPORTMONKS_API_TOKEN)")
	}
	go maintenance.Start(ctx, deps, maintenance.Config{
		KickoffInterval:     cfg.KickoffInterval,
		ResultsSyncInterval: cfg.ResultsSyncInterval,
		ScoringInterval:     cfg.ScoringInterval,
		ScoringWorkers:      cfg.ScoringWorkers,
	}, logger)

	// --- HTTP ---
	router := api.NewRouter(svc, appCache, cfg, logger)

	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting Scoracle Predict API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
