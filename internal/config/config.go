// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/predictor.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/albapepper/scoracle-predict/internal/scoring"
)

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Game rules
	PredictionLock     time.Duration // predictions close this long before kickoff
	FinalizeMinElapsed time.Duration // earliest a fixture may be finalized after kickoff
	ScoringRules       scoring.Rules

	// Background sweeps
	KickoffInterval     time.Duration
	ResultsSyncInterval time.Duration
	ScoringInterval     time.Duration
	ScoringWorkers      int

	// External API keys
	SportMonksAPIToken string
	SportMonksRPM      int

	// Cache
	CacheEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	rules, err := scoring.ParseRules(envOr("SCORING_RULES", string(scoring.RulesStandard)))
	if err != nil {
		return nil, fmt.Errorf("SCORING_RULES: %w", err)
	}

	cfg := &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		PredictionLock:     time.Duration(envInt("PREDICTION_LOCK_MINUTES", 60)) * time.Minute,
		FinalizeMinElapsed: time.Duration(envInt("FINALIZE_MIN_ELAPSED_MINUTES", 60)) * time.Minute,
		ScoringRules:       rules,

		KickoffInterval:     time.Duration(envInt("KICKOFF_INTERVAL_SECONDS", 60)) * time.Second,
		ResultsSyncInterval: time.Duration(envInt("RESULTS_SYNC_INTERVAL_SECONDS", 120)) * time.Second,
		ScoringInterval:     time.Duration(envInt("SCORING_INTERVAL_SECONDS", 300)) * time.Second,
		ScoringWorkers:      envInt("SCORING_WORKERS", 4),

		SportMonksAPIToken: envOr("SPORTMONKS_API_TOKEN", ""),
		SportMonksRPM:      envInt("SPORTMONKS_RPM", 50),

		CacheEnabled: envBool("CACHE_ENABLED", true),
	}

	if cfg.PredictionLock < 0 || cfg.FinalizeMinElapsed < 0 {
		return nil, fmt.Errorf("PREDICTION_LOCK_MINUTES and FINALIZE_MIN_ELAPSED_MINUTES must not be negative")
	}
	return cfg, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
