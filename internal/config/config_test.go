package config

import (
	"testing"
	"time"

	"github.com/albapepper/scoracle-predict/internal/scoring"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/predict")
	for _, k := range []string{"PREDICTION_LOCK_MINUTES", "FINALIZE_MIN_ELAPSED_MINUTES", "SCORING_RULES", "API_PORT", "PORT"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PredictionLock != time.Hour {
		t.Errorf("PredictionLock = %s, want 1h", cfg.PredictionLock)
	}
	if cfg.FinalizeMinElapsed != time.Hour {
		t.Errorf("FinalizeMinElapsed = %s, want 1h", cfg.FinalizeMinElapsed)
	}
	if cfg.ScoringRules != scoring.RulesStandard {
		t.Errorf("ScoringRules = %q", cfg.ScoringRules)
	}
	if cfg.APIPort != 8000 {
		t.Errorf("APIPort = %d", cfg.APIPort)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/predict")
	t.Setenv("PREDICTION_LOCK_MINUTES", "30")
	t.Setenv("SCORING_RULES", "classic")
	t.Setenv("PORT", "9090")
	t.Setenv("API_PORT", "")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PredictionLock != 30*time.Minute {
		t.Errorf("PredictionLock = %s", cfg.PredictionLock)
	}
	if cfg.ScoringRules != scoring.RulesClassic {
		t.Errorf("ScoringRules = %q", cfg.ScoringRules)
	}
	if cfg.APIPort != 9090 {
		t.Errorf("APIPort = %d, want PORT fallback", cfg.APIPort)
	}
	if len(cfg.CORSAllowOrigins) != 2 || cfg.CORSAllowOrigins[1] != "https://b.example" {
		t.Errorf("CORSAllowOrigins = %v", cfg.CORSAllowOrigins)
	}
}

func TestLoadRejectsUnknownRules(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/predict")
	t.Setenv("SCORING_RULES", "fantasy")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown scoring rules")
	}
}

func TestLoadRejectsNegativeWindows(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/predict")
	t.Setenv("SCORING_RULES", "")
	t.Setenv("PREDICTION_LOCK_MINUTES", "-5")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative lock window")
	}
}
