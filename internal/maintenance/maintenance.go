// Package maintenance runs the game's periodic background work as Go
// tickers: starting fixtures at kickoff, pulling results from the feed and
// scoring finished fixtures. The API process runs these alongside the
// LISTEN/NOTIFY consumer.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/albapepper/scoracle-predict/internal/fixture"
	"github.com/albapepper/scoracle-predict/internal/prediction"
)

// Config controls task intervals. Zero duration disables a task.
type Config struct {
	KickoffInterval     time.Duration // scheduled → in_play once kickoff passes
	ResultsSyncInterval time.Duration // live and final scores from the feed
	ScoringInterval     time.Duration // award points for finished fixtures
	ScoringWorkers      int
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		KickoffInterval:     time.Minute,
		ResultsSyncInterval: 2 * time.Minute,
		ScoringInterval:     5 * time.Minute,
		ScoringWorkers:      4,
	}
}

// Deps are the services the tasks drive. Feed may be nil, which disables
// the results sync.
type Deps struct {
	Fixtures    *fixture.Service
	Predictions *prediction.Service
	Feed        fixture.ResultsFeed
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, deps Deps, cfg Config, logger *slog.Logger) {
	if deps.Feed == nil {
		cfg.ResultsSyncInterval = 0
	}
	logger.Info("Maintenance tickers started",
		"kickoff", cfg.KickoffInterval,
		"results_sync", cfg.ResultsSyncInterval,
		"scoring", cfg.ScoringInterval)

	tickers := make([]*time.Ticker, 0, 3)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	if cfg.KickoffInterval > 0 {
		t := time.NewTicker(cfg.KickoffInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, "kickoff", func() { kickoffSweep(ctx, deps, logger) })
	}

	if cfg.ResultsSyncInterval > 0 {
		t := time.NewTicker(cfg.ResultsSyncInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, "results_sync", func() { resultsSync(ctx, deps, cfg.ScoringWorkers, logger) })
	}

	// Also catches fixtures finalized by hand or missed while down.
	if cfg.ScoringInterval > 0 {
		t := time.NewTicker(cfg.ScoringInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, "scoring", func() { scoringSweep(ctx, deps, cfg.ScoringWorkers, logger) })
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, name string, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

func kickoffSweep(ctx context.Context, deps Deps, logger *slog.Logger) {
	res := deps.Fixtures.StartDue(ctx, 0)
	for _, e := range res.Errors {
		logger.Warn("Kickoff sweep: season failed", "error", e)
	}
}

func resultsSync(ctx context.Context, deps Deps, workers int, logger *slog.Logger) {
	res := deps.Fixtures.SyncResults(ctx, deps.Feed)
	for _, e := range res.Errors {
		logger.Warn("Results sync: error", "error", e)
	}
	AfterSync(ctx, deps.Predictions, res, workers, logger)
}

func scoringSweep(ctx context.Context, deps Deps, workers int, logger *slog.Logger) {
	res := deps.Predictions.ProcessPending(ctx, workers)
	for _, e := range res.Errors {
		logger.Warn("Scoring sweep: fixture failed", "run_id", res.RunID, "error", e)
	}
}
