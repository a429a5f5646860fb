package maintenance

import (
	"context"
	"log/slog"

	"github.com/albapepper/scoracle-predict/internal/fixture"
	"github.com/albapepper/scoracle-predict/internal/prediction"
)

// AfterSync scores straight away when a results sync finalized fixtures, so
// points do not wait for the next scoring tick. Returns the scoring run, or
// nil when nothing was finalized.
func AfterSync(ctx context.Context, preds *prediction.Service, res fixture.SyncResult, workers int, logger *slog.Logger) *prediction.RunResult {
	if res.FixturesFinalized == 0 || preds == nil {
		return nil
	}
	run := preds.ProcessPending(ctx, workers)
	logger.Info("Scored fixtures finalized by results sync",
		"finalized", res.FixturesFinalized, "run_id", run.RunID, "scored", run.FixturesScored)
	return &run
}
