package fixture

import (
	"context"
	"errors"
	"time"

	"github.com/albapepper/scoracle-predict/internal/league"
	"github.com/albapepper/scoracle-predict/internal/provider/sportmonks"
	"github.com/albapepper/scoracle-predict/internal/store"
)

// ResultsFeed supplies external fixture states. *sportmonks.Client
// satisfies it.
type ResultsFeed interface {
	Results(ctx context.Context, externalIDs []int64) ([]sportmonks.Result, error)
}

// SyncResults polls the feed for every linked fixture that has kicked off
// but is not finished. In-play states update the live score; finished
// states finalize. Fixtures the feed cannot finalize yet (too early, bad
// data) are skipped and retried on the next run.
func (s *Service) SyncResults(ctx context.Context, feed ResultsFeed) SyncResult {
	began := time.Now()
	now := s.now()
	var result SyncResult

	pending, err := s.store.Fixtures(ctx, store.FixtureFilter{
		Statuses:      []league.Status{league.StatusScheduled, league.StatusInPlay},
		KickoffBefore: now,
		ExternalOnly:  true,
	})
	if err != nil {
		result.AddErrorf("list fixtures: %s", err)
		return result
	}
	if len(pending) == 0 {
		return result
	}

	byExternal := make(map[int64]league.Fixture, len(pending))
	ids := make([]int64, 0, len(pending))
	for _, f := range pending {
		byExternal[*f.ExternalID] = f
		ids = append(ids, *f.ExternalID)
	}

	results, err := feed.Results(ctx, ids)
	if err != nil {
		result.AddErrorf("fetch results: %s", err)
		if len(results) == 0 {
			result.Duration = time.Since(began)
			return result
		}
	}

	for _, r := range results {
		f, ok := byExternal[r.ExternalID]
		if !ok {
			continue
		}
		result.FixturesChecked++

		switch r.Status {
		case league.StatusInPlay:
			if _, err := s.setLive(ctx, f.ID, r.HomeScore, r.AwayScore); err != nil {
				result.AddErrorf("fixture %d: %s", f.ID, err)
				continue
			}
			result.LiveUpdated++

		case league.StatusFinished:
			if r.HomeScore == nil || r.AwayScore == nil {
				result.Skipped++
				continue
			}
			_, err := s.Finalize(ctx, f.ID, *r.HomeScore, *r.AwayScore)
			var ferr *FinalizationError
			switch {
			case errors.As(err, &ferr):
				s.logger.Warn("Feed result not finalizable yet", "fixture_id", f.ID, "reason", ferr.Reason)
				result.Skipped++
			case err != nil:
				result.AddErrorf("fixture %d: %s", f.ID, err)
			default:
				result.FixturesFinalized++
			}

		default:
			// Not started on the feed, or postponed/cancelled.
			result.Skipped++
		}
	}

	result.Duration = time.Since(began)
	s.logger.Info("Results sync complete", "summary", result.Summary())
	return result
}
