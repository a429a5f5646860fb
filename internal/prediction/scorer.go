package prediction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/albapepper/scoracle-predict/internal/store"
)

// FixtureResult tracks the scoring of a single fixture.
type FixtureResult struct {
	FixtureID   int64
	Predictions int
	Points      int
	Skipped     bool // not finished, missing a score, or already scored
	Error       string
}

// Summary returns a human-readable summary.
func (r *FixtureResult) Summary() string {
	status := "ok"
	switch {
	case r.Error != "":
		status = "FAILED"
	case r.Skipped:
		status = "skipped"
	}
	return fmt.Sprintf("fixture=%d predictions=%d points=%d status=%s",
		r.FixtureID, r.Predictions, r.Points, status)
}

// RunResult tracks a full scoring pass.
type RunResult struct {
	RunID             string
	FixturesFound     int
	FixturesScored    int
	FixturesSkipped   int
	FixturesFailed    int
	PredictionsScored int
	PointsAwarded     int
	Duration          time.Duration
	Errors            []string
	Results           []FixtureResult
}

// Summary returns a human-readable summary.
func (r *RunResult) Summary() string {
	return fmt.Sprintf(
		"run=%s found=%d scored=%d skipped=%d failed=%d predictions=%d points=%d dur=%s",
		r.RunID, r.FixturesFound, r.FixturesScored, r.FixturesSkipped, r.FixturesFailed,
		r.PredictionsScored, r.PointsAwarded, r.Duration.Round(time.Millisecond))
}

// AddErrorf records a formatted error.
func (r *RunResult) AddErrorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// ScoreFixture awards points to every prediction on a finished fixture and
// marks it scored, all in one transaction. Fixtures that are not finished,
// lack a score, or were already scored are skipped without error.
func (s *Service) ScoreFixture(ctx context.Context, fixtureID int64) (FixtureResult, error) {
	result := FixtureResult{FixtureID: fixtureID}
	var seasonID int64

	err := s.store.InTx(ctx, func(repo store.Repository) error {
		result.Predictions, result.Points, result.Skipped = 0, 0, false

		f, err := repo.LockFixture(ctx, fixtureID)
		if err != nil {
			return err
		}
		if !f.Scoreable() {
			result.Skipped = true
			return nil
		}
		seasonID = f.SeasonID

		predictions, err := repo.Predictions(ctx, fixtureID)
		if err != nil {
			return err
		}
		for _, p := range predictions {
			points := s.rules.Score(*f.HomeScore, *f.AwayScore, p.HomeScore, p.AwayScore)
			if err := repo.AwardPoints(ctx, p.ID, points); err != nil {
				return err
			}
			result.Predictions++
			result.Points += points
		}
		return repo.MarkPointsCalculated(ctx, fixtureID)
	})
	if err != nil {
		result.Error = err.Error()
		return result, fmt.Errorf("score fixture %d: %w", fixtureID, err)
	}
	if !result.Skipped {
		if s.cache != nil {
			s.cache.InvalidateLeaderboards(seasonID)
		}
		s.logger.Info("Fixture scored", "summary", result.Summary(), "rules", s.rules)
	}
	return result, nil
}

// ProcessPending scores every finished, unscored fixture using a pool of
// workers, one fixture per job. Failures are collected, not fatal.
func (s *Service) ProcessPending(ctx context.Context, workers int) RunResult {
	start := time.Now()
	result := RunResult{RunID: uuid.NewString()}

	pending, err := s.store.Fixtures(ctx, store.FixtureFilter{PointsPending: true})
	if err != nil {
		result.AddErrorf("list pending fixtures: %s", err)
		result.Duration = time.Since(start)
		return result
	}

	result.FixturesFound = len(pending)
	if len(pending) == 0 {
		result.Duration = time.Since(start)
		return result
	}

	s.logger.Info("Found fixtures to score", "run_id", result.RunID, "count", len(pending))

	if workers < 1 {
		workers = 1
	}
	if workers > len(pending) {
		workers = len(pending)
	}

	ch := make(chan int64, len(pending))
	for _, f := range pending {
		ch <- f.ID
	}
	close(ch)

	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range ch {
				if ctx.Err() != nil {
					return
				}
				r, err := s.ScoreFixture(ctx, id)

				mu.Lock()
				result.Results = append(result.Results, r)
				switch {
				case err != nil:
					result.FixturesFailed++
					result.AddErrorf("fixture %d: %s", id, r.Error)
				case r.Skipped:
					result.FixturesSkipped++
				default:
					result.FixturesScored++
					result.PredictionsScored += r.Predictions
					result.PointsAwarded += r.Points
				}
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	result.Duration = time.Since(start)

	s.logger.Info("Scoring run complete", "summary", result.Summary())
	return result
}
