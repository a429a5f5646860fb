package fixture

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/albapepper/scoracle-predict/internal/league"
	"github.com/albapepper/scoracle-predict/internal/standings"
	"github.com/albapepper/scoracle-predict/internal/store"
)

// Service applies fixture state changes.
type Service struct {
	store      store.Store
	tables     *standings.Service
	minElapsed time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// NewService creates a lifecycle service. minElapsed < 0 selects
// DefaultMinElapsed; zero allows finalizing from kickoff on.
func NewService(st store.Store, tables *standings.Service, minElapsed time.Duration, logger *slog.Logger) *Service {
	if minElapsed < 0 {
		minElapsed = DefaultMinElapsed
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      st,
		tables:     tables,
		minElapsed: minElapsed,
		now:        time.Now,
		logger:     logger,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// --------------------------------------------------------------------------
// Kickoff
// --------------------------------------------------------------------------

// StartDue moves scheduled fixtures whose kickoff has passed to in_play.
// Scores are left untouched. fixtureID 0 sweeps every season; otherwise only
// that fixture is considered. Running it again is a no-op.
func (s *Service) StartDue(ctx context.Context, fixtureID int64) StartResult {
	began := time.Now()
	now := s.now()
	var result StartResult

	due, err := s.store.Fixtures(ctx, store.FixtureFilter{
		FixtureID:     fixtureID,
		Statuses:      []league.Status{league.StatusScheduled},
		KickoffBefore: now,
	})
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	result.FixturesDue = len(due)
	if len(due) == 0 {
		return result
	}

	bySeason := make(map[int64][]int64)
	for _, f := range due {
		bySeason[f.SeasonID] = append(bySeason[f.SeasonID], f.ID)
	}
	seasons := make([]int64, 0, len(bySeason))
	for id := range bySeason {
		seasons = append(seasons, id)
	}
	slices.SortFunc(seasons, cmp.Compare[int64])

	for _, seasonID := range seasons {
		started := 0
		err := s.store.InSeasonTx(ctx, seasonID, func(repo store.Repository) error {
			started = 0
			for _, id := range bySeason[seasonID] {
				f, err := repo.LockFixture(ctx, id)
				if err != nil {
					return err
				}
				// Re-check under the lock; another worker may have moved it.
				if f.Status != league.StatusScheduled || f.Kickoff.After(now) {
					continue
				}
				f.Status = league.StatusInPlay
				if err := repo.SaveFixtureState(ctx, f); err != nil {
					return err
				}
				started++
			}
			if started == 0 {
				return nil
			}
			_, err := standings.RecomputeIn(ctx, repo, seasonID)
			return err
		})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("season %d: %s", seasonID, err))
			continue
		}
		if started > 0 {
			s.tables.Invalidate(seasonID)
			result.Seasons++
		}
		result.FixturesStarted += started
	}

	result.Duration = time.Since(began)
	if result.FixturesStarted > 0 || len(result.Errors) > 0 {
		s.logger.Info("Kickoff sweep complete", "summary", result.Summary())
	}
	return result
}

// --------------------------------------------------------------------------
// Live scores
// --------------------------------------------------------------------------

// UpdateLiveScore records a provisional score. A scheduled fixture is
// promoted to in_play; a finished fixture is returned unchanged.
func (s *Service) UpdateLiveScore(ctx context.Context, fixtureID int64, home, away int) (league.Fixture, error) {
	if !validScore(home, away) {
		return league.Fixture{}, fmt.Errorf("live score for fixture %d: %w", fixtureID, ErrInvalidScore)
	}
	return s.setLive(ctx, fixtureID, league.Score(home), league.Score(away))
}

// setLive writes an in_play state. Nil scores keep whatever is stored.
func (s *Service) setLive(ctx context.Context, fixtureID int64, home, away *int) (league.Fixture, error) {
	current, err := s.store.Fixture(ctx, fixtureID)
	if err != nil {
		return current, err
	}

	var out league.Fixture
	changed := false
	err = s.store.InSeasonTx(ctx, current.SeasonID, func(repo store.Repository) error {
		f, err := repo.LockFixture(ctx, fixtureID)
		if err != nil {
			return err
		}
		out = f
		if f.Status == league.StatusFinished {
			return nil
		}
		h, a := home, away
		if h == nil || a == nil {
			h, a = f.HomeScore, f.AwayScore
		}
		if f.Status == league.StatusInPlay && sameScore(f.HomeScore, h) && sameScore(f.AwayScore, a) {
			return nil
		}
		out = withScore(f, league.StatusInPlay, h, a)
		if err := repo.SaveFixtureState(ctx, out); err != nil {
			return err
		}
		changed = true
		_, err = standings.RecomputeIn(ctx, repo, f.SeasonID)
		return err
	})
	if err != nil {
		return league.Fixture{}, err
	}
	if changed {
		s.tables.Invalidate(out.SeasonID)
		s.logger.Info("Live score updated", "fixture_id", fixtureID,
			"home_score", deref(out.HomeScore), "away_score", deref(out.AwayScore))
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Finalization
// --------------------------------------------------------------------------

// Finalize records the final score and marks the fixture finished, then
// rebuilds the season table in the same transaction. Finalizing a fixture
// that is already finished is a no-op that returns the stored fixture.
// Validation failures are *FinalizationError.
func (s *Service) Finalize(ctx context.Context, fixtureID int64, home, away int) (league.Fixture, error) {
	current, err := s.store.Fixture(ctx, fixtureID)
	if err != nil {
		return current, err
	}
	if current.Status == league.StatusFinished {
		return current, nil
	}

	var out league.Fixture
	finalized := false
	err = s.store.InSeasonTx(ctx, current.SeasonID, func(repo store.Repository) error {
		f, err := repo.LockFixture(ctx, fixtureID)
		if err != nil {
			return err
		}
		out = f
		if f.Status == league.StatusFinished {
			return nil
		}
		if err := s.checkFinalizable(f, home, away); err != nil {
			return err
		}

		out = withScore(f, league.StatusFinished, league.Score(home), league.Score(away))
		if err := repo.SaveFixtureState(ctx, out); err != nil {
			return err
		}
		if _, err := standings.RecomputeIn(ctx, repo, f.SeasonID); err != nil {
			return err
		}
		finalized = true
		return nil
	})
	if err != nil {
		return league.Fixture{}, err
	}
	if finalized {
		s.tables.Invalidate(out.SeasonID)
		s.logger.Info("Fixture finalized", "fixture_id", fixtureID,
			"season_id", out.SeasonID, "home_score", home, "away_score", away)
	}
	return out, nil
}

func (s *Service) checkFinalizable(f league.Fixture, home, away int) error {
	now := s.now()
	switch {
	case !validScore(home, away):
		return &FinalizationError{FixtureID: f.ID, Reason: "scores must be non-negative"}
	case now.Before(f.Kickoff):
		return &FinalizationError{FixtureID: f.ID, Reason: "kickoff is still in the future"}
	case now.Sub(f.Kickoff) < s.minElapsed:
		return &FinalizationError{FixtureID: f.ID, Reason: fmt.Sprintf(
			"only %s since kickoff, need at least %s",
			now.Sub(f.Kickoff).Round(time.Minute), s.minElapsed)}
	}
	return nil
}

func sameScore(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func deref(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
