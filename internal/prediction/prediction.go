// Package prediction accepts score predictions until they lock before
// kickoff, and awards points once a fixture is finished.
//
// Scoring is at most once per fixture: the fixture's points_calculated flag
// is set in the same transaction that writes the awarded points, so running
// a scoring pass again leaves earlier awards untouched.
package prediction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/albapepper/scoracle-predict/internal/cache"
	"github.com/albapepper/scoracle-predict/internal/league"
	"github.com/albapepper/scoracle-predict/internal/scoring"
	"github.com/albapepper/scoracle-predict/internal/store"
)

// DefaultLock is how long before kickoff predictions close.
const DefaultLock = time.Hour

var (
	// ErrLocked is returned for submissions at or after the lock time.
	ErrLocked = errors.New("predictions are locked for this fixture")
	// ErrInvalidScore is returned for negative predicted scores.
	ErrInvalidScore = errors.New("predicted scores must be non-negative")
)

// LockTime returns the instant predictions close for a kickoff.
func LockTime(kickoff time.Time, lock time.Duration) time.Time {
	return kickoff.Add(-lock)
}

// Service handles submissions and scoring.
type Service struct {
	store  store.Store
	rules  scoring.Rules
	lock   time.Duration
	now    func() time.Time
	cache  *cache.Cache
	logger *slog.Logger
}

// NewService creates a prediction service. An empty rules value selects the
// standard rules; lock < 0 selects DefaultLock.
func NewService(st store.Store, rules scoring.Rules, lock time.Duration, logger *slog.Logger) *Service {
	if rules == "" {
		rules = scoring.RulesStandard
	}
	if lock < 0 {
		lock = DefaultLock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, rules: rules, lock: lock, now: time.Now, logger: logger}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithCache makes scoring drop the cached leaderboards it changes.
func (s *Service) WithCache(c *cache.Cache) *Service {
	s.cache = c
	return s
}

// Rules returns the rule set used for scoring.
func (s *Service) Rules() scoring.Rules { return s.rules }

// LockTime returns when predictions for f close.
func (s *Service) LockTime(f league.Fixture) time.Time {
	return LockTime(f.Kickoff, s.lock)
}

// IsLocked reports whether f no longer accepts predictions. Fixtures that
// have left the scheduled state are always locked.
func (s *Service) IsLocked(f league.Fixture) bool {
	return f.Status != league.StatusScheduled || !s.now().Before(s.LockTime(f))
}

// Submit creates or replaces the user's prediction for a fixture. Replacing
// a prediction clears any points it carried.
func (s *Service) Submit(ctx context.Context, userID, fixtureID int64, home, away int) (league.Prediction, error) {
	if home < 0 || away < 0 {
		return league.Prediction{}, ErrInvalidScore
	}

	p := league.Prediction{UserID: userID, FixtureID: fixtureID, HomeScore: home, AwayScore: away}
	err := s.store.InTx(ctx, func(repo store.Repository) error {
		f, err := repo.LockFixture(ctx, fixtureID)
		if err != nil {
			return err
		}
		if s.IsLocked(f) {
			return fmt.Errorf("fixture %d locked at %s: %w",
				fixtureID, s.LockTime(f).Format(time.RFC3339), ErrLocked)
		}
		return repo.UpsertPrediction(ctx, &p)
	})
	if err != nil {
		return league.Prediction{}, err
	}

	s.logger.Debug("Prediction saved", "prediction_id", p.ID, "user_id", userID, "fixture_id", fixtureID)
	return p, nil
}

// Get returns one prediction.
func (s *Service) Get(ctx context.Context, predictionID int64) (league.Prediction, error) {
	return s.store.Prediction(ctx, predictionID)
}

// Points returns the points awarded to a prediction, nil while unscored.
func (s *Service) Points(ctx context.Context, predictionID int64) (*int, error) {
	p, err := s.store.Prediction(ctx, predictionID)
	if err != nil {
		return nil, err
	}
	return p.PointsAwarded, nil
}

// Leaderboard ranks users by total awarded points. seasonID 0 ranks across
// all seasons.
func (s *Service) Leaderboard(ctx context.Context, seasonID int64, limit int) ([]store.LeaderboardRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.store.Leaderboard(ctx, seasonID, limit)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []store.LeaderboardRow{}
	}
	return rows, nil
}
