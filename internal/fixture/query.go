package fixture

import (
	"context"
	"fmt"
	"time"

	"github.com/albapepper/scoracle-predict/internal/league"
	"github.com/albapepper/scoracle-predict/internal/store"
)

// LiveCandidates returns in-play fixtures ordered by kickoff.
func (s *Service) LiveCandidates(ctx context.Context) ([]league.Fixture, error) {
	fixtures, err := s.store.Fixtures(ctx, store.FixtureFilter{
		Statuses: []league.Status{league.StatusInPlay},
	})
	if err != nil {
		return nil, fmt.Errorf("live candidates: %w", err)
	}
	return fixtures, nil
}

// FinalizeCandidates returns unfinished fixtures that kicked off at least
// olderThan ago. olderThan <= 0 uses the service's minimum elapsed time.
func (s *Service) FinalizeCandidates(ctx context.Context, olderThan time.Duration) ([]league.Fixture, error) {
	if olderThan <= 0 {
		olderThan = s.minElapsed
	}
	fixtures, err := s.store.Fixtures(ctx, store.FixtureFilter{
		Statuses:      []league.Status{league.StatusScheduled, league.StatusInPlay},
		KickoffBefore: s.now().Add(-olderThan),
	})
	if err != nil {
		return nil, fmt.Errorf("finalize candidates: %w", err)
	}
	return fixtures, nil
}

// Get returns one fixture.
func (s *Service) Get(ctx context.Context, fixtureID int64) (league.Fixture, error) {
	return s.store.Fixture(ctx, fixtureID)
}
