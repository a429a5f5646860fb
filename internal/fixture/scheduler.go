package fixture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/albapepper/scoracle-predict/internal/league"
	"github.com/albapepper/scoracle-predict/internal/standings"
	"github.com/albapepper/scoracle-predict/internal/store"
)

// ErrSeasonScheduled is returned when a season already has fixtures.
var ErrSeasonScheduled = errors.New("season already has fixtures")

// Schedule generates a double round-robin for the season's teams and stores
// the fixtures as scheduled, one matchweek per interval from start. The base
// table is initialized with all-zero rows in the same transaction.
func (s *Service) Schedule(ctx context.Context, seasonID int64, start time.Time, interval time.Duration) ([]league.Fixture, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("schedule season %d: interval must be positive", seasonID)
	}

	var fixtures []league.Fixture
	err := s.store.InSeasonTx(ctx, seasonID, func(repo store.Repository) error {
		existing, err := repo.Fixtures(ctx, store.FixtureFilter{SeasonID: seasonID})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return fmt.Errorf("schedule season %d: %w", seasonID, ErrSeasonScheduled)
		}

		teams, err := repo.Teams(ctx, seasonID)
		if err != nil {
			return err
		}
		if len(teams) < 2 {
			return fmt.Errorf("schedule season %d: need at least 2 teams, have %d", seasonID, len(teams))
		}
		ids := make([]int64, len(teams))
		for i, t := range teams {
			ids[i] = t.ID
		}

		fixtures = league.ScheduleFixtures(seasonID, league.DoubleRoundRobin(ids), start, interval)
		if _, err := repo.InsertFixtures(ctx, fixtures); err != nil {
			return err
		}
		_, err = standings.RecomputeIn(ctx, repo, seasonID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.tables.Invalidate(seasonID)
	s.logger.Info("Season scheduled", "season_id", seasonID, "fixtures", len(fixtures),
		"first_kickoff", start.Format(time.RFC3339))
	return fixtures, nil
}
