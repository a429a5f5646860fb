// Package standings maintains the persisted base league table and serves the
// live view. A recompute always rebuilds the whole season from its finished
// fixtures and runs under the season lock, in the same transaction as the
// fixture change that triggered it.
package standings

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/albapepper/scoracle-predict/internal/cache"
	"github.com/albapepper/scoracle-predict/internal/league"
	"github.com/albapepper/scoracle-predict/internal/store"
)

// Service reads and rebuilds league tables.
type Service struct {
	store  store.Store
	cache  *cache.Cache
	logger *slog.Logger
}

// NewService creates a table service. c may be nil.
func NewService(st store.Store, c *cache.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, cache: c, logger: logger}
}

// Recompute rebuilds and persists a season's base table in its own
// transaction.
func (s *Service) Recompute(ctx context.Context, seasonID int64) ([]league.Standing, error) {
	var rows []league.Standing
	err := s.store.InSeasonTx(ctx, seasonID, func(repo store.Repository) error {
		var err error
		rows, err = RecomputeIn(ctx, repo, seasonID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Invalidate(seasonID)
	s.logger.Info("League table recomputed", "season_id", seasonID, "teams", len(rows))
	return rows, nil
}

// RecomputeIn rebuilds a season's base table through repo. The caller owns
// the transaction and must hold the season lock.
func RecomputeIn(ctx context.Context, repo store.Repository, seasonID int64) ([]league.Standing, error) {
	teams, err := repo.Teams(ctx, seasonID)
	if err != nil {
		return nil, fmt.Errorf("recompute season %d: %w", seasonID, err)
	}
	fixtures, err := repo.Fixtures(ctx, store.FixtureFilter{
		SeasonID: seasonID,
		Statuses: []league.Status{league.StatusFinished},
	})
	if err != nil {
		return nil, fmt.Errorf("recompute season %d: %w", seasonID, err)
	}

	rows := league.ComputeStandings(seasonID, teams, fixtures)
	if err := repo.SaveStandings(ctx, seasonID, rows); err != nil {
		return nil, fmt.Errorf("recompute season %d: %w", seasonID, err)
	}
	return rows, nil
}

// Invalidate drops cached views of the season.
func (s *Service) Invalidate(seasonID int64) {
	if s.cache == nil {
		return
	}
	if n := s.cache.InvalidateSeason(seasonID); n > 0 {
		s.logger.Debug("Invalidated cached tables", "season_id", seasonID, "keys", n)
	}
}

// Base returns the persisted table, ranked on finished fixtures only. A
// season that has never been recomputed is computed on the fly, and teams
// registered since the last recompute are added with all-zero rows.
func (s *Service) Base(ctx context.Context, seasonID int64) ([]league.Standing, error) {
	teams, err := s.store.Teams(ctx, seasonID)
	if err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}
	rows, err := s.store.Standings(ctx, seasonID)
	if err != nil {
		return nil, fmt.Errorf("load standings: %w", err)
	}
	if len(rows) > 0 {
		return withMissingTeams(seasonID, rows, teams), nil
	}

	if len(teams) == 0 {
		return []league.Standing{}, nil
	}
	fixtures, err := s.store.Fixtures(ctx, store.FixtureFilter{
		SeasonID: seasonID,
		Statuses: []league.Status{league.StatusFinished},
	})
	if err != nil {
		return nil, fmt.Errorf("load fixtures: %w", err)
	}
	return league.ComputeStandings(seasonID, teams, fixtures), nil
}

// withMissingTeams appends a zero row for every team without a persisted
// row and re-ranks when any were added.
func withMissingTeams(seasonID int64, rows []league.Standing, teams []league.Team) []league.Standing {
	have := make(map[int64]bool, len(rows))
	for _, r := range rows {
		have[r.Team.ID] = true
	}
	added := false
	for _, t := range teams {
		if !have[t.ID] {
			rows = append(rows, league.Standing{SeasonID: seasonID, Team: t})
			added = true
		}
	}
	if added {
		league.RankStandings(rows)
	}
	return rows
}

// Live returns the base table with in-play fixtures overlaid and re-ranked.
// Nothing from the overlay is persisted.
func (s *Service) Live(ctx context.Context, seasonID int64) ([]league.Entry, error) {
	base, err := s.Base(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	live, err := s.store.Fixtures(ctx, store.FixtureFilter{
		SeasonID: seasonID,
		Statuses: []league.Status{league.StatusInPlay},
	})
	if err != nil {
		return nil, fmt.Errorf("load live fixtures: %w", err)
	}
	return league.LiveTable(base, live), nil
}
