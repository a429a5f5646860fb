// Package store defines the repositories the scoring and table services work
// against, with a Postgres implementation (pgx) and an in-memory one.
//
// Every mutation that must be atomic with a table recompute runs through
// InSeasonTx, which serializes writers per season.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/albapepper/scoracle-predict/internal/league"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// FixtureFilter narrows a fixture query. Zero values mean "any".
type FixtureFilter struct {
	SeasonID      int64
	FixtureID     int64
	Statuses      []league.Status
	KickoffBefore time.Time // kickoff at or before this instant
	PointsPending bool      // finished, both scores set, not yet scored
	ExternalOnly  bool      // only fixtures linked to the results feed
}

// LeaderboardRow is a user's accumulated prediction points.
type LeaderboardRow struct {
	Position    int    `json:"position"`
	UserID      int64  `json:"user_id"`
	Name        string `json:"name"`
	Points      int    `json:"points"`
	Predictions int    `json:"predictions"`
}

// Repository is the data access surface used by the services.
type Repository interface {
	// Teams returns the teams registered for a season.
	Teams(ctx context.Context, seasonID int64) ([]league.Team, error)

	Fixtures(ctx context.Context, filter FixtureFilter) ([]league.Fixture, error)
	Fixture(ctx context.Context, id int64) (league.Fixture, error)
	// LockFixture reads a fixture and holds a row lock until the
	// surrounding transaction ends.
	LockFixture(ctx context.Context, id int64) (league.Fixture, error)
	// SaveFixtureState writes status and scores.
	SaveFixtureState(ctx context.Context, f league.Fixture) error
	InsertFixtures(ctx context.Context, fixtures []league.Fixture) (int, error)
	MarkPointsCalculated(ctx context.Context, fixtureID int64) error

	Predictions(ctx context.Context, fixtureID int64) ([]league.Prediction, error)
	Prediction(ctx context.Context, id int64) (league.Prediction, error)
	// UpsertPrediction inserts or replaces the (user, fixture) prediction,
	// clearing any awarded points, and fills in p.ID and p.UpdatedAt.
	UpsertPrediction(ctx context.Context, p *league.Prediction) error
	AwardPoints(ctx context.Context, predictionID int64, points int) error

	Standings(ctx context.Context, seasonID int64) ([]league.Standing, error)
	// SaveStandings upserts every row and drops rows for teams no longer
	// in the season.
	SaveStandings(ctx context.Context, seasonID int64, rows []league.Standing) error

	// Leaderboard ranks users by awarded points. seasonID 0 covers all
	// seasons.
	Leaderboard(ctx context.Context, seasonID int64, limit int) ([]LeaderboardRow, error)
}

// Store is a Repository that can open transactions.
type Store interface {
	Repository

	// InTx runs fn in a single transaction.
	InTx(ctx context.Context, fn func(Repository) error) error
	// InSeasonTx runs fn in a single transaction holding the season's
	// exclusive table lock.
	InSeasonTx(ctx context.Context, seasonID int64, fn func(Repository) error) error

	Ping(ctx context.Context) error
}
