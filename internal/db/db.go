// Package db provides a pgxpool-based connection pool with prepared statement
// registration, health checking and schema migration.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/scoracle-predict/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers the fixed-shape queries the store
// runs on every request. Filtered fixture queries are built per call.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Teams
		"season_teams": `SELECT t.id, t.name FROM season_teams st
			JOIN teams t ON t.id = st.team_id
			WHERE st.season_id = $1 ORDER BY t.name, t.id`,

		// Fixtures
		"fixture_by_id": `SELECT id, season_id, home_team_id, away_team_id, kickoff_at, matchweek,
			status, home_score, away_score, points_calculated, external_id
			FROM fixtures WHERE id = $1`,
		"fixture_for_update": `SELECT id, season_id, home_team_id, away_team_id, kickoff_at, matchweek,
			status, home_score, away_score, points_calculated, external_id
			FROM fixtures WHERE id = $1 FOR UPDATE`,

		// Predictions
		"predictions_by_fixture": `SELECT id, user_id, fixture_id, home_score_predicted, away_score_predicted,
			points_awarded, updated_at
			FROM predictions WHERE fixture_id = $1 ORDER BY id`,
		"prediction_by_id": `SELECT id, user_id, fixture_id, home_score_predicted, away_score_predicted,
			points_awarded, updated_at
			FROM predictions WHERE id = $1`,

		// League table
		"standings_by_season": `SELECT t.id, t.name, lt.position, lt.played, lt.won, lt.drawn, lt.lost,
			lt.goals_for, lt.goals_against, lt.goal_difference, lt.points, lt.form
			FROM league_tables lt JOIN teams t ON t.id = lt.team_id
			WHERE lt.season_id = $1 ORDER BY lt.position`,

		// Leaderboard ($1 = 0 means every season)
		"user_leaderboard": `SELECT u.id, u.name, SUM(p.points_awarded)::int AS total, COUNT(p.id)::int
			FROM predictions p
			JOIN users u ON u.id = p.user_id
			JOIN fixtures f ON f.id = p.fixture_id
			WHERE p.points_awarded IS NOT NULL AND ($1::bigint = 0 OR f.season_id = $1)
			GROUP BY u.id, u.name
			ORDER BY total DESC, u.name, u.id
			LIMIT $2`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
