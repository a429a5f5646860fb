package store

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/scoracle-predict/internal/league"
)

// seasonLockKey is the bigint advisory lock key for a season. The full
// season ID is hashed under a fixed prefix, so no two seasons share a key
// through truncation.
func seasonLockKey(seasonID int64) int64 {
	h := fnv.New64a()
	h.Write([]byte("scoracle-predict:season:"))
	h.Write(strconv.AppendInt(nil, seasonID, 10))
	return int64(h.Sum64())
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// Postgres is the pgx-backed Store. Named queries refer to statements
// prepared on every pool connection by the db package.
type Postgres struct {
	queries
	pool *pgxpool.Pool
}

// NewPostgres wraps a connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{queries: queries{q: pool}, pool: pool}
}

// Ping checks connectivity.
func (s *Postgres) Ping(ctx context.Context) error {
	var n int
	return s.pool.QueryRow(ctx, "health_check").Scan(&n)
}

// InTx runs fn inside a transaction, rolling back on error.
func (s *Postgres) InTx(ctx context.Context, fn func(Repository) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(queries{q: tx})
	})
}

// InSeasonTx takes a transaction-scoped advisory lock on the season before
// running fn, so concurrent recomputes of one season never interleave.
func (s *Postgres) InSeasonTx(ctx context.Context, seasonID int64, fn func(Repository) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", seasonLockKey(seasonID)); err != nil {
			return fmt.Errorf("lock season %d: %w", seasonID, err)
		}
		return fn(queries{q: tx})
	})
}

// queries implements Repository over any querier.
type queries struct {
	q querier
}

// --------------------------------------------------------------------------
// Teams
// --------------------------------------------------------------------------

func (r queries) Teams(ctx context.Context, seasonID int64) ([]league.Team, error) {
	rows, err := r.q.Query(ctx, "season_teams", seasonID)
	if err != nil {
		return nil, fmt.Errorf("query season teams: %w", err)
	}
	defer rows.Close()

	var teams []league.Team
	for rows.Next() {
		var t league.Team
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// --------------------------------------------------------------------------
// Fixtures
// --------------------------------------------------------------------------

const fixtureColumns = `id, season_id, home_team_id, away_team_id, kickoff_at, matchweek,
	status, home_score, away_score, points_calculated, external_id`

func scanFixture(row pgx.Row) (league.Fixture, error) {
	var f league.Fixture
	var status string
	err := row.Scan(
		&f.ID, &f.SeasonID, &f.HomeTeamID, &f.AwayTeamID, &f.Kickoff, &f.Matchweek,
		&status, &f.HomeScore, &f.AwayScore, &f.PointsCalculated, &f.ExternalID,
	)
	f.Status = league.Status(status)
	return f, err
}

func (r queries) Fixtures(ctx context.Context, filter FixtureFilter) ([]league.Fixture, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.SeasonID != 0 {
		where = append(where, "season_id = "+arg(filter.SeasonID))
	}
	if filter.FixtureID != 0 {
		where = append(where, "id = "+arg(filter.FixtureID))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		where = append(where, "status = ANY("+arg(statuses)+")")
	}
	if !filter.KickoffBefore.IsZero() {
		where = append(where, "kickoff_at <= "+arg(filter.KickoffBefore))
	}
	if filter.PointsPending {
		where = append(where, "status = 'finished' AND NOT points_calculated AND home_score IS NOT NULL AND away_score IS NOT NULL")
	}
	if filter.ExternalOnly {
		where = append(where, "external_id IS NOT NULL")
	}

	sql := "SELECT " + fixtureColumns + " FROM fixtures"
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += " ORDER BY kickoff_at, id"

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query fixtures: %w", err)
	}
	defer rows.Close()

	var fixtures []league.Fixture
	for rows.Next() {
		f, err := scanFixture(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fixture: %w", err)
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, rows.Err()
}

func (r queries) Fixture(ctx context.Context, id int64) (league.Fixture, error) {
	f, err := scanFixture(r.q.QueryRow(ctx, "fixture_by_id", id))
	if err != nil {
		return f, notFound(fmt.Sprintf("fixture %d", id), err)
	}
	return f, nil
}

func (r queries) LockFixture(ctx context.Context, id int64) (league.Fixture, error) {
	f, err := scanFixture(r.q.QueryRow(ctx, "fixture_for_update", id))
	if err != nil {
		return f, notFound(fmt.Sprintf("lock fixture %d", id), err)
	}
	return f, nil
}

func (r queries) SaveFixtureState(ctx context.Context, f league.Fixture) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE fixtures
		SET status = $2, home_score = $3, away_score = $4, updated_at = NOW()
		WHERE id = $1`, f.ID, string(f.Status), f.HomeScore, f.AwayScore)
	if err != nil {
		return fmt.Errorf("update fixture %d: %w", f.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update fixture %d: %w", f.ID, ErrNotFound)
	}
	return nil
}

func (r queries) InsertFixtures(ctx context.Context, fixtures []league.Fixture) (int, error) {
	n, err := r.q.CopyFrom(ctx,
		pgx.Identifier{"fixtures"},
		[]string{"season_id", "home_team_id", "away_team_id", "kickoff_at", "matchweek", "status"},
		pgx.CopyFromSlice(len(fixtures), func(i int) ([]any, error) {
			f := fixtures[i]
			return []any{f.SeasonID, f.HomeTeamID, f.AwayTeamID, f.Kickoff, f.Matchweek, string(f.Status)}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy fixtures: %w", err)
	}
	return int(n), nil
}

func (r queries) MarkPointsCalculated(ctx context.Context, fixtureID int64) error {
	_, err := r.q.Exec(ctx, `
		UPDATE fixtures SET points_calculated = true, updated_at = NOW()
		WHERE id = $1`, fixtureID)
	if err != nil {
		return fmt.Errorf("mark fixture %d scored: %w", fixtureID, err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Predictions
// --------------------------------------------------------------------------

func scanPrediction(row pgx.Row) (league.Prediction, error) {
	var p league.Prediction
	err := row.Scan(&p.ID, &p.UserID, &p.FixtureID, &p.HomeScore, &p.AwayScore, &p.PointsAwarded, &p.UpdatedAt)
	return p, err
}

func (r queries) Predictions(ctx context.Context, fixtureID int64) ([]league.Prediction, error) {
	rows, err := r.q.Query(ctx, "predictions_by_fixture", fixtureID)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	var predictions []league.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}

func (r queries) Prediction(ctx context.Context, id int64) (league.Prediction, error) {
	p, err := scanPrediction(r.q.QueryRow(ctx, "prediction_by_id", id))
	if err != nil {
		return p, notFound(fmt.Sprintf("prediction %d", id), err)
	}
	return p, nil
}

func (r queries) UpsertPrediction(ctx context.Context, p *league.Prediction) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO predictions (user_id, fixture_id, home_score_predicted, away_score_predicted)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, fixture_id) DO UPDATE SET
			home_score_predicted = EXCLUDED.home_score_predicted,
			away_score_predicted = EXCLUDED.away_score_predicted,
			points_awarded = NULL,
			updated_at = NOW()
		RETURNING id, updated_at`,
		p.UserID, p.FixtureID, p.HomeScore, p.AwayScore,
	).Scan(&p.ID, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert prediction: %w", err)
	}
	p.PointsAwarded = nil
	return nil
}

func (r queries) AwardPoints(ctx context.Context, predictionID int64, points int) error {
	_, err := r.q.Exec(ctx, `
		UPDATE predictions SET points_awarded = $2, updated_at = NOW()
		WHERE id = $1`, predictionID, points)
	if err != nil {
		return fmt.Errorf("award points to prediction %d: %w", predictionID, err)
	}
	return nil
}

// --------------------------------------------------------------------------
// League table
// --------------------------------------------------------------------------

func (r queries) Standings(ctx context.Context, seasonID int64) ([]league.Standing, error) {
	rows, err := r.q.Query(ctx, "standings_by_season", seasonID)
	if err != nil {
		return nil, fmt.Errorf("query standings: %w", err)
	}
	defer rows.Close()

	var standings []league.Standing
	for rows.Next() {
		s := league.Standing{SeasonID: seasonID}
		var form string
		if err := rows.Scan(
			&s.Team.ID, &s.Team.Name, &s.Position,
			&s.Played, &s.Won, &s.Drawn, &s.Lost,
			&s.GoalsFor, &s.GoalsAgainst, &s.GoalDifference, &s.Points, &form,
		); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		s.Form = league.Form(form)
		standings = append(standings, s)
	}
	return standings, rows.Err()
}

func (r queries) SaveStandings(ctx context.Context, seasonID int64, rows []league.Standing) error {
	teamIDs := make([]int64, len(rows))
	for i, s := range rows {
		teamIDs[i] = s.Team.ID
		_, err := r.q.Exec(ctx, `
			INSERT INTO league_tables (
				season_id, team_id, position, played, won, drawn, lost,
				goals_for, goals_against, goal_difference, points, form
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
			ON CONFLICT (season_id, team_id) DO UPDATE SET
				position = EXCLUDED.position,
				played = EXCLUDED.played,
				won = EXCLUDED.won,
				drawn = EXCLUDED.drawn,
				lost = EXCLUDED.lost,
				goals_for = EXCLUDED.goals_for,
				goals_against = EXCLUDED.goals_against,
				goal_difference = EXCLUDED.goal_difference,
				points = EXCLUDED.points,
				form = EXCLUDED.form,
				updated_at = NOW()`,
			seasonID, s.Team.ID, s.Position, s.Played, s.Won, s.Drawn, s.Lost,
			s.GoalsFor, s.GoalsAgainst, s.GoalDifference, s.Points, string(s.Form),
		)
		if err != nil {
			return fmt.Errorf("upsert standing team %d: %w", s.Team.ID, err)
		}
	}

	_, err := r.q.Exec(ctx, `
		DELETE FROM league_tables
		WHERE season_id = $1 AND NOT (team_id = ANY($2))`, seasonID, teamIDs)
	if err != nil {
		return fmt.Errorf("prune standings: %w", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Leaderboard
// --------------------------------------------------------------------------

func (r queries) Leaderboard(ctx context.Context, seasonID int64, limit int) ([]LeaderboardRow, error) {
	rows, err := r.q.Query(ctx, "user_leaderboard", seasonID, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var board []LeaderboardRow
	for rows.Next() {
		var row LeaderboardRow
		if err := rows.Scan(&row.UserID, &row.Name, &row.Points, &row.Predictions); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		row.Position = len(board) + 1
		board = append(board, row)
	}
	return board, rows.Err()
}

func notFound(what string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
