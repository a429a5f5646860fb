// Command predictor is the Scoracle Predict operator CLI.
//
// Usage:
//
//	scoracle-predictor migrate
//	scoracle-predictor fixtures schedule --season 1 --start 2025-08-16T15:00:00Z --interval-days 7
//	scoracle-predictor fixtures start
//	scoracle-predictor fixtures live --id 42 --home 1 --away 0
//	scoracle-predictor fixtures finalize --id 42 --home 2 --away 1 --score
//	scoracle-predictor fixtures candidates --minutes 120
//	scoracle-predictor fixtures sync
//	scoracle-predictor points calculate --workers 4
//	scoracle-predictor table show --season 1
//	scoracle-predictor leaderboard --season 1 --limit 20
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/scoracle-predict/internal/config"
	"github.com/albapepper/scoracle-predict/internal/db"
	"github.com/albapepper/scoracle-predict/internal/fixture"
	"github.com/albapepper/scoracle-predict/internal/maintenance"
	"github.com/albapepper/scoracle-predict/internal/prediction"
	"github.com/albapepper/scoracle-predict/internal/provider/sportmonks"
	"github.com/albapepper/scoracle-predict/internal/standings"
	"github.com/albapepper/scoracle-predict/internal/store"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "scoracle-predictor",
		Short:        "Scoracle prediction game operator CLI",
		SilenceUsage: true,
	}

	root.AddCommand(migrateCmd())
	root.AddCommand(fixturesCmd())
	root.AddCommand(pointsCmd())
	root.AddCommand(tableCmd())
	root.AddCommand(leaderboardCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			start := time.Now()
			if err := db.Migrate(ctx, cfg.DatabaseURL); err != nil {
				return err
			}
			logger.Info("Schema applied", "duration", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// fixtures command
// --------------------------------------------------------------------------

func fixturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Drive the fixture lifecycle (kickoff, live scores, final results)",
	}
	cmd.AddCommand(fixturesStartCmd())
	cmd.AddCommand(fixturesLiveCmd())
	cmd.AddCommand(fixturesFinalizeCmd())
	cmd.AddCommand(fixturesCandidatesCmd())
	cmd.AddCommand(fixturesSyncCmd())
	cmd.AddCommand(fixturesScheduleCmd())
	return cmd
}

func fixturesStartCmd() *cobra.Command {
	var fixtureID int64
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Move scheduled fixtures past kickoff to in_play",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, app *app) error {
				result := app.fixtures.StartDue(ctx, fixtureID)
				logger.Info("Kickoff sweep finished", "summary", result.Summary())
				for _, e := range result.Errors {
					logger.Error("kickoff error", "error", e)
				}
				if len(result.Errors) > 0 {
					return fmt.Errorf("%d season(s) failed", len(result.Errors))
				}
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&fixtureID, "id", 0, "Start only this fixture (0 = every fixture due)")
	return cmd
}

func fixturesLiveCmd() *cobra.Command {
	var (
		fixtureID  int64
		home, away int
	)
	cmd := &cobra.Command{
		Use:   "live",
		Short: "Record the current score of a fixture in play",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, app *app) error {
				f, err := app.fixtures.UpdateLiveScore(ctx, fixtureID, home, away)
				if err != nil {
					return err
				}
				logger.Info("Live score recorded", "fixture_id", f.ID, "status", f.Status,
					"home", home, "away", away)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&fixtureID, "id", 0, "Fixture ID")
	cmd.Flags().IntVar(&home, "home", 0, "Home goals")
	cmd.Flags().IntVar(&away, "away", 0, "Away goals")
	markRequired(cmd, "id", "home", "away")
	return cmd
}

func fixturesFinalizeCmd() *cobra.Command {
	var (
		fixtureID  int64
		home, away int
		score      bool
	)
	cmd := &cobra.Command{
		Use:   "finalize",
		Short: "Record the final score of a fixture",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, app *app) error {
				f, err := app.fixtures.Finalize(ctx, fixtureID, home, away)
				if err != nil {
					return err
				}
				logger.Info("Fixture finalized", "fixture_id", f.ID, "home", home, "away", away)
				if !score {
					return nil
				}
				res, err := app.predictions.ScoreFixture(ctx, f.ID)
				if err != nil {
					return err
				}
				logger.Info("Predictions scored", "summary", res.Summary())
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&fixtureID, "id", 0, "Fixture ID")
	cmd.Flags().IntVar(&home, "home", 0, "Home goals")
	cmd.Flags().IntVar(&away, "away", 0, "Away goals")
	cmd.Flags().BoolVar(&score, "score", false, "Award prediction points right after finalizing")
	markRequired(cmd, "id", "home", "away")
	return cmd
}

func fixturesCandidatesCmd() *cobra.Command {
	var minutes int
	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "List fixtures in play and fixtures due for a final score",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, app *app) error {
				live, err := app.fixtures.LiveCandidates(ctx)
				if err != nil {
					return err
				}
				due, err := app.fixtures.FinalizeCandidates(ctx, time.Duration(minutes)*time.Minute)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				printFixtures(out, "In play", live)
				fmt.Fprintln(out)
				printFixtures(out, "Awaiting final score", due)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&minutes, "minutes", 0, "Minimum minutes since kickoff (0 = FINALIZE_MIN_ELAPSED)")
	return cmd
}

func fixturesSyncCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull live and final scores from SportMonks, then award points",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, app *app) error {
				if app.cfg.SportMonksAPIToken == "" {
					return fmt.Errorf("SPORTMONKS_API_TOKEN is required")
				}
				feed := sportmonks.NewClient(app.cfg.SportMonksAPIToken, app.cfg.SportMonksRPM, logger)
				result := app.fixtures.SyncResults(ctx, feed)
				logger.Info("Results sync finished", "summary", result.Summary())
				for _, e := range result.Errors {
					logger.Error("sync error", "error", e)
				}
				maintenance.AfterSync(ctx, app.predictions, result, workers, logger)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 4, "Concurrent scoring workers")
	return cmd
}

func fixturesScheduleCmd() *cobra.Command {
	var (
		seasonID     int64
		start        string
		intervalDays int
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Generate a double round-robin for a season",
		RunE: func(cmd *cobra.Command, args []string) error {
			first, err := time.Parse(time.RFC3339, start)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			return run(func(ctx context.Context, app *app) error {
				fixtures, err := app.fixtures.Schedule(ctx, seasonID, first, time.Duration(intervalDays)*24*time.Hour)
				if err != nil {
					return err
				}
				printFixtures(cmd.OutOrStdout(), fmt.Sprintf("Season %d schedule", seasonID), fixtures)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&seasonID, "season", 0, "Season ID")
	cmd.Flags().StringVar(&start, "start", "", "First matchweek kickoff (RFC 3339)")
	cmd.Flags().IntVar(&intervalDays, "interval-days", 7, "Days between matchweeks")
	markRequired(cmd, "season", "start")
	return cmd
}

// --------------------------------------------------------------------------
// points command
// --------------------------------------------------------------------------

func pointsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "points",
		Short: "Award prediction points",
	}
	cmd.AddCommand(pointsCalculateCmd())
	return cmd
}

func pointsCalculateCmd() *cobra.Command {
	var (
		workers   int
		fixtureID int64
	)
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Score every finished fixture not yet scored",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, app *app) error {
				if fixtureID != 0 {
					res, err := app.predictions.ScoreFixture(ctx, fixtureID)
					if err != nil {
						return err
					}
					logger.Info("Fixture scored", "summary", res.Summary())
					return nil
				}
				result := app.predictions.ProcessPending(ctx, workers)
				logger.Info("Scoring run finished", "summary", result.Summary())
				for _, e := range result.Errors {
					logger.Error("scoring error", "run_id", result.RunID, "error", e)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 4, "Concurrent worker count")
	cmd.Flags().Int64Var(&fixtureID, "fixture", 0, "Score only this fixture")
	return cmd
}

// --------------------------------------------------------------------------
// table and leaderboard commands
// --------------------------------------------------------------------------

func tableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Build and inspect league tables",
	}
	cmd.AddCommand(tableRecomputeCmd())
	cmd.AddCommand(tableShowCmd())
	return cmd
}

func tableRecomputeCmd() *cobra.Command {
	var seasonID int64
	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Rebuild the persisted table from finished fixtures",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, app *app) error {
				rows, err := app.tables.Recompute(ctx, seasonID)
				if err != nil {
					return err
				}
				printStandings(cmd.OutOrStdout(), fmt.Sprintf("Season %d", seasonID), rows)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&seasonID, "season", 0, "Season ID")
	markRequired(cmd, "season")
	return cmd
}

func tableShowCmd() *cobra.Command {
	var (
		seasonID int64
		base     bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the live table (or the base table with --base)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, app *app) error {
				if base {
					rows, err := app.tables.Base(ctx, seasonID)
					if err != nil {
						return err
					}
					printStandings(cmd.OutOrStdout(), fmt.Sprintf("Season %d (base)", seasonID), rows)
					return nil
				}
				rows, err := app.tables.Live(ctx, seasonID)
				if err != nil {
					return err
				}
				printEntries(cmd.OutOrStdout(), fmt.Sprintf("Season %d (live)", seasonID), rows)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&seasonID, "season", 0, "Season ID")
	cmd.Flags().BoolVar(&base, "base", false, "Show finished fixtures only")
	markRequired(cmd, "season")
	return cmd
}

func leaderboardCmd() *cobra.Command {
	var (
		seasonID int64
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank users by awarded prediction points",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, app *app) error {
				rows, err := app.predictions.Leaderboard(ctx, seasonID, limit)
				if err != nil {
					return err
				}
				printLeaderboard(cmd.OutOrStdout(), rows)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&seasonID, "season", 0, "Season ID (0 = all seasons)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Rows to show")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// app bundles the services a command needs. The CLI runs without the HTTP
// cache; the API drops its cached tables on the fixture_changed notification.
type app struct {
	cfg         *config.Config
	tables      *standings.Service
	fixtures    *fixture.Service
	predictions *prediction.Service
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// run handles config loading, DB connection, service wiring and context
// cancellation.
func run(fn func(ctx context.Context, app *app) error) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Debug {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	st := store.NewPostgres(pool.Pool)
	tables := standings.NewService(st, nil, logger)
	return fn(ctx, &app{
		cfg:         cfg,
		tables:      tables,
		fixtures:    fixture.NewService(st, tables, cfg.FinalizeMinElapsed, logger),
		predictions: prediction.NewService(st, cfg.ScoringRules, cfg.PredictionLock, logger),
	})
}

func markRequired(cmd *cobra.Command, flags ...string) {
	for _, name := range flags {
		_ = cmd.MarkFlagRequired(name)
	}
}
