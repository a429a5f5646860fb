package maintenance

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/albapepper/scoracle-predict/internal/fixture"
	"github.com/albapepper/scoracle-predict/internal/league"
	"github.com/albapepper/scoracle-predict/internal/prediction"
	"github.com/albapepper/scoracle-predict/internal/provider/sportmonks"
	"github.com/albapepper/scoracle-predict/internal/scoring"
	"github.com/albapepper/scoracle-predict/internal/standings"
	"github.com/albapepper/scoracle-predict/internal/store"
)

type staticFeed []sportmonks.Result

func (f staticFeed) Results(context.Context, []int64) ([]sportmonks.Result, error) {
	return f, nil
}

func TestSyncThenScore(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	kickoff := time.Date(2025, 8, 16, 15, 0, 0, 0, time.UTC)
	clock := kickoff.Add(-3 * time.Hour)
	now := func() time.Time { return clock }

	st := store.NewMemory()
	home, away := st.AddTeam(1, "Home"), st.AddTeam(1, "Away")
	ext := int64(555)
	f := st.AddFixture(league.Fixture{
		SeasonID: 1, HomeTeamID: home.ID, AwayTeamID: away.ID,
		Kickoff: kickoff, Status: league.StatusScheduled, ExternalID: &ext,
	})

	deps := Deps{
		Fixtures:    fixture.NewService(st, standings.NewService(st, nil, logger), time.Hour, logger).WithClock(now),
		Predictions: prediction.NewService(st, scoring.RulesStandard, time.Hour, logger).WithClock(now),
		Feed: staticFeed{{
			ExternalID: ext, Status: league.StatusFinished,
			HomeScore: league.Score(2), AwayScore: league.Score(1),
		}},
	}

	p, err := deps.Predictions.Submit(ctx, st.AddUser("ana"), f.ID, 2, 1)
	if err != nil {
		t.Fatal(err)
	}

	// Kickoff sweep before kickoff does nothing.
	kickoffSweep(ctx, deps, logger)
	if got, _ := st.Fixture(ctx, f.ID); got.Status != league.StatusScheduled {
		t.Fatalf("status = %s before kickoff", got.Status)
	}

	clock = kickoff.Add(5 * time.Minute)
	kickoffSweep(ctx, deps, logger)
	if got, _ := st.Fixture(ctx, f.ID); got.Status != league.StatusInPlay {
		t.Fatalf("status = %s after kickoff", got.Status)
	}

	clock = kickoff.Add(2 * time.Hour)
	resultsSync(ctx, deps, 2, logger)

	got, _ := st.Fixture(ctx, f.ID)
	if got.Status != league.StatusFinished || !got.PointsCalculated {
		t.Errorf("fixture after sync = %+v", got)
	}
	if points, _ := deps.Predictions.Points(ctx, p.ID); points == nil || *points != scoring.ExactScore {
		t.Errorf("points = %v, want %d", points, scoring.ExactScore)
	}
}

func TestAfterSyncNothingFinalized(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	preds := prediction.NewService(store.NewMemory(), "", time.Hour, logger)
	if run := AfterSync(context.Background(), preds, fixture.SyncResult{LiveUpdated: 3}, 1, logger); run != nil {
		t.Errorf("unexpected scoring run %s", run.Summary())
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Start(ctx, Deps{}, Config{}, logger)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
