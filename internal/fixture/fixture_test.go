package fixture

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/albapepper/scoracle-predict/internal/league"
	"github.com/albapepper/scoracle-predict/internal/provider/sportmonks"
	"github.com/albapepper/scoracle-predict/internal/standings"
	"github.com/albapepper/scoracle-predict/internal/store"
)

const season = int64(1)

var now = time.Date(2025, 8, 16, 18, 0, 0, 0, time.UTC)

type env struct {
	store *store.Memory
	svc   *Service
	teams []league.Team
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.NewMemory()
	var teams []league.Team
	for _, name := range []string{"Arsenal", "Brentford", "Chelsea", "Derby"} {
		teams = append(teams, st.AddTeam(season, name))
	}
	svc := NewService(st, standings.NewService(st, nil, logger), time.Hour, logger).
		WithClock(func() time.Time { return now })
	return &env{store: st, svc: svc, teams: teams}
}

func (e *env) fixture(home, away int, kickoff time.Time, status league.Status) league.Fixture {
	return e.store.AddFixture(league.Fixture{
		SeasonID:   season,
		HomeTeamID: e.teams[home].ID,
		AwayTeamID: e.teams[away].ID,
		Kickoff:    kickoff,
		Matchweek:  1,
		Status:     status,
	})
}

func (e *env) get(t *testing.T, id int64) league.Fixture {
	t.Helper()
	f, err := e.store.Fixture(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestStartDue(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	past := e.fixture(0, 1, now.Add(-time.Minute), league.StatusScheduled)
	exact := e.fixture(2, 3, now, league.StatusScheduled)
	future := e.fixture(1, 2, now.Add(time.Minute), league.StatusScheduled)

	res := e.svc.StartDue(ctx, 0)
	if res.FixturesStarted != 2 || len(res.Errors) != 0 {
		t.Fatalf("first sweep: %s %v", res.Summary(), res.Errors)
	}
	for _, id := range []int64{past.ID, exact.ID} {
		f := e.get(t, id)
		if f.Status != league.StatusInPlay || f.HasScore() {
			t.Errorf("fixture %d = %s with score %v/%v", id, f.Status, f.HomeScore, f.AwayScore)
		}
	}
	if f := e.get(t, future.ID); f.Status != league.StatusScheduled {
		t.Errorf("future fixture started: %s", f.Status)
	}

	if again := e.svc.StartDue(ctx, 0); again.FixturesStarted != 0 {
		t.Errorf("second sweep started %d fixtures", again.FixturesStarted)
	}
}

func TestStartDueSingleFixture(t *testing.T) {
	e := newEnv(t)
	a := e.fixture(0, 1, now.Add(-time.Hour), league.StatusScheduled)
	b := e.fixture(2, 3, now.Add(-time.Hour), league.StatusScheduled)

	if res := e.svc.StartDue(context.Background(), a.ID); res.FixturesStarted != 1 {
		t.Fatalf("started %d", res.FixturesStarted)
	}
	if e.get(t, b.ID).Status != league.StatusScheduled {
		t.Error("unrelated fixture was started")
	}
}

func TestUpdateLiveScore(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	f := e.fixture(0, 1, now.Add(-10*time.Minute), league.StatusScheduled)

	got, err := e.svc.UpdateLiveScore(ctx, f.ID, 1, 0)
	if err != nil {
		t.Fatalf("UpdateLiveScore: %v", err)
	}
	if got.Status != league.StatusInPlay || *got.HomeScore != 1 || *got.AwayScore != 0 {
		t.Errorf("fixture = %+v", got)
	}

	live, err := e.svc.tables.Live(ctx, season)
	if err != nil {
		t.Fatal(err)
	}
	if live[0].Team.Name != "Arsenal" || !live[0].IsLive || live[0].Points != 3 {
		t.Errorf("live leader = %+v", live[0])
	}

	if _, err := e.svc.UpdateLiveScore(ctx, f.ID, -1, 0); !errors.Is(err, ErrInvalidScore) {
		t.Errorf("negative score err = %v, want ErrInvalidScore", err)
	}
}

func TestUpdateLiveScoreLeavesFinishedFixture(t *testing.T) {
	e := newEnv(t)
	f := e.fixture(0, 1, now.Add(-3*time.Hour), league.StatusScheduled)
	if _, err := e.svc.Finalize(context.Background(), f.ID, 2, 2); err != nil {
		t.Fatal(err)
	}

	got, err := e.svc.UpdateLiveScore(context.Background(), f.ID, 5, 0)
	if err != nil {
		t.Fatalf("UpdateLiveScore: %v", err)
	}
	if got.Status != league.StatusFinished || *got.HomeScore != 2 {
		t.Errorf("finished fixture modified: %+v", got)
	}
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name       string
		kickoff    time.Time
		home, away int
	}{
		{"kickoff in future", now.Add(time.Hour), 1, 0},
		{"under an hour elapsed", now.Add(-59 * time.Minute), 1, 0},
		{"negative home score", now.Add(-2 * time.Hour), -1, 0},
		{"negative away score", now.Add(-2 * time.Hour), 0, -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			f := e.fixture(0, 1, tt.kickoff, league.StatusInPlay)

			_, err := e.svc.Finalize(context.Background(), f.ID, tt.home, tt.away)
			var ferr *FinalizationError
			if !errors.As(err, &ferr) {
				t.Fatalf("err = %v, want *FinalizationError", err)
			}
			if ferr.FixtureID != f.ID {
				t.Errorf("error fixture id = %d", ferr.FixtureID)
			}
			if got := e.get(t, f.ID); got.Status != league.StatusInPlay || got.HasScore() {
				t.Errorf("fixture changed after rejected finalize: %+v", got)
			}
		})
	}
}

func TestFinalizeMinElapsedSetting(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tests := []struct {
		name       string
		minElapsed time.Duration
		wantErr    bool
	}{
		{"zero allows finalizing at kickoff", 0, false},
		{"negative uses the default hour", -1, true},
		{"custom window", 30 * time.Minute, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			e.svc = NewService(e.store, standings.NewService(e.store, nil, logger), tt.minElapsed, logger).
				WithClock(func() time.Time { return now })
			f := e.fixture(0, 1, now.Add(-10*time.Minute), league.StatusInPlay)

			_, err := e.svc.Finalize(context.Background(), f.ID, 1, 0)
			var ferr *FinalizationError
			if got := errors.As(err, &ferr); got != tt.wantErr {
				t.Errorf("err = %v, want finalization error: %v", err, tt.wantErr)
			}
		})
	}
}

func TestFinalizeRecomputesTable(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	f := e.fixture(0, 1, now.Add(-time.Hour), league.StatusInPlay)

	got, err := e.svc.Finalize(ctx, f.ID, 2, 1)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if got.Status != league.StatusFinished || *got.HomeScore != 2 || *got.AwayScore != 1 {
		t.Errorf("fixture = %+v", got)
	}

	rows, err := e.store.Standings(ctx, season)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("%d persisted rows, want 4", len(rows))
	}
	if rows[0].Team.Name != "Arsenal" || rows[0].Points != 3 || rows[0].Form != "W" {
		t.Errorf("leader = %+v", rows[0])
	}
	if last := rows[3]; last.Team.Name != "Brentford" || last.Lost != 1 {
		t.Errorf("bottom = %+v", last)
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	f := e.fixture(0, 1, now.Add(-2*time.Hour), league.StatusInPlay)

	if _, err := e.svc.Finalize(ctx, f.ID, 1, 1); err != nil {
		t.Fatal(err)
	}
	got, err := e.svc.Finalize(ctx, f.ID, 4, 0)
	if err != nil {
		t.Fatalf("second finalize: %v", err)
	}
	if *got.HomeScore != 1 || *got.AwayScore != 1 {
		t.Errorf("re-finalize changed scores: %+v", got)
	}
}

func TestFinalizeUnknownFixture(t *testing.T) {
	e := newEnv(t)
	if _, err := e.svc.Finalize(context.Background(), 999, 1, 0); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFinalizeCandidates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	old := e.fixture(0, 1, now.Add(-3*time.Hour), league.StatusInPlay)
	e.fixture(2, 3, now.Add(-30*time.Minute), league.StatusInPlay)
	done := e.fixture(1, 2, now.Add(-5*time.Hour), league.StatusScheduled)
	if _, err := e.svc.Finalize(ctx, done.ID, 0, 0); err != nil {
		t.Fatal(err)
	}

	got, err := e.svc.FinalizeCandidates(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != old.ID {
		t.Errorf("candidates = %+v", got)
	}

	live, err := e.svc.LiveCandidates(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(live) != 2 {
		t.Errorf("%d live candidates, want 2", len(live))
	}
}

func TestSchedule(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	start := now.Add(7 * 24 * time.Hour)

	fixtures, err := e.svc.Schedule(ctx, season, start, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(fixtures) != 12 {
		t.Errorf("%d fixtures, want 12", len(fixtures))
	}
	stored, _ := e.store.Fixtures(ctx, store.FixtureFilter{SeasonID: season})
	if len(stored) != 12 {
		t.Errorf("%d stored fixtures, want 12", len(stored))
	}
	rows, _ := e.store.Standings(ctx, season)
	if len(rows) != 4 || rows[0].Played != 0 {
		t.Errorf("initial table = %+v", rows)
	}

	if _, err := e.svc.Schedule(ctx, season, start, 7*24*time.Hour); !errors.Is(err, ErrSeasonScheduled) {
		t.Errorf("second schedule err = %v", err)
	}
}

type fakeFeed struct {
	results []sportmonks.Result
	asked   []int64
}

func (f *fakeFeed) Results(_ context.Context, ids []int64) ([]sportmonks.Result, error) {
	f.asked = ids
	return f.results, nil
}

func linked(e *env, home, away int, kickoff time.Time, ext int64) league.Fixture {
	return e.store.AddFixture(league.Fixture{
		SeasonID: season, HomeTeamID: e.teams[home].ID, AwayTeamID: e.teams[away].ID,
		Kickoff: kickoff, Status: league.StatusScheduled, ExternalID: &ext,
	})
}

func TestSyncResults(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	live := linked(e, 0, 1, now.Add(-20*time.Minute), 100)
	done := linked(e, 2, 3, now.Add(-2*time.Hour), 200)
	early := linked(e, 1, 3, now.Add(-30*time.Minute), 300)
	linked(e, 0, 2, now.Add(time.Hour), 400) // not kicked off, never asked for
	e.fixture(1, 0, now.Add(-time.Hour), league.StatusScheduled)

	feed := &fakeFeed{results: []sportmonks.Result{
		{ExternalID: 100, Status: league.StatusInPlay, HomeScore: league.Score(1), AwayScore: league.Score(1)},
		{ExternalID: 200, Status: league.StatusFinished, HomeScore: league.Score(0), AwayScore: league.Score(2)},
		{ExternalID: 300, Status: league.StatusFinished, HomeScore: league.Score(1), AwayScore: league.Score(0)},
	}}

	res := e.svc.SyncResults(ctx, feed)
	if len(feed.asked) != 3 {
		t.Errorf("asked feed for %v, want 3 linked fixtures", feed.asked)
	}
	if res.LiveUpdated != 1 || res.FixturesFinalized != 1 || res.Skipped != 1 || len(res.Errors) != 0 {
		t.Errorf("sync = %s %v", res.Summary(), res.Errors)
	}

	if f := e.get(t, live.ID); f.Status != league.StatusInPlay || *f.HomeScore != 1 {
		t.Errorf("live fixture = %+v", f)
	}
	if f := e.get(t, done.ID); f.Status != league.StatusFinished || *f.AwayScore != 2 {
		t.Errorf("finished fixture = %+v", f)
	}
	if f := e.get(t, early.ID); f.Status != league.StatusScheduled {
		t.Errorf("fixture finalized too early: %+v", f)
	}
}
