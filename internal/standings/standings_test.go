package standings

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/albapepper/scoracle-predict/internal/cache"
	"github.com/albapepper/scoracle-predict/internal/league"
	"github.com/albapepper/scoracle-predict/internal/store"
)

var kickoff = time.Date(2025, 8, 16, 15, 0, 0, 0, time.UTC)

func seed(t *testing.T) (*store.Memory, map[string]league.Team) {
	t.Helper()
	st := store.NewMemory()
	teams := map[string]league.Team{}
	for _, name := range []string{"A", "B", "C", "D"} {
		teams[name] = st.AddTeam(1, name)
	}
	add := func(home, away string, status league.Status, hs, as *int, at time.Time) {
		st.AddFixture(league.Fixture{
			SeasonID: 1, HomeTeamID: teams[home].ID, AwayTeamID: teams[away].ID,
			Kickoff: at, Status: status, HomeScore: hs, AwayScore: as,
		})
	}
	add("A", "B", league.StatusFinished, league.Score(2), league.Score(1), kickoff)
	add("B", "C", league.StatusFinished, league.Score(0), league.Score(0), kickoff.Add(24*time.Hour))
	add("C", "D", league.StatusInPlay, league.Score(0), league.Score(3), kickoff.Add(48*time.Hour))
	return st, teams
}

func newService(st store.Store, c *cache.Cache) *Service {
	return NewService(st, c, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRecomputePersistsBaseTable(t *testing.T) {
	st, _ := seed(t)
	svc := newService(st, nil)
	ctx := context.Background()

	rows, err := svc.Recompute(ctx, 1)
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	stored, err := st.Standings(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 || len(stored) != 4 {
		t.Fatalf("rows=%d stored=%d, want 4", len(rows), len(stored))
	}

	// The in-play D win is not part of the persisted table.
	want := []string{"A", "C", "B", "D"}
	for i, name := range want {
		if stored[i].Team.Name != name || stored[i].Position != i+1 {
			t.Errorf("row %d = %s pos %d, want %s", i, stored[i].Team.Name, stored[i].Position, name)
		}
	}
	if d := stored[3]; d.Played != 0 || d.Points != 0 {
		t.Errorf("D persisted with live stats: %+v", d)
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	st, _ := seed(t)
	svc := newService(st, nil)
	ctx := context.Background()

	first, err := svc.Recompute(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Recompute(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i := range first {
		if first[i].Team != second[i].Team || first[i].Stats != second[i].Stats || first[i].Form != second[i].Form {
			t.Errorf("row %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestLiveOverlaysInPlayFixtures(t *testing.T) {
	st, _ := seed(t)
	svc := newService(st, nil)
	ctx := context.Background()
	if _, err := svc.Recompute(ctx, 1); err != nil {
		t.Fatal(err)
	}

	live, err := svc.Live(ctx, 1)
	if err != nil {
		t.Fatalf("Live: %v", err)
	}
	base, _ := svc.Base(ctx, 1)
	basePlayed := map[string]int{}
	for _, r := range base {
		basePlayed[r.Team.Name] = r.Played
	}

	for _, e := range live {
		wantPlayed := basePlayed[e.Team.Name]
		if e.IsLive {
			wantPlayed++
		}
		if e.Played != wantPlayed {
			t.Errorf("%s live played %d, want %d", e.Team.Name, e.Played, wantPlayed)
		}
	}
	// D: 3 provisional points and +3 goal difference take the top spot.
	if live[0].Team.Name != "D" || live[0].Position != 1 || live[0].BaseStats == nil || live[0].BaseStats.Position != 4 {
		t.Errorf("live leader = %+v", live[0])
	}
}

func TestBaseWithoutPersistedRows(t *testing.T) {
	st, _ := seed(t)
	svc := newService(st, nil)

	rows, err := svc.Base(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 || rows[0].Team.Name != "A" {
		t.Errorf("computed base = %+v", rows)
	}
	if rows, _ := svc.Base(context.Background(), 99); len(rows) != 0 {
		t.Errorf("unknown season produced %d rows", len(rows))
	}
}

func TestTeamAddedAfterRecompute(t *testing.T) {
	st, _ := seed(t)
	svc := newService(st, nil)
	ctx := context.Background()

	if _, err := svc.Recompute(ctx, 1); err != nil {
		t.Fatal(err)
	}
	st.AddTeam(1, "Chelsea")

	base, err := svc.Base(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(base) != 5 {
		t.Fatalf("base has %d rows, want 5", len(base))
	}
	for i, r := range base {
		if r.Position != i+1 {
			t.Errorf("row %d (%s) has position %d", i, r.Team.Name, r.Position)
		}
		if r.Team.Name == "Chelsea" && (r.Played != 0 || r.Points != 0 || r.Form != "") {
			t.Errorf("new team row = %+v, want all zero", r)
		}
	}

	live, err := svc.Live(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(live) != 5 {
		t.Errorf("live table has %d rows, want 5", len(live))
	}
}

func TestRecomputeInvalidatesCache(t *testing.T) {
	st, _ := seed(t)
	c := cache.New(true)
	c.Set(cache.TableKey(1, "live"), []byte("stale"), time.Minute)
	svc := newService(st, c)

	if _, err := svc.Recompute(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if _, _, ok := c.Get(cache.TableKey(1, "live")); ok {
		t.Error("cached table survived recompute")
	}
}

func TestFailedTransactionRollsBack(t *testing.T) {
	st, _ := seed(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := st.InSeasonTx(ctx, 1, func(repo store.Repository) error {
		if _, err := RecomputeIn(ctx, repo, 1); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if rows, _ := st.Standings(ctx, 1); len(rows) != 0 {
		t.Errorf("rolled-back recompute left %d rows", len(rows))
	}
}
