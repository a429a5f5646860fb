package league

import (
	"testing"
	"time"
)

func TestRoundRobinEveryPairOnce(t *testing.T) {
	for _, n := range []int{2, 4, 5, 6, 7} {
		ids := make([]int64, n)
		for i := range ids {
			ids[i] = int64(i + 1)
		}
		rounds := RoundRobin(ids)

		wantRounds := n - 1
		if n%2 != 0 {
			wantRounds = n
		}
		if len(rounds) != wantRounds {
			t.Errorf("n=%d: %d rounds, want %d", n, len(rounds), wantRounds)
		}

		seen := map[[2]int64]int{}
		for _, round := range rounds {
			playing := map[int64]bool{}
			for _, p := range round {
				if playing[p.HomeTeamID] || playing[p.AwayTeamID] {
					t.Errorf("n=%d: team plays twice in matchweek %d", n, p.Matchweek)
				}
				playing[p.HomeTeamID], playing[p.AwayTeamID] = true, true
				a, b := p.HomeTeamID, p.AwayTeamID
				if a > b {
					a, b = b, a
				}
				seen[[2]int64{a, b}]++
			}
		}
		if len(seen) != n*(n-1)/2 {
			t.Errorf("n=%d: %d distinct pairs, want %d", n, len(seen), n*(n-1)/2)
		}
		for pair, count := range seen {
			if count != 1 {
				t.Errorf("n=%d: pair %v met %d times", n, pair, count)
			}
		}
	}
}

func TestRoundRobinDoesNotMutateInput(t *testing.T) {
	ids := []int64{1, 2, 3, 4}
	RoundRobin(ids)
	for i, id := range []int64{1, 2, 3, 4} {
		if ids[i] != id {
			t.Fatalf("input reordered: %v", ids)
		}
	}
}

func TestDoubleRoundRobinSwapsVenues(t *testing.T) {
	rounds := DoubleRoundRobin([]int64{1, 2, 3, 4})
	if len(rounds) != 6 {
		t.Fatalf("%d rounds, want 6", len(rounds))
	}
	home := map[[2]int64]int{}
	for i, round := range rounds {
		for _, p := range round {
			if p.Matchweek != i+1 {
				t.Errorf("round %d has matchweek %d", i+1, p.Matchweek)
			}
			home[[2]int64{p.HomeTeamID, p.AwayTeamID}]++
		}
	}
	if len(home) != 12 {
		t.Errorf("%d ordered pairings, want 12", len(home))
	}
}

func TestScheduleFixtures(t *testing.T) {
	start := time.Date(2025, 8, 16, 15, 0, 0, 0, time.UTC)
	fixtures := ScheduleFixtures(7, DoubleRoundRobin([]int64{1, 2, 3}), start, 7*24*time.Hour)
	if len(fixtures) != 6 {
		t.Fatalf("%d fixtures, want 6", len(fixtures))
	}
	for _, f := range fixtures {
		if f.SeasonID != 7 || f.Status != StatusScheduled || f.HasScore() {
			t.Errorf("unexpected fixture %+v", f)
		}
		want := start.Add(time.Duration(f.Matchweek-1) * 7 * 24 * time.Hour)
		if !f.Kickoff.Equal(want) {
			t.Errorf("matchweek %d kickoff %s, want %s", f.Matchweek, f.Kickoff, want)
		}
	}
}
