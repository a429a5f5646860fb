package league

import (
	"cmp"
	"slices"
)

// FormLength caps the number of recent results kept in a form string.
const FormLength = 5

// --------------------------------------------------------------------------
// Results and form
// --------------------------------------------------------------------------

// Result is a match outcome from one team's point of view.
type Result byte

const (
	Win  Result = 'W'
	Draw Result = 'D'
	Loss Result = 'L'
)

// ResultOf classifies a match for the side that scored goalsFor.
func ResultOf(goalsFor, goalsAgainst int) Result {
	switch {
	case goalsFor > goalsAgainst:
		return Win
	case goalsFor == goalsAgainst:
		return Draw
	default:
		return Loss
	}
}

// Form is the most-recent-first sequence of results, e.g. "WWDLW".
type Form string

// Prepend adds r as the most recent result, keeping at most FormLength.
func (f Form) Prepend(r Result) Form {
	s := string(r) + string(f)
	if len(s) > FormLength {
		s = s[:FormLength]
	}
	return Form(s)
}

// withOlder adds an older result behind the existing ones while there is room.
func (f Form) withOlder(r Result) Form {
	if len(f) >= FormLength {
		return f
	}
	return f + Form(r)
}

// --------------------------------------------------------------------------
// Stats
// --------------------------------------------------------------------------

// Stats are the counting columns of a table row. GoalDifference and Points
// are kept in step by Record.
type Stats struct {
	Played         int `json:"played"`
	Won            int `json:"won"`
	Drawn          int `json:"drawn"`
	Lost           int `json:"lost"`
	GoalsFor       int `json:"goals_for"`
	GoalsAgainst   int `json:"goals_against"`
	GoalDifference int `json:"goal_difference"`
	Points         int `json:"points"`
}

// Record adds one match and returns its result.
func (s *Stats) Record(goalsFor, goalsAgainst int) Result {
	s.Played++
	s.GoalsFor += goalsFor
	s.GoalsAgainst += goalsAgainst
	s.GoalDifference = s.GoalsFor - s.GoalsAgainst

	r := ResultOf(goalsFor, goalsAgainst)
	switch r {
	case Win:
		s.Won++
		s.Points += 3
	case Draw:
		s.Drawn++
		s.Points++
	default:
		s.Lost++
	}
	return r
}

// --------------------------------------------------------------------------
// Rows
// --------------------------------------------------------------------------

// Standing is a persisted base row: finished fixtures only, with the
// position it holds in the base-only ordering.
type Standing struct {
	SeasonID int64 `json:"season_id"`
	Team     Team  `json:"team"`
	Position int   `json:"position"`
	Stats
	Form Form `json:"form"`
}

// BaseStats is the pre-overlay snapshot shown alongside a live row.
type BaseStats struct {
	Position int `json:"position"`
	Stats
	Form Form `json:"form"`
}

// LiveMatch describes the in-play fixture behind a live row.
type LiveMatch struct {
	FixtureID    int64  `json:"fixture_id"`
	OpponentID   int64  `json:"opponent_id"`
	OpponentName string `json:"opponent"`
	IsHome       bool   `json:"is_home"`
	HomeScore    int    `json:"home_score"`
	AwayScore    int    `json:"away_score"`
}

// Entry is a row of the live-adjusted table. For a team with a match in
// play, Stats and Form include the provisional result and BaseStats holds
// the persisted numbers.
type Entry struct {
	Position int  `json:"position"`
	Team     Team `json:"team"`
	Stats
	Form         Form       `json:"form"`
	IsLive       bool       `json:"is_live"`
	CurrentMatch *LiveMatch `json:"current_match,omitempty"`
	BaseStats    *BaseStats `json:"base_stats,omitempty"`
}

// --------------------------------------------------------------------------
// Phase A: base statistics
// --------------------------------------------------------------------------

// ComputeStandings builds one base row per team from the season's finished
// fixtures and ranks them. Fixtures of other statuses, fixtures missing a
// score and fixtures involving unknown teams are ignored.
func ComputeStandings(seasonID int64, teams []Team, fixtures []Fixture) []Standing {
	rows := make([]Standing, len(teams))
	index := make(map[int64]int, len(teams))
	for i, t := range teams {
		rows[i] = Standing{SeasonID: seasonID, Team: t}
		index[t.ID] = i
	}

	finished := make([]Fixture, 0, len(fixtures))
	for _, f := range fixtures {
		if f.Status == StatusFinished && f.HasScore() {
			finished = append(finished, f)
		}
	}
	// Most recent first so form fills in display order.
	slices.SortStableFunc(finished, func(a, b Fixture) int {
		if c := b.Kickoff.Compare(a.Kickoff); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	for _, f := range finished {
		for _, teamID := range []int64{f.HomeTeamID, f.AwayTeamID} {
			i, ok := index[teamID]
			if !ok {
				continue
			}
			scored, conceded := f.goalsFor(teamID)
			r := rows[i].Record(scored, conceded)
			rows[i].Form = rows[i].Form.withOlder(r)
		}
	}

	RankStandings(rows)
	return rows
}

// RankStandings sorts base rows and assigns 1-based positions.
func RankStandings(rows []Standing) {
	slices.SortStableFunc(rows, func(a, b Standing) int {
		return compareRows(a.Stats, b.Stats, a.Team, b.Team)
	})
	for i := range rows {
		rows[i].Position = i + 1
	}
}

// --------------------------------------------------------------------------
// Phase B: live projection
// --------------------------------------------------------------------------

// LiveTable overlays in-play fixtures on base rows and ranks the result.
// Base rows are not modified. A team with more than one in-play fixture
// uses the earliest kickoff.
func LiveTable(base []Standing, fixtures []Fixture) []Entry {
	names := make(map[int64]string, len(base))
	for _, s := range base {
		names[s.Team.ID] = s.Team.Name
	}

	inPlay := make([]Fixture, 0)
	for _, f := range fixtures {
		if f.Status == StatusInPlay {
			inPlay = append(inPlay, f)
		}
	}
	slices.SortStableFunc(inPlay, func(a, b Fixture) int {
		return a.Kickoff.Compare(b.Kickoff)
	})
	live := make(map[int64]Fixture)
	for _, f := range inPlay {
		for _, teamID := range []int64{f.HomeTeamID, f.AwayTeamID} {
			if _, taken := live[teamID]; !taken {
				live[teamID] = f
			}
		}
	}

	entries := make([]Entry, len(base))
	for i, s := range base {
		e := Entry{Team: s.Team, Stats: s.Stats, Form: s.Form}

		if f, ok := live[s.Team.ID]; ok {
			e.BaseStats = &BaseStats{Position: s.Position, Stats: s.Stats, Form: s.Form}

			scored, conceded := f.goalsFor(s.Team.ID)
			r := e.Stats.Record(scored, conceded)
			e.Form = e.Form.Prepend(r)
			e.IsLive = true

			isHome := f.HomeTeamID == s.Team.ID
			opponent := f.HomeTeamID
			if isHome {
				opponent = f.AwayTeamID
			}
			e.CurrentMatch = &LiveMatch{
				FixtureID:    f.ID,
				OpponentID:   opponent,
				OpponentName: names[opponent],
				IsHome:       isHome,
				HomeScore:    deref(f.HomeScore),
				AwayScore:    deref(f.AwayScore),
			}
		}
		entries[i] = e
	}

	RankEntries(entries)
	return entries
}

// RankEntries sorts live rows and assigns 1-based positions.
func RankEntries(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return compareRows(a.Stats, b.Stats, a.Team, b.Team)
	})
	for i := range entries {
		entries[i].Position = i + 1
	}
}

// ComputeTable runs both phases straight from the fixture set.
func ComputeTable(seasonID int64, teams []Team, fixtures []Fixture) []Entry {
	return LiveTable(ComputeStandings(seasonID, teams, fixtures), fixtures)
}

// compareRows orders by points, goal difference and goals scored (all
// descending), then team name ascending. Team ID breaks exact name clashes.
func compareRows(a, b Stats, ta, tb Team) int {
	if c := cmp.Compare(b.Points, a.Points); c != 0 {
		return c
	}
	if c := cmp.Compare(b.GoalDifference, a.GoalDifference); c != 0 {
		return c
	}
	if c := cmp.Compare(b.GoalsFor, a.GoalsFor); c != 0 {
		return c
	}
	if c := cmp.Compare(ta.Name, tb.Name); c != 0 {
		return c
	}
	return cmp.Compare(ta.ID, tb.ID)
}
