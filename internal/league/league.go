// Package league holds the domain types shared by the prediction game and the
// pure league table engine built on them.
//
// Nothing in this package touches the database. Services load teams and
// fixtures, hand them to ComputeStandings / LiveTable, and persist or serve
// the result.
package league

import "time"

// --------------------------------------------------------------------------
// Fixture status
// --------------------------------------------------------------------------

// Status is the lifecycle state of a fixture.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusInPlay    Status = "in_play"
	StatusFinished  Status = "finished"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusInPlay, StatusFinished:
		return true
	}
	return false
}

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Team is a club taking part in a season.
type Team struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Fixture is a single match in a season.
//
// HomeScore and AwayScore are nil until the match is in play or finished.
type Fixture struct {
	ID               int64     `json:"id"`
	SeasonID         int64     `json:"season_id"`
	HomeTeamID       int64     `json:"home_team_id"`
	AwayTeamID       int64     `json:"away_team_id"`
	Kickoff          time.Time `json:"kickoff"`
	Matchweek        int       `json:"matchweek"`
	Status           Status    `json:"status"`
	HomeScore        *int      `json:"home_score"`
	AwayScore        *int      `json:"away_score"`
	PointsCalculated bool      `json:"points_calculated"`
	ExternalID       *int64    `json:"external_id,omitempty"`
}

// HasScore reports whether both scores are set.
func (f *Fixture) HasScore() bool {
	return f.HomeScore != nil && f.AwayScore != nil
}

// Involves reports whether the team plays in the fixture.
func (f *Fixture) Involves(teamID int64) bool {
	return f.HomeTeamID == teamID || f.AwayTeamID == teamID
}

// Scoreable reports whether predictions on the fixture can be scored: it is
// finished, has both scores, and has not been scored yet.
func (f *Fixture) Scoreable() bool {
	return f.Status == StatusFinished && f.HasScore() && !f.PointsCalculated
}

// goalsFor returns the score from the given team's perspective. Missing
// scores count as zero.
func (f *Fixture) goalsFor(teamID int64) (scored, conceded int) {
	home, away := deref(f.HomeScore), deref(f.AwayScore)
	if f.HomeTeamID == teamID {
		return home, away
	}
	return away, home
}

// Prediction is one user's forecast for one fixture. PointsAwarded stays nil
// until the fixture has been scored.
type Prediction struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	FixtureID     int64     `json:"fixture_id"`
	HomeScore     int       `json:"home_score_predicted"`
	AwayScore     int       `json:"away_score_predicted"`
	PointsAwarded *int      `json:"points_awarded"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Score returns a pointer to n, for filling the nullable score fields.
func Score(n int) *int { return &n }

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
