// Package fixture drives the fixture lifecycle: scheduled fixtures start
// when kickoff passes, live scores are recorded while in play, and a fixture
// is finalized explicitly with its final score. Every state change rebuilds
// the season's base table in the same transaction.
//
// Results can also be pulled from the SportMonks feed for fixtures linked by
// external ID.
package fixture

import (
	"errors"
	"fmt"
	"time"

	"github.com/albapepper/scoracle-predict/internal/league"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// DefaultMinElapsed is how long after kickoff a fixture may first be
// finalized.
const DefaultMinElapsed = 60 * time.Minute

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

// ErrInvalidScore is returned for negative scores.
var ErrInvalidScore = errors.New("scores must be non-negative")

// FinalizationError reports why a fixture could not be finalized. It is a
// validation failure and should not be retried as-is.
type FinalizationError struct {
	FixtureID int64
	Reason    string
}

func (e *FinalizationError) Error() string {
	return fmt.Sprintf("cannot finalize fixture %d: %s", e.FixtureID, e.Reason)
}

// --------------------------------------------------------------------------
// Results
// --------------------------------------------------------------------------

// StartResult tracks a kickoff sweep.
type StartResult struct {
	FixturesDue     int
	FixturesStarted int
	Seasons         int
	Duration        time.Duration
	Errors          []string
}

// Summary returns a human-readable summary.
func (r *StartResult) Summary() string {
	return fmt.Sprintf("due=%d started=%d seasons=%d errors=%d dur=%s",
		r.FixturesDue, r.FixturesStarted, r.Seasons, len(r.Errors), r.Duration.Round(time.Millisecond))
}

// SyncResult tracks a results sync against the external feed.
type SyncResult struct {
	FixturesChecked   int
	LiveUpdated       int
	FixturesFinalized int
	Skipped           int
	Duration          time.Duration
	Errors            []string
}

// Summary returns a human-readable summary.
func (r *SyncResult) Summary() string {
	return fmt.Sprintf("checked=%d live=%d finalized=%d skipped=%d errors=%d dur=%s",
		r.FixturesChecked, r.LiveUpdated, r.FixturesFinalized, r.Skipped,
		len(r.Errors), r.Duration.Round(time.Millisecond))
}

// AddErrorf records a formatted error.
func (r *SyncResult) AddErrorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func validScore(home, away int) bool {
	return home >= 0 && away >= 0
}

func withScore(f league.Fixture, status league.Status, home, away *int) league.Fixture {
	f.Status = status
	f.HomeScore = home
	f.AwayScore = away
	return f
}
