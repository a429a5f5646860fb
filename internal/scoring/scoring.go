// Package scoring awards points for a predicted scoreline against the final
// result of a fixture.
//
// Two rule sets exist. Standard (the default) pays 5 for an exact score, 3 for
// the right winner with the right goal margin, 2 for the right outcome and 0
// otherwise. Classic drops the goal-margin tier and pays 5/2/0.
package scoring

import (
	"fmt"
	"strings"
)

// Point awards.
const (
	ExactScore     = 5
	GoalDifference = 3
	CorrectOutcome = 2
	Miss           = 0
)

// Outcome is the result of a match from the home side's point of view.
type Outcome byte

const (
	HomeWin Outcome = 'H'
	AwayWin Outcome = 'A'
	Draw    Outcome = 'D'
)

func (o Outcome) String() string { return string(o) }

// OutcomeOf classifies a scoreline.
func OutcomeOf(home, away int) Outcome {
	switch {
	case home > away:
		return HomeWin
	case away > home:
		return AwayWin
	default:
		return Draw
	}
}

// Rules selects a scoring rule set.
type Rules string

const (
	RulesStandard Rules = "standard"
	RulesClassic  Rules = "classic"
)

// ParseRules resolves a rule set name. Empty selects the standard rules.
func ParseRules(name string) (Rules, error) {
	switch Rules(strings.ToLower(strings.TrimSpace(name))) {
	case "", RulesStandard:
		return RulesStandard, nil
	case RulesClassic:
		return RulesClassic, nil
	default:
		return "", fmt.Errorf("unknown scoring rules %q (want standard or classic)", name)
	}
}

// Score applies the standard rules.
func Score(actualHome, actualAway, predictedHome, predictedAway int) int {
	return RulesStandard.Score(actualHome, actualAway, predictedHome, predictedAway)
}

// Score returns the points a prediction earns under r.
func (r Rules) Score(actualHome, actualAway, predictedHome, predictedAway int) int {
	if actualHome == predictedHome && actualAway == predictedAway {
		return ExactScore
	}

	actual := OutcomeOf(actualHome, actualAway)
	if actual != OutcomeOf(predictedHome, predictedAway) {
		return Miss
	}

	if r != RulesClassic && actual != Draw &&
		abs(actualHome-actualAway) == abs(predictedHome-predictedAway) {
		return GoalDifference
	}
	return CorrectOutcome
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
