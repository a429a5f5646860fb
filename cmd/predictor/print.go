package main

import (
	"fmt"
	"io"
	"time"

	"github.com/albapepper/scoracle-predict/internal/league"
	"github.com/albapepper/scoracle-predict/internal/store"
)

const tableHeader = "%3s %-20s %2s %2s %2s %2s %3s %3s %4s %3s  %-5s"

func printStandings(w io.Writer, label string, rows []league.Standing) {
	fmt.Fprintln(w, label)
	fmt.Fprintf(w, tableHeader+"\n", "#", "Team", "P", "W", "D", "L", "GF", "GA", "GD", "Pts", "Form")
	for _, r := range rows {
		fmt.Fprintf(w, "%3d %-20s %2d %2d %2d %2d %3d %3d %+4d %3d  %-5s\n",
			r.Position, r.Team.Name, r.Played, r.Won, r.Drawn, r.Lost,
			r.GoalsFor, r.GoalsAgainst, r.GoalDifference, r.Points, r.Form)
	}
}

func printEntries(w io.Writer, label string, rows []league.Entry) {
	fmt.Fprintln(w, label)
	fmt.Fprintf(w, tableHeader+"  %s\n", "#", "Team", "P", "W", "D", "L", "GF", "GA", "GD", "Pts", "Form", "Live")
	for _, r := range rows {
		live := ""
		if m := r.CurrentMatch; m != nil {
			live = fmt.Sprintf("%d-%d vs %s", m.HomeScore, m.AwayScore, m.OpponentName)
			if r.BaseStats != nil && r.BaseStats.Position != r.Position {
				live += fmt.Sprintf(" (was %d)", r.BaseStats.Position)
			}
		}
		fmt.Fprintf(w, "%3d %-20s %2d %2d %2d %2d %3d %3d %+4d %3d  %-5s  %s\n",
			r.Position, r.Team.Name, r.Played, r.Won, r.Drawn, r.Lost,
			r.GoalsFor, r.GoalsAgainst, r.GoalDifference, r.Points, r.Form, live)
	}
}

func printFixtures(w io.Writer, label string, fixtures []league.Fixture) {
	fmt.Fprintf(w, "%s (%d)\n", label, len(fixtures))
	for _, f := range fixtures {
		score := "-"
		if f.HasScore() {
			score = fmt.Sprintf("%d-%d", *f.HomeScore, *f.AwayScore)
		}
		fmt.Fprintf(w, "%6d  mw%-3d %s  %5d v %-5d %-9s %s\n",
			f.ID, f.Matchweek, f.Kickoff.UTC().Format(time.DateTime),
			f.HomeTeamID, f.AwayTeamID, f.Status, score)
	}
}

func printLeaderboard(w io.Writer, rows []store.LeaderboardRow) {
	fmt.Fprintf(w, "%3s %-24s %6s %5s\n", "#", "User", "Points", "Preds")
	for _, r := range rows {
		fmt.Fprintf(w, "%3d %-24s %6d %5d\n", r.Position, r.Name, r.Points, r.Predictions)
	}
}
