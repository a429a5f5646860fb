package league

import "time"

// Pairing is one scheduled match produced by the round-robin generator.
type Pairing struct {
	HomeTeamID int64
	AwayTeamID int64
	Matchweek  int
}

// RoundRobin returns a single round-robin: every team meets every other
// team once. With an odd number of teams one team sits out each round.
// Rounds are numbered from 1.
func RoundRobin(teamIDs []int64) [][]Pairing {
	n := len(teamIDs)
	if n < 2 {
		return nil
	}

	// Work on a copy; 0 marks the bye slot.
	slots := make([]int64, n, n+1)
	copy(slots, teamIDs)
	if n%2 != 0 {
		slots = append(slots, 0)
		n++
	}

	rounds := make([][]Pairing, 0, n-1)
	for r := 0; r < n-1; r++ {
		round := make([]Pairing, 0, n/2)
		for j := 0; j < n/2; j++ {
			home, away := slots[j], slots[n-1-j]
			if home == 0 || away == 0 {
				continue
			}
			// Alternate the fixed team's venue so it is not always at home.
			if j == 0 && r%2 == 1 {
				home, away = away, home
			}
			round = append(round, Pairing{HomeTeamID: home, AwayTeamID: away, Matchweek: r + 1})
		}
		rounds = append(rounds, round)

		// Rotate every slot but the first.
		last := slots[n-1]
		copy(slots[2:], slots[1:n-1])
		slots[1] = last
	}
	return rounds
}

// DoubleRoundRobin plays the single round-robin twice, the second half with
// home and away swapped and matchweeks continuing from the first half.
func DoubleRoundRobin(teamIDs []int64) [][]Pairing {
	first := RoundRobin(teamIDs)
	rounds := make([][]Pairing, 0, 2*len(first))
	rounds = append(rounds, first...)
	for i, round := range first {
		swapped := make([]Pairing, len(round))
		for j, p := range round {
			swapped[j] = Pairing{
				HomeTeamID: p.AwayTeamID,
				AwayTeamID: p.HomeTeamID,
				Matchweek:  len(first) + i + 1,
			}
		}
		rounds = append(rounds, swapped)
	}
	return rounds
}

// ScheduleFixtures turns rounds into scheduled fixtures, kicking off the
// first matchweek at start and each following one interval later.
func ScheduleFixtures(seasonID int64, rounds [][]Pairing, start time.Time, interval time.Duration) []Fixture {
	var fixtures []Fixture
	for _, round := range rounds {
		for _, p := range round {
			fixtures = append(fixtures, Fixture{
				SeasonID:   seasonID,
				HomeTeamID: p.HomeTeamID,
				AwayTeamID: p.AwayTeamID,
				Kickoff:    start.Add(time.Duration(p.Matchweek-1) * interval),
				Matchweek:  p.Matchweek,
				Status:     StatusScheduled,
			})
		}
	}
	return fixtures
}
