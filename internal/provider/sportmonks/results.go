package sportmonks

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/albapepper/scoracle-predict/internal/league"
)

// maxMultiIDs is the most fixture IDs the /fixtures/multi endpoint accepts.
const maxMultiIDs = 50

var includeScores = url.Values{"include": {"scores;state"}}

// Result is the provider's view of one fixture's state and score.
type Result struct {
	ExternalID int64
	// Status is empty when the provider state has no equivalent
	// (postponed, cancelled, abandoned...).
	Status    league.Status
	State     string
	HomeScore *int
	AwayScore *int
}

type smFixture struct {
	ID    int64 `json:"id"`
	State *struct {
		DeveloperName string `json:"developer_name"`
	} `json:"state"`
	Scores []struct {
		Description string `json:"description"`
		Score       struct {
			Goals       int    `json:"goals"`
			Participant string `json:"participant"`
		} `json:"score"`
	} `json:"scores"`
}

// statusFor maps a SportMonks state developer_name to a fixture status.
func statusFor(state string) league.Status {
	switch {
	case state == "NS" || state == "TBA":
		return league.StatusScheduled
	case strings.HasPrefix(state, "INPLAY"),
		state == "HT", state == "BREAK", state == "EXTRA_TIME_BREAK", state == "PEN_BREAK":
		return league.StatusInPlay
	case state == "FT" || state == "AET" || state == "FT_PEN":
		return league.StatusFinished
	default:
		return ""
	}
}

func (f smFixture) result() Result {
	r := Result{ExternalID: f.ID}
	if f.State != nil {
		r.State = f.State.DeveloperName
		r.Status = statusFor(r.State)
	}
	for _, s := range f.Scores {
		if s.Description != "CURRENT" {
			continue
		}
		switch s.Score.Participant {
		case "home":
			r.HomeScore = league.Score(s.Score.Goals)
		case "away":
			r.AwayScore = league.Score(s.Score.Goals)
		}
	}
	return r
}

// FixtureResult fetches the current state and score of one fixture.
func (c *Client) FixtureResult(ctx context.Context, externalID int64) (Result, error) {
	f, err := getOne[smFixture](ctx, c, fmt.Sprintf("/fixtures/%d", externalID), includeScores)
	if err != nil {
		return Result{}, err
	}
	return f.result(), nil
}

// Results fetches many fixtures in batches through /fixtures/multi. On error
// the results of earlier batches are returned with it.
func (c *Client) Results(ctx context.Context, externalIDs []int64) ([]Result, error) {
	var results []Result
	for batch := range slices.Chunk(externalIDs, maxMultiIDs) {
		ids := make([]string, len(batch))
		for i, id := range batch {
			ids[i] = strconv.FormatInt(id, 10)
		}

		fixtures, err := getList[smFixture](ctx, c, "/fixtures/multi/"+strings.Join(ids, ","), includeScores, maxMultiIDs)
		if err != nil {
			return results, err
		}
		for _, f := range fixtures {
			results = append(results, f.result())
		}
	}
	return results, nil
}
