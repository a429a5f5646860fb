package sportmonks

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/albapepper/scoracle-predict/internal/league"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		state string
		want  league.Status
	}{
		{"NS", league.StatusScheduled},
		{"INPLAY_1ST_HALF", league.StatusInPlay},
		{"HT", league.StatusInPlay},
		{"INPLAY_PENALTIES", league.StatusInPlay},
		{"FT", league.StatusFinished},
		{"AET", league.StatusFinished},
		{"POSTPONED", ""},
		{"CANCELLED", ""},
	}
	for _, tt := range tests {
		if got := statusFor(tt.state); got != tt.want {
			t.Errorf("statusFor(%q) = %q, want %q", tt.state, got, tt.want)
		}
	}
}

const fixtureBody = `{"data":{"id":%d,"state":{"developer_name":"FT"},"scores":[
	{"description":"1ST_HALF","score":{"goals":1,"participant":"home"}},
	{"description":"CURRENT","score":{"goals":3,"participant":"home"}},
	{"description":"CURRENT","score":{"goals":1,"participant":"away"}}
]}}`

func TestFixtureResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fixtures/19000" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprintf(w, fixtureBody, 19000)
	}))
	defer srv.Close()

	c := NewClient("tok", 6000, nil).WithBaseURL(srv.URL)
	res, err := c.FixtureResult(t.Context(), 19000)
	if err != nil {
		t.Fatalf("FixtureResult: %v", err)
	}
	if res.Status != league.StatusFinished || res.HomeScore == nil || *res.HomeScore != 3 || *res.AwayScore != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestResultsBatchesIDs(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		ids := strings.Split(strings.TrimPrefix(r.URL.Path, "/fixtures/multi/"), ",")
		var items []string
		for _, id := range ids {
			items = append(items, fmt.Sprintf(`{"id":%s,"state":{"developer_name":"INPLAY_2ND_HALF"},"scores":[]}`, id))
		}
		fmt.Fprintf(w, `{"data":[%s]}`, strings.Join(items, ","))
	}))
	defer srv.Close()

	ids := make([]int64, 120)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	c := NewClient("tok", 6000, nil).WithBaseURL(srv.URL)
	results, err := c.Results(t.Context(), ids)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if len(paths) != 3 {
		t.Errorf("%d requests, want 3", len(paths))
	}
	if len(results) != 120 {
		t.Fatalf("%d results, want 120", len(results))
	}
	if results[0].Status != league.StatusInPlay || results[0].HomeScore != nil {
		t.Errorf("first result = %+v", results[0])
	}
}

func TestUpstreamErrorIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("tok", 6000, nil).WithBaseURL(srv.URL).WithRetry(0, 0)
	_, err := c.FixtureResult(t.Context(), 1)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusTooManyRequests || !apiErr.Temporary() {
		t.Errorf("err = %v, want temporary APIError 429", err)
	}
}

func TestTemporaryFailureIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintf(w, fixtureBody, 7)
	}))
	defer srv.Close()

	c := NewClient("tok", 6000, nil).WithBaseURL(srv.URL).WithRetry(1, time.Millisecond)
	res, err := c.FixtureResult(t.Context(), 7)
	if err != nil {
		t.Fatalf("FixtureResult: %v", err)
	}
	if calls.Load() != 2 || res.ExternalID != 7 {
		t.Errorf("calls = %d, result = %+v", calls.Load(), res)
	}
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient("tok", 6000, nil).WithBaseURL(srv.URL).WithRetry(3, time.Millisecond)
	if _, err := c.FixtureResult(t.Context(), 7); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}
