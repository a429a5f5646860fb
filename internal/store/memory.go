package store

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/albapepper/scoracle-predict/internal/league"
)

// Memory is an in-process Store used by tests and local tooling.
// Transactions are serialized and roll back on error.
type Memory struct {
	txMu sync.Mutex // held for the duration of a transaction
	mu   sync.Mutex // guards the maps below

	now func() time.Time

	nextID      int64
	teams       map[int64]league.Team
	seasonTeams map[int64][]int64
	users       map[int64]string
	fixtures    map[int64]league.Fixture
	predictions map[int64]league.Prediction
	standings   map[int64][]league.Standing
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		now:         time.Now,
		teams:       make(map[int64]league.Team),
		seasonTeams: make(map[int64][]int64),
		users:       make(map[int64]string),
		fixtures:    make(map[int64]league.Fixture),
		predictions: make(map[int64]league.Prediction),
		standings:   make(map[int64][]league.Standing),
	}
}

// --------------------------------------------------------------------------
// Seeding
// --------------------------------------------------------------------------

// AddTeam registers a team in a season and returns it with its ID.
func (m *Memory) AddTeam(seasonID int64, name string) league.Team {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t := league.Team{ID: m.nextID, Name: name}
	m.teams[t.ID] = t
	m.seasonTeams[seasonID] = append(m.seasonTeams[seasonID], t.ID)
	return t
}

// AddUser registers a user and returns the ID.
func (m *Memory) AddUser(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.users[m.nextID] = name
	return m.nextID
}

// AddFixture stores f, assigning an ID when it has none.
func (m *Memory) AddFixture(f league.Fixture) league.Fixture {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID == 0 {
		m.nextID++
		f.ID = m.nextID
	}
	m.fixtures[f.ID] = f
	return f
}

// --------------------------------------------------------------------------
// Store
// --------------------------------------------------------------------------

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) InTx(ctx context.Context, fn func(Repository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.snapshot()
	err := fn(m)
	if err == nil {
		// A cancelled context fails the commit, as it would in Postgres.
		err = ctx.Err()
	}
	if err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

// InSeasonTx is InTx: the memory store only ever runs one transaction.
func (m *Memory) InSeasonTx(ctx context.Context, _ int64, fn func(Repository) error) error {
	return m.InTx(ctx, fn)
}

type memorySnapshot struct {
	nextID      int64
	fixtures    map[int64]league.Fixture
	predictions map[int64]league.Prediction
	standings   map[int64][]league.Standing
}

func (m *Memory) snapshot() memorySnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	standings := make(map[int64][]league.Standing, len(m.standings))
	for k, v := range m.standings {
		standings[k] = slices.Clone(v)
	}
	return memorySnapshot{
		nextID:      m.nextID,
		fixtures:    maps.Clone(m.fixtures),
		predictions: maps.Clone(m.predictions),
		standings:   standings,
	}
}

func (m *Memory) restore(s memorySnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID = s.nextID
	m.fixtures = s.fixtures
	m.predictions = s.predictions
	m.standings = s.standings
}

// --------------------------------------------------------------------------
// Repository
// --------------------------------------------------------------------------

func (m *Memory) Teams(_ context.Context, seasonID int64) ([]league.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var teams []league.Team
	for _, id := range m.seasonTeams[seasonID] {
		teams = append(teams, m.teams[id])
	}
	slices.SortFunc(teams, func(a, b league.Team) int { return cmp.Compare(a.Name, b.Name) })
	return teams, nil
}

func (m *Memory) Fixtures(_ context.Context, filter FixtureFilter) ([]league.Fixture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []league.Fixture
	for _, f := range m.fixtures {
		if filter.SeasonID != 0 && f.SeasonID != filter.SeasonID {
			continue
		}
		if filter.FixtureID != 0 && f.ID != filter.FixtureID {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, f.Status) {
			continue
		}
		if !filter.KickoffBefore.IsZero() && f.Kickoff.After(filter.KickoffBefore) {
			continue
		}
		if filter.PointsPending && !f.Scoreable() {
			continue
		}
		if filter.ExternalOnly && f.ExternalID == nil {
			continue
		}
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b league.Fixture) int {
		if c := a.Kickoff.Compare(b.Kickoff); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (m *Memory) Fixture(_ context.Context, id int64) (league.Fixture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.fixtures[id]
	if !ok {
		return f, fmt.Errorf("fixture %d: %w", id, ErrNotFound)
	}
	return f, nil
}

func (m *Memory) LockFixture(ctx context.Context, id int64) (league.Fixture, error) {
	return m.Fixture(ctx, id)
}

func (m *Memory) SaveFixtureState(_ context.Context, f league.Fixture) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.fixtures[f.ID]
	if !ok {
		return fmt.Errorf("update fixture %d: %w", f.ID, ErrNotFound)
	}
	cur.Status = f.Status
	cur.HomeScore = f.HomeScore
	cur.AwayScore = f.AwayScore
	m.fixtures[f.ID] = cur
	return nil
}

func (m *Memory) InsertFixtures(_ context.Context, fixtures []league.Fixture) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range fixtures {
		m.nextID++
		f.ID = m.nextID
		m.fixtures[f.ID] = f
	}
	return len(fixtures), nil
}

func (m *Memory) MarkPointsCalculated(_ context.Context, fixtureID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.fixtures[fixtureID]
	if !ok {
		return fmt.Errorf("mark fixture %d scored: %w", fixtureID, ErrNotFound)
	}
	f.PointsCalculated = true
	m.fixtures[fixtureID] = f
	return nil
}

func (m *Memory) Predictions(_ context.Context, fixtureID int64) ([]league.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []league.Prediction
	for _, p := range m.predictions {
		if p.FixtureID == fixtureID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b league.Prediction) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *Memory) Prediction(_ context.Context, id int64) (league.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.predictions[id]
	if !ok {
		return p, fmt.Errorf("prediction %d: %w", id, ErrNotFound)
	}
	return p, nil
}

func (m *Memory) UpsertPrediction(_ context.Context, p *league.Prediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.fixtures[p.FixtureID]; !ok {
		return fmt.Errorf("upsert prediction: fixture %d: %w", p.FixtureID, ErrNotFound)
	}
	p.ID = 0
	for id, existing := range m.predictions {
		if existing.UserID == p.UserID && existing.FixtureID == p.FixtureID {
			p.ID = id
			break
		}
	}
	if p.ID == 0 {
		m.nextID++
		p.ID = m.nextID
	}
	p.PointsAwarded = nil
	p.UpdatedAt = m.now()
	m.predictions[p.ID] = *p
	return nil
}

func (m *Memory) AwardPoints(_ context.Context, predictionID int64, points int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.predictions[predictionID]
	if !ok {
		return fmt.Errorf("award points to prediction %d: %w", predictionID, ErrNotFound)
	}
	p.PointsAwarded = league.Score(points)
	m.predictions[predictionID] = p
	return nil
}

func (m *Memory) Standings(_ context.Context, seasonID int64) ([]league.Standing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.standings[seasonID]), nil
}

func (m *Memory) SaveStandings(_ context.Context, seasonID int64, rows []league.Standing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.standings[seasonID] = slices.Clone(rows)
	return nil
}

func (m *Memory) Leaderboard(_ context.Context, seasonID int64, limit int) ([]LeaderboardRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	totals := map[int64]*LeaderboardRow{}
	for _, p := range m.predictions {
		if p.PointsAwarded == nil {
			continue
		}
		if seasonID != 0 && m.fixtures[p.FixtureID].SeasonID != seasonID {
			continue
		}
		row, ok := totals[p.UserID]
		if !ok {
			row = &LeaderboardRow{UserID: p.UserID, Name: m.users[p.UserID]}
			totals[p.UserID] = row
		}
		row.Points += *p.PointsAwarded
		row.Predictions++
	}

	board := make([]LeaderboardRow, 0, len(totals))
	for _, row := range totals {
		board = append(board, *row)
	}
	slices.SortFunc(board, func(a, b LeaderboardRow) int {
		if c := cmp.Compare(b.Points, a.Points); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
	if limit > 0 && len(board) > limit {
		board = board[:limit]
	}
	for i := range board {
		board[i].Position = i + 1
	}
	return board, nil
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*Postgres)(nil)
)
