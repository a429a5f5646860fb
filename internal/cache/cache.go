// Package cache holds encoded table and leaderboard payloads in memory with
// a TTL and a weak ETag. Concurrent misses on one key share a single build.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// TTLs per payload. Live tables change with every goal, so they are kept
// short; base tables and leaderboards only change when a fixture finishes
// and are also invalidated on fixture_changed notifications.
const (
	TTLLiveTable   = 15 * time.Second
	TTLBaseTable   = 10 * time.Minute
	TTLLeaderboard = 5 * time.Minute
)

const evictEvery = 5 * time.Minute

// TableKey is the cache key for a season's table view ("live" or "base").
func TableKey(seasonID int64, view string) string {
	return fmt.Sprintf("table:%d:%s", seasonID, view)
}

// LeaderboardKey is the cache key for a season leaderboard (0 = overall).
func LeaderboardKey(seasonID int64, limit int) string {
	return fmt.Sprintf("leaderboard:%d:%d", seasonID, limit)
}

type entry struct {
	data      []byte
	etag      string
	expiresAt time.Time
}

// build is an in-flight GetOrBuild shared by concurrent callers. stale is
// set, under Cache.mu, when the key is invalidated while fn runs.
type build struct {
	done  chan struct{}
	data  []byte
	etag  string
	err   error
	stale bool
}

// Cache is safe for concurrent use. A disabled cache stores nothing but
// still computes ETags.
type Cache struct {
	mu       sync.RWMutex
	entries  map[string]entry
	inflight map[string]*build
	enabled  bool

	hits, misses atomic.Int64
}

// New creates a cache and, when enabled, starts its eviction loop.
func New(enabled bool) *Cache {
	c := &Cache{
		entries:  make(map[string]entry),
		inflight: make(map[string]*build),
		enabled:  enabled,
	}
	if enabled {
		go c.evictLoop()
	}
	return c
}

// Get returns a live entry.
func (c *Cache) Get(key string) (data []byte, etag string, ok bool) {
	if !c.enabled {
		return nil, "", false
	}
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()
	if !exists || time.Now().After(e.expiresAt) {
		c.misses.Add(1)
		return nil, "", false
	}
	c.hits.Add(1)
	return e.data, e.etag, true
}

// Set stores data for ttl and returns its ETag.
func (c *Cache) Set(key string, data []byte, ttl time.Duration) string {
	etag := ComputeETag(data)
	if !c.enabled {
		return etag
	}
	c.mu.Lock()
	c.entries[key] = entry{data: data, etag: etag, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return etag
}

// GetOrBuild returns the cached payload for key, or runs fn once for all
// concurrent callers and caches its result. hit reports a cache hit. Errors
// are returned to every waiter and not cached, and neither is a result whose
// key was invalidated before fn returned.
func (c *Cache) GetOrBuild(key string, ttl time.Duration, fn func() ([]byte, error)) (data []byte, etag string, hit bool, err error) {
	if data, etag, ok := c.Get(key); ok {
		return data, etag, true, nil
	}
	if !c.enabled {
		data, err := fn()
		if err != nil {
			return nil, "", false, err
		}
		return data, ComputeETag(data), false, nil
	}

	c.mu.Lock()
	if b, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		<-b.done
		return b.data, b.etag, false, b.err
	}
	b := &build{done: make(chan struct{})}
	c.inflight[key] = b
	c.mu.Unlock()

	b.data, b.err = fn()
	if b.err == nil {
		b.etag = ComputeETag(b.data)
	}

	c.mu.Lock()
	if c.inflight[key] == b {
		delete(c.inflight, key)
	}
	if b.err == nil && !b.stale {
		c.entries[key] = entry{data: b.data, etag: b.etag, expiresAt: time.Now().Add(ttl)}
	}
	c.mu.Unlock()
	close(b.done)
	return b.data, b.etag, false, b.err
}

// Invalidate drops every key starting with one of the prefixes and returns
// how many entries were removed. Builds in flight for those keys finish for
// their callers but are not stored, and later callers start a fresh build.
func (c *Cache) Invalidate(prefixes ...string) int {
	if !c.enabled {
		return 0
	}
	match := func(key string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(key, p) {
				return true
			}
		}
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key := range c.entries {
		if match(key) {
			delete(c.entries, key)
			removed++
		}
	}
	for key, b := range c.inflight {
		if match(key) {
			b.stale = true
			delete(c.inflight, key)
		}
	}
	return removed
}

// InvalidateSeason drops cached tables and leaderboards that depend on the
// season, including the all-seasons leaderboard.
func (c *Cache) InvalidateSeason(seasonID int64) int {
	return c.Invalidate(
		fmt.Sprintf("table:%d:", seasonID),
		fmt.Sprintf("leaderboard:%d:", seasonID),
		"leaderboard:0:",
	)
}

// InvalidateLeaderboards drops the season's leaderboards and the all-seasons
// one.
func (c *Cache) InvalidateLeaderboards(seasonID int64) int {
	return c.Invalidate(fmt.Sprintf("leaderboard:%d:", seasonID), "leaderboard:0:")
}

// Stats reports key counts and hit/miss totals.
func (c *Cache) Stats() map[string]any {
	c.mu.RLock()
	total := len(c.entries)
	active := 0
	now := time.Now()
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			active++
		}
	}
	c.mu.RUnlock()

	return map[string]any{
		"enabled":      c.enabled,
		"total_keys":   total,
		"active_keys":  active,
		"expired_keys": total - active,
		"hits":         c.hits.Load(),
		"misses":       c.misses.Load(),
	}
}

func (c *Cache) evictLoop() {
	for range time.Tick(evictEvery) {
		c.evict(time.Now())
	}
}

func (c *Cache) evict(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

// ComputeETag returns a weak ETag derived from the payload bytes.
func ComputeETag(data []byte) string {
	sum := md5.Sum(data)
	return `W/"` + hex.EncodeToString(sum[:8]) + `"`
}

// CheckETagMatch reports whether an If-None-Match header value names etag.
// The header may list several tags or be "*".
func CheckETagMatch(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "*" {
		return etag != ""
	}
	for candidate := range strings.SplitSeq(ifNoneMatch, ",") {
		if c := strings.TrimSpace(candidate); c != "" && c == etag {
			return true
		}
	}
	return false
}
