// Package listener provides a Postgres LISTEN/NOTIFY consumer that keeps API
// caches coherent across instances. It holds a dedicated pgx connection (not
// from the pool) listening on the `fixture_changed` channel.
//
// A trigger on the fixtures table fires pg_notify whenever a fixture's
// status or score changes; this consumer drops the cached tables and
// leaderboards of the affected season.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	channel          = "fixture_changed"
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// FixtureEvent is the JSON payload from pg_notify('fixture_changed', ...).
type FixtureEvent struct {
	FixtureID int64  `json:"fixture_id"`
	SeasonID  int64  `json:"season_id"`
	Status    string `json:"status"`
	HomeScore *int   `json:"home_score"`
	AwayScore *int   `json:"away_score"`
	Scored    bool   `json:"points_calculated"`
	Timestamp int64  `json:"ts"`
}

// Invalidator drops cached views of a season. *cache.Cache satisfies it.
type Invalidator interface {
	InvalidateSeason(seasonID int64) int
}

// Start opens a dedicated connection and listens on the fixture_changed
// channel. It reconnects automatically on connection loss. Blocks until ctx
// is cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, inv Invalidator, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, inv, logger)
		if ctx.Err() != nil {
			logger.Info("Fixture listener stopped (context cancelled)")
			return
		}

		logger.Error("Fixture listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, inv Invalidator, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+channel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", channel, err)
	}
	logger.Info("Fixture listener connected", "channel", channel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		Handle(notification.Payload, inv, logger)
	}
}

// Handle applies one notification payload.
func Handle(payload string, inv Invalidator, logger *slog.Logger) {
	var event FixtureEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		logger.Warn("Failed to parse fixture event", "payload", payload, "error", err)
		return
	}
	if event.SeasonID == 0 {
		logger.Warn("Fixture event without season", "payload", payload)
		return
	}

	removed := inv.InvalidateSeason(event.SeasonID)
	logger.Debug("Fixture event received",
		"fixture_id", event.FixtureID,
		"season_id", event.SeasonID,
		"status", event.Status,
		"scored", event.Scored,
		"invalidated", removed)
}
