package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/scoracle-predict/internal/api/respond"
	"github.com/albapepper/scoracle-predict/internal/cache"
)

// TableResponse is the payload of the season table endpoint.
type TableResponse struct {
	SeasonID    int64     `json:"season_id"`
	View        string    `json:"view"`
	GeneratedAt time.Time `json:"generated_at"`
	Table       any       `json:"table"`
}

// GetSeasonTable returns a season's league table.
// @Summary Get league table
// @Description Returns the ranked table for a season. The live view overlays in-play fixtures as provisional results; the base view is the persisted table built from finished fixtures only.
// @Tags table
// @Produce json
// @Param seasonID path int true "Season ID"
// @Param view query string false "Table view" Enums(live, base) default(live)
// @Success 200 {object} TableResponse
// @Success 304 "Not modified"
// @Failure 400 {object} respond.ErrorResponse
// @Router /seasons/{seasonID}/table [get]
func (h *Handler) GetSeasonTable(w http.ResponseWriter, r *http.Request) {
	seasonID, ok := pathID(w, r, "seasonID")
	if !ok {
		return
	}

	view := r.URL.Query().Get("view")
	if view == "" {
		view = "live"
	}
	ttl := cache.TTLLiveTable
	switch view {
	case "live":
	case "base":
		ttl = cache.TTLBaseTable
	default:
		respond.WriteError(w, http.StatusBadRequest, "INVALID_VIEW", "view must be 'live' or 'base'")
		return
	}

	// Concurrent requests share one build, so it must outlive this request.
	ctx := context.WithoutCancel(r.Context())
	h.serveCached(w, r, cache.TableKey(seasonID, view), ttl, func() ([]byte, error) {
		resp := TableResponse{SeasonID: seasonID, View: view, GeneratedAt: time.Now().UTC()}
		if view == "base" {
			rows, err := h.svc.Tables.Base(ctx, seasonID)
			if err != nil {
				return nil, err
			}
			resp.Table = rows
		} else {
			rows, err := h.svc.Tables.Live(ctx, seasonID)
			if err != nil {
				return nil, err
			}
			resp.Table = rows
		}
		return json.Marshal(resp)
	})
}

// LeaderboardResponse is the payload of the leaderboard endpoint.
type LeaderboardResponse struct {
	SeasonID int64 `json:"season_id"`
	Entries  any   `json:"entries"`
}

// GetLeaderboard ranks users by awarded prediction points.
// @Summary Get prediction leaderboard
// @Description Ranks users by total points awarded in a season. Season 0 ranks across all seasons.
// @Tags predictions
// @Produce json
// @Param seasonID path int true "Season ID (0 for all seasons)"
// @Param limit query int false "Rows to return (1-100)" default(20)
// @Success 200 {object} LeaderboardResponse
// @Failure 400 {object} respond.ErrorResponse
// @Router /seasons/{seasonID}/leaderboard [get]
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	// 0 is allowed here, so pathID is not used.
	seasonID, err := strconv.ParseInt(chi.URLParam(r, "seasonID"), 10, 64)
	if err != nil || seasonID < 0 {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ID", "seasonID must be a non-negative integer")
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, err = strconv.Atoi(l)
		if err != nil || limit < 1 || limit > 100 {
			respond.WriteError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be between 1 and 100")
			return
		}
	}

	ctx := context.WithoutCancel(r.Context())
	h.serveCached(w, r, cache.LeaderboardKey(seasonID, limit), cache.TTLLeaderboard, func() ([]byte, error) {
		rows, err := h.svc.Predictions.Leaderboard(ctx, seasonID, limit)
		if err != nil {
			return nil, err
		}
		return json.Marshal(LeaderboardResponse{SeasonID: seasonID, Entries: rows})
	})
}
