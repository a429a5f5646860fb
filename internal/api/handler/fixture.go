package handler

import (
	"net/http"
	"time"

	"github.com/albapepper/scoracle-predict/internal/api/respond"
	"github.com/albapepper/scoracle-predict/internal/league"
)

// FixtureResponse is a fixture with its prediction lock status.
type FixtureResponse struct {
	Fixture  league.Fixture `json:"fixture"`
	IsLocked bool           `json:"is_locked"`
	LocksAt  time.Time      `json:"locks_at"`
}

// GetFixture returns a fixture and whether it still accepts predictions.
// Not cached: lock status depends on the current time.
// @Summary Get fixture
// @Description Returns a fixture with its current status, score and prediction lock time.
// @Tags fixtures
// @Produce json
// @Param fixtureID path int true "Fixture ID"
// @Success 200 {object} FixtureResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /fixtures/{fixtureID} [get]
func (h *Handler) GetFixture(w http.ResponseWriter, r *http.Request) {
	fixtureID, ok := pathID(w, r, "fixtureID")
	if !ok {
		return
	}

	f, err := h.svc.Fixtures.Get(r.Context(), fixtureID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, FixtureResponse{
		Fixture:  f,
		IsLocked: h.svc.Predictions.IsLocked(f),
		LocksAt:  h.svc.Predictions.LockTime(f).UTC(),
	})
}
