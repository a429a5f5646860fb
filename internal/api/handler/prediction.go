package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/albapepper/scoracle-predict/internal/api/respond"
)

// maxPredictionBody caps the POST body; a prediction is four integers.
const maxPredictionBody = 4 << 10

// PredictionRequest is the body of POST /predictions. UserID is supplied by
// the authentication layer in front of this API.
type PredictionRequest struct {
	UserID    int64 `json:"user_id"`
	FixtureID int64 `json:"fixture_id"`
	HomeScore *int  `json:"home_score"`
	AwayScore *int  `json:"away_score"`
}

// PointsResponse reports the points a prediction earned, if scored yet.
type PointsResponse struct {
	PredictionID int64 `json:"prediction_id"`
	Points       *int  `json:"points"`
	Scored       bool  `json:"scored"`
}

// GetPrediction returns a single prediction.
// @Summary Get prediction
// @Tags predictions
// @Produce json
// @Param predictionID path int true "Prediction ID"
// @Success 200 {object} league.Prediction
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /predictions/{predictionID} [get]
func (h *Handler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "predictionID")
	if !ok {
		return
	}
	p, err := h.svc.Predictions.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, p)
}

// GetPredictionPoints returns the points awarded to a prediction.
// @Summary Get prediction points
// @Description Points are null until the fixture is finished and scored.
// @Tags predictions
// @Produce json
// @Param predictionID path int true "Prediction ID"
// @Success 200 {object} PointsResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /predictions/{predictionID}/points [get]
func (h *Handler) GetPredictionPoints(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "predictionID")
	if !ok {
		return
	}
	points, err := h.svc.Predictions.Points(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, PointsResponse{
		PredictionID: id,
		Points:       points,
		Scored:       points != nil,
	})
}

// PostPrediction creates or replaces a user's prediction for a fixture.
// @Summary Submit prediction
// @Description Creates or replaces the user's predicted score. Rejected once the fixture's lock time has passed.
// @Tags predictions
// @Accept json
// @Produce json
// @Param body body PredictionRequest true "Prediction"
// @Success 201 {object} league.Prediction
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Router /predictions [post]
func (h *Handler) PostPrediction(w http.ResponseWriter, r *http.Request) {
	var req PredictionRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxPredictionBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be a prediction object", err.Error())
		return
	}
	if err := req.validate(); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	p, err := h.svc.Predictions.Submit(r.Context(), req.UserID, req.FixtureID, *req.HomeScore, *req.AwayScore)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusCreated, p)
}

func (req PredictionRequest) validate() error {
	switch {
	case req.UserID <= 0:
		return errors.New("user_id must be a positive integer")
	case req.FixtureID <= 0:
		return errors.New("fixture_id must be a positive integer")
	case req.HomeScore == nil || req.AwayScore == nil:
		return errors.New("home_score and away_score are required")
	}
	return nil
}
