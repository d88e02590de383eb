// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/okian/quals/internal/domain/model"
)

// RankHandler serves predictions, simulated rankings and forecasts.
type RankHandler struct {
	server *Server
}

type scheduleRequest struct {
	Schedule []model.Match `json:"schedule" validate:"required,min=1,dive"`
}

type simulateRequest struct {
	TeamNumber int `json:"team_number" validate:"required,gt=0"`
}

type compareRequest struct {
	Team1 int `json:"team1" validate:"required,gt=0"`
	Team2 int `json:"team2" validate:"required,gt=0"`
}

// HandlePredict handles POST /api/predict-schedule/{code} requests.
func (h *RankHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict_schedule"
	code, season, err := eventParams(r)
	if err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	var req scheduleRequest
	if err := h.server.decode(w, r, op, &req); err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	res, err := h.server.deps.PredictMatches(r.Context(), code, season, req.Schedule)
	if err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	writeSuccess(w, res)
}

// HandleRanking handles POST /api/ranking/{code} requests.
func (h *RankHandler) HandleRanking(w http.ResponseWriter, r *http.Request) {
	const op = "api.ranking"
	code, season, err := eventParams(r)
	if err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	var req scheduleRequest
	if err := h.server.decode(w, r, op, &req); err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	res, err := h.server.deps.Rank(r.Context(), code, season, req.Schedule)
	if err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	writeSuccess(w, res)
}

// HandleSimulate handles POST /api/simulate-team/{code} requests.
func (h *RankHandler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	const op = "api.simulate_team"
	code, season, err := eventParams(r)
	if err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	var req simulateRequest
	if err := h.server.decode(w, r, op, &req); err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	res, err := h.server.deps.Simulate(r.Context(), code, season, req.TeamNumber)
	if err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	writeSuccess(w, res)
}

// HandleCompare handles POST /api/compare-teams/{code} requests.
func (h *RankHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "api.compare_teams"
	code, season, err := eventParams(r)
	if err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	var req compareRequest
	if err := h.server.decode(w, r, op, &req); err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	res, err := h.server.deps.Compare(r.Context(), code, season, req.Team1, req.Team2)
	if err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	writeSuccess(w, res)
}
