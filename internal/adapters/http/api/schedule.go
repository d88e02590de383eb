package api

import (
	"fmt"
	"net/http"
)

// ScheduleHandler serves generated and imported schedules.
type ScheduleHandler struct {
	server *Server
}

// HandleGenerate handles GET /api/generate-schedule/{code} requests.
func (h *ScheduleHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	const op = "api.generate_schedule"
	code, season, err := eventParams(r)
	if err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	perTeam, err := intQuery(r, "matches_per_team")
	if err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	if perTeam < 0 {
		h.server.fail(w, r, op, fmt.Errorf("matches_per_team must be positive: %w", ErrBadRequest))
		return
	}
	res, err := h.server.deps.GenerateSchedule(r.Context(), code, season, perTeam)
	if err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	writeSuccess(w, res)
}

// HandleImport handles GET /api/import-schedule/{code} requests.
func (h *ScheduleHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	const op = "api.import_schedule"
	code, season, err := eventParams(r)
	if err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	res, err := h.server.deps.ImportSchedule(r.Context(), code, season)
	if err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	writeSuccess(w, res)
}
