// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/okian/quals/internal/domain/model"
)

// EventsHandler serves event reports.
type EventsHandler struct {
	server *Server
}

// eventsRequest mirrors the OpenAPI schema for POST /api/events.
type eventsRequest struct {
	EventCodes []string `json:"event_codes" validate:"required,min=1,dive,required"`
	Season     int      `json:"season" validate:"gte=0"`
}

type eventsResponse struct {
	Success bool                         `json:"success"`
	Season  int                          `json:"season,omitempty"`
	Events  map[string]model.EventReport `json:"events"`
}

// HandleGetEvent handles GET /api/event/{code} requests.
func (h *EventsHandler) HandleGetEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_event"
	code, season, err := eventParams(r)
	if err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	report, err := h.server.deps.Report(r.Context(), code, season)
	if err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	writeSuccess(w, report)
}

// HandlePostEvents handles POST /api/events requests. Events that cannot be
// fetched are left out of the response.
func (h *EventsHandler) HandlePostEvents(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_events"
	var req eventsRequest
	if err := h.server.decode(w, r, op, &req); err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	reports, err := h.server.deps.Reports(r.Context(), req.EventCodes, req.Season)
	if err != nil {
		h.server.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, eventsResponse{Success: true, Season: req.Season, Events: reports})
}
