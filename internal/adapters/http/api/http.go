// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/quals/internal/adapters/statsapi"
	service "github.com/okian/quals/internal/app"
	"github.com/okian/quals/internal/domain/model"
	"github.com/okian/quals/internal/domain/montecarlo"
	"github.com/okian/quals/internal/domain/schedule"
	"github.com/okian/quals/pkg/logger"
	"github.com/okian/quals/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider

	Report(ctx context.Context, code string, season int) (model.EventReport, error)
	Reports(ctx context.Context, codes []string, season int) (map[string]model.EventReport, error)

	GenerateSchedule(ctx context.Context, code string, season, matchesPerTeam int) (service.ScheduleResult, error)
	ImportSchedule(ctx context.Context, code string, season int) (service.ScheduleResult, error)

	PredictMatches(ctx context.Context, code string, season int, matches []model.Match) (service.PredictionResult, error)
	Rank(ctx context.Context, code string, season int, matches []model.Match) (service.RankingResult, error)

	Simulate(ctx context.Context, code string, season, team int) (service.SimulationResult, error)
	Compare(ctx context.Context, code string, season, team1, team2 int) (service.ComparisonResult, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps     Dependencies
	validate *validator.Validate
	logger   logger.Logger

	username string
	password string
	origins  []string
	docs     func(chi.Router)

	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	eventsHandler   *EventsHandler
	scheduleHandler *ScheduleHandler
	rankHandler     *RankHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:     deps,
		validate: validator.New(),
		logger:   logger.Nop(),
		origins:  []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.eventsHandler = &EventsHandler{server: s}
	s.scheduleHandler = &ScheduleHandler{server: s}
	s.rankHandler = &RankHandler{server: s}
	return s
}

// Handler builds the router serving every route of the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP)
	if s.docs != nil {
		s.docs(r)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", MetricsMiddleware(s.healthHandler.HandleHealth, "health"))

		r.Group(func(r chi.Router) {
			if s.username != "" {
				r.Use(middleware.BasicAuth("quals", map[string]string{s.username: s.password}))
			}
			r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
			r.Get("/event/{code}", MetricsMiddleware(s.eventsHandler.HandleGetEvent, "event"))
			r.Post("/events", MetricsMiddleware(s.eventsHandler.HandlePostEvents, "events"))
			r.Get("/generate-schedule/{code}", MetricsMiddleware(s.scheduleHandler.HandleGenerate, "generate_schedule"))
			r.Get("/import-schedule/{code}", MetricsMiddleware(s.scheduleHandler.HandleImport, "import_schedule"))
			r.Post("/predict-schedule/{code}", MetricsMiddleware(s.rankHandler.HandlePredict, "predict_schedule"))
			r.Post("/ranking/{code}", MetricsMiddleware(s.rankHandler.HandleRanking, "ranking"))
			r.Post("/simulate-team/{code}", MetricsMiddleware(s.rankHandler.HandleSimulate, "simulate_team"))
			r.Post("/compare-teams/{code}", MetricsMiddleware(s.rankHandler.HandleCompare, "compare_teams"))
		})
	})
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v before writing the header, so a value that cannot be
// encoded is reported as a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Code: "encode_error", Message: err.Error()})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// writeSuccess wraps a result as {"success": true, "data": ...}.
func writeSuccess(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: v})
}

type successResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail translates a service error into its HTTP status.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("op", op),
			logger.String("request_id", RequestID(r.Context())),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, schedule.ErrInsufficientTeams),
		errors.Is(err, schedule.ErrInvalidMatchesPerTeam),
		errors.Is(err, service.ErrEmptySchedule),
		errors.Is(err, service.ErrInvalidSchedule),
		errors.Is(err, service.ErrSameTeam):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, statsapi.ErrNotFound),
		errors.Is(err, statsapi.ErrNoTeamData),
		errors.Is(err, service.ErrTeamNotInEvent):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, statsapi.ErrUpstream):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "canceled"
	case errors.Is(err, montecarlo.ErrAllSimulationsFailed):
		return http.StatusInternalServerError, "simulation_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
