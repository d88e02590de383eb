package service

import "github.com/okian/quals/internal/domain/model"

// EventInfo identifies the event a result belongs to.
type EventInfo struct {
	Code   string `json:"event"`
	Name   string `json:"event_name"`
	Season int    `json:"season"`
}

func infoOf(r model.EventReport) EventInfo {
	return EventInfo{Code: r.Code, Name: r.Name, Season: r.Season}
}

// ScheduleResult is a generated or imported qualification schedule.
type ScheduleResult struct {
	EventInfo
	MatchesCount       int           `json:"matches_count"`
	DuplicateAlliances int           `json:"duplicate_alliances"`
	Schedule           []model.Match `json:"schedule"`
	IsReal             bool          `json:"is_real,omitempty"`
}

// PredictionResult holds deterministic predictions for a schedule.
type PredictionResult struct {
	EventInfo
	Count       int                     `json:"predictions_count"`
	Predictions []model.MatchPrediction `json:"predictions"`
}

// RankingResult is one simulated seeding table.
type RankingResult struct {
	EventInfo
	TeamsCount int                `json:"teams_count"`
	Ranking    []model.RankingRow `json:"ranking"`
}

// Simulation types reported with Monte Carlo results.
const (
	SimulationSingle     = "single_team"
	SimulationComparison = "comparison"
)

// SimulationResult wraps a single team forecast.
type SimulationResult struct {
	EventInfo
	Type    string                  `json:"simulation_type"`
	Results model.SimulationSummary `json:"results"`
}

// ComparisonResult wraps a two team forecast.
type ComparisonResult struct {
	EventInfo
	Type    string           `json:"simulation_type"`
	Results model.Comparison `json:"results"`
}
