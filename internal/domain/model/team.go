// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors for table construction and lookups.
var (
	ErrDuplicateTeam = errors.New("duplicate team id")
	ErrInvalidMetric = errors.New("metric is not a finite number")
	ErrInvalidRate   = errors.New("rate outside [0,1]")
	ErrInvalidTeamID = errors.New("team id must be positive")
	ErrUnknownTeam   = errors.New("team not found")
)

// TeamMetrics holds a team's season averages as reported by the statistics source.
type TeamMetrics struct {
	ID              int       `json:"team" yaml:"team"`                         // FTC team number
	Name            string    `json:"name" yaml:"name"`                         // team name
	Rating          float64   `json:"opr_season" yaml:"opr_season"`             // season OPR (non-penalty)
	PredictedRating float64   `json:"predicted_opr" yaml:"predicted_opr"`       // trend forecast for the next event
	NetPoints       float64   `json:"net_points" yaml:"net_points"`             // average alliance non-penalty points
	AutoPoints      float64   `json:"auto_points" yaml:"auto_points"`           // average alliance auto points
	DriverPoints    float64   `json:"dc_points" yaml:"dc_points"`               // average alliance driver-controlled points
	RankingScore    float64   `json:"ranking_score" yaml:"ranking_score"`       // average ranking points per match
	GoalRate        float64   `json:"goal_rp_rate" yaml:"goal_rp_rate"`         // share of matches with the goal RP
	PatternRate     float64   `json:"pattern_rp_rate" yaml:"pattern_rp_rate"`   // share of matches with the pattern RP
	MovementRate    float64   `json:"movement_rp_rate" yaml:"movement_rp_rate"` // share of matches with the movement RP
	RatingHistory   []float64 `json:"opr_history" yaml:"opr_history"`           // per-event OPR, oldest first
	MatchesPlayed   int       `json:"matches_played" yaml:"matches_played"`
}

// Unknown returns the zero-valued metrics used when an id is missing from a table.
func Unknown(id int) TeamMetrics {
	return TeamMetrics{ID: id, Name: fmt.Sprintf("Unknown (%d)", id)}
}

func (tm TeamMetrics) finite() bool {
	vals := append([]float64{
		tm.Rating, tm.PredictedRating, tm.NetPoints, tm.AutoPoints, tm.DriverPoints, tm.RankingScore,
	}, tm.RatingHistory...)
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Table is an ordered, id-indexed set of team metrics.
type Table struct {
	teams []TeamMetrics
	index map[int]int
}

// NewTable validates teams and builds a Table preserving input order.
func NewTable(teams []TeamMetrics) (*Table, error) {
	t := &Table{
		teams: make([]TeamMetrics, 0, len(teams)),
		index: make(map[int]int, len(teams)),
	}
	for _, tm := range teams {
		if tm.ID <= 0 {
			return nil, fmt.Errorf("team %d: %w", tm.ID, ErrInvalidTeamID)
		}
		if _, ok := t.index[tm.ID]; ok {
			return nil, fmt.Errorf("team %d: %w", tm.ID, ErrDuplicateTeam)
		}
		if !tm.finite() {
			return nil, fmt.Errorf("team %d: %w", tm.ID, ErrInvalidMetric)
		}
		for _, r := range []float64{tm.GoalRate, tm.PatternRate, tm.MovementRate} {
			if math.IsNaN(r) || r < 0 || r > 1 {
				return nil, fmt.Errorf("team %d: %w", tm.ID, ErrInvalidRate)
			}
		}
		t.index[tm.ID] = len(t.teams)
		t.teams = append(t.teams, tm)
	}
	return t, nil
}

// Len returns the number of teams.
func (t *Table) Len() int { return len(t.teams) }

// Teams returns a copy of the teams in table order.
func (t *Table) Teams() []TeamMetrics {
	out := make([]TeamMetrics, len(t.teams))
	copy(out, t.teams)
	return out
}

// IDs returns team ids in table order.
func (t *Table) IDs() []int {
	ids := make([]int, len(t.teams))
	for i, tm := range t.teams {
		ids[i] = tm.ID
	}
	return ids
}

// Has reports whether id is part of the table.
func (t *Table) Has(id int) bool {
	_, ok := t.index[id]
	return ok
}

// Get returns the metrics for id or ErrUnknownTeam.
func (t *Table) Get(id int) (TeamMetrics, error) {
	i, ok := t.index[id]
	if !ok {
		return TeamMetrics{}, fmt.Errorf("team %d: %w", id, ErrUnknownTeam)
	}
	return t.teams[i], nil
}

// Lookup returns the metrics for id, degrading to Unknown(id) when absent.
func (t *Table) Lookup(id int) TeamMetrics {
	if tm, err := t.Get(id); err == nil {
		return tm
	}
	return Unknown(id)
}

// SetPredicted updates the predicted rating of a team. Unknown ids are ignored.
func (t *Table) SetPredicted(id int, v float64) {
	if i, ok := t.index[id]; ok {
		t.teams[i].PredictedRating = v
	}
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
