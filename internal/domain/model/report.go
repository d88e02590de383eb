package model

import "time"

// EventReport is the metrics table of one event as served to clients and
// stored in the report cache.
type EventReport struct {
	Code      string        `json:"event"`
	Name      string        `json:"event_name"`
	Season    int           `json:"season"`
	Teams     []TeamMetrics `json:"data"`
	FetchedAt time.Time     `json:"fetched_at"`
}

// Table builds a validated table from the report rows.
func (r EventReport) Table() (*Table, error) {
	return NewTable(r.Teams)
}
