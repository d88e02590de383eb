// Package repository caches event reports in memory with an optional
// on-disk copy that survives restarts.
package repository

import (
	"context"
	"strconv"

	"github.com/okian/quals/internal/domain/model"
)

// Store provides read/write access to cached event reports.
type Store interface {
	// Get returns the report for key if present and not expired.
	Get(ctx context.Context, key string) (model.EventReport, bool)

	// Set stores report under key. A still valid entry is kept as is.
	Set(ctx context.Context, key string, report model.EventReport) error

	// Count returns the number of live entries.
	Count(ctx context.Context) int
}

// Key builds the cache key of an event report.
func Key(event string, season int) string {
	return event + "_" + strconv.Itoa(season)
}
