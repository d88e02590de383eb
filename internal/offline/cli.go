package offline

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/quals/pkg/logger"
)

// SetupLogging initializes the global logger on w.
func SetupLogging(w io.Writer, jsonFormat, verbose bool) error {
	format := logger.FormatText
	if jsonFormat {
		format = logger.FormatJSON
	}
	if err := logger.InitWith(w, format); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logger.SetLevelString(level)
}

// ShowHelp prints usage information for the offline forecaster.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Qualification Forecaster (offline)
==================================

Runs the forecaster on a local metrics file without contacting the
statistics API.

Usage:
  go run ./cmd/simulate -input event.yaml [options]

Options:
  -input string
        Metrics file in YAML or JSON (required)
  -output string
        Result file (default: stdout)
  -team int
        Team to forecast with Monte Carlo trials
  -against int
        Second team; runs a comparison with -team
  -matches int
        Matches per team in the practice schedule (default 6)
  -trials int
        Monte Carlo trials (default 100)
  -workers int
        Trial goroutines (default CPU cores)
  -seed int
        Seed for reproducible runs (default: clock)
  -alpha float
        Rating trend recency decay (default 0.5)
  -use-schedule
        Play the schedule from the input file instead of generating one
  -json-logs
        Log as JSON
  -verbose
        Enable debug logging
  -help
        Show this help message

Input file:
  event: USCAFFFAQ
  event_name: Fresno Qualifier
  season: 2025
  teams:
    - team: 16236
      name: Example Robotics
      opr_season: 61.2
      net_points: 95.1
      auto_points: 22.0
      dc_points: 73.1
      ranking_score: 4.2
      goal_rp_rate: 0.4
      pattern_rp_rate: 0.7
      movement_rp_rate: 0.9
      opr_history: [48.1, 55.3, 61.2]
  schedule:            # optional, used with -use-schedule
    - {match: 1, red: [16236, 1], blue: [2, 3]}
`)
}
