package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/quals/internal/offline"
)

// Default configuration constants.
const (
	defaultMatches = 6
	defaultTrials  = 100
	defaultAlpha   = 0.5
	defaultTimeout = 10 * time.Minute
)

func main() {
	var (
		input       = flag.String("input", "", "Metrics file in YAML or JSON")
		output      = flag.String("output", "", "Result file (default: stdout)")
		team        = flag.Int("team", 0, "Team to forecast with Monte Carlo trials")
		against     = flag.Int("against", 0, "Second team; runs a comparison with -team")
		matches     = flag.Int("matches", defaultMatches, "Matches per team in the practice schedule")
		trials      = flag.Int("trials", defaultTrials, "Monte Carlo trials")
		workers     = flag.Int("workers", runtime.NumCPU(), "Trial goroutines")
		seed        = flag.Int64("seed", 0, "Seed for reproducible runs (0 seeds from the clock)")
		alpha       = flag.Float64("alpha", defaultAlpha, "Rating trend recency decay")
		useSchedule = flag.Bool("use-schedule", false, "Play the schedule from the input file")
		timeout     = flag.Duration("timeout", defaultTimeout, "Bound on the whole run")
		jsonLogs    = flag.Bool("json-logs", false, "Log as JSON")
		verbose     = flag.Bool("verbose", false, "Enable debug logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help || *input == "" {
		offline.ShowHelp()
		return
	}

	if err := offline.SetupLogging(os.Stderr, *jsonLogs, *verbose); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config := &offline.Config{
		Input:          *input,
		Output:         *output,
		Team:           *team,
		Against:        *against,
		MatchesPerTeam: *matches,
		Trials:         *trials,
		Workers:        *workers,
		Seed:           *seed,
		Alpha:          *alpha,
		UseSchedule:    *useSchedule,
		Timeout:        *timeout,
	}

	res, err := offline.Run(ctx, config)
	if err != nil {
		_, _ = os.Stderr.WriteString("Forecast failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := offline.Write(ctx, os.Stdout, config.Output, res); err != nil {
		_, _ = os.Stderr.WriteString("Write failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
