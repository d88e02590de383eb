// Package montecarlo repeats schedule generation and stochastic ranking to
// estimate where a team is likely to seed.
package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/quals/internal/domain/model"
	"github.com/okian/quals/internal/domain/ranking"
	"github.com/okian/quals/internal/domain/schedule"
	"github.com/okian/quals/pkg/logger"
	"github.com/okian/quals/pkg/metrics"
)

// DefaultTrials is the number of trials per run.
const DefaultTrials = 100

// Position thresholds reported in the distribution.
const (
	top10 = 10
	top20 = 20
	top50 = 50
)

var (
	// ErrTrialFailed marks a trial that produced no position for the target.
	ErrTrialFailed = errors.New("simulation trial failed")
	// ErrAllSimulationsFailed is returned when no trial of a run completed.
	ErrAllSimulationsFailed = errors.New("all simulations failed")
)

// Driver runs Monte Carlo seeding forecasts. It is safe for concurrent use.
type Driver struct {
	trials    int
	workers   int
	seed      int64
	seeded    bool
	generator *schedule.Generator
	logger    logger.Logger
}

// NewDriver creates a driver with configuration options.
func NewDriver(opts ...Option) *Driver {
	d := &Driver{
		trials:    DefaultTrials,
		workers:   runtime.NumCPU(),
		generator: schedule.NewGenerator(),
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Driver) master() *rand.Rand {
	if d.seeded {
		return rand.New(rand.NewSource(d.seed)) //nolint:gosec // simulation randomness
	}
	return rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // simulation randomness
}

// Simulate forecasts target's seeding over the configured number of trials.
func (d *Driver) Simulate(ctx context.Context, table *model.Table, target, matchesPerTeam int) (model.SimulationSummary, error) {
	return d.run(ctx, table, target, matchesPerTeam, d.master().Int63())
}

// Compare runs two independent forecasts, one per team, and reports which
// one seeds better on average. The two runs do not share schedules.
func (d *Driver) Compare(ctx context.Context, table *model.Table, team1, team2, matchesPerTeam int) (model.Comparison, error) {
	m := d.master()
	seed1, seed2 := m.Int63(), m.Int63()

	var cmp model.Comparison
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := d.run(gctx, table, team1, matchesPerTeam, seed1)
		if err != nil {
			return fmt.Errorf("team %d: %w", team1, err)
		}
		cmp.Team1 = s
		return nil
	})
	g.Go(func() error {
		s, err := d.run(gctx, table, team2, matchesPerTeam, seed2)
		if err != nil {
			return fmt.Errorf("team %d: %w", team2, err)
		}
		cmp.Team2 = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.Comparison{}, err
	}

	switch {
	case cmp.Team1.AvgPosition < cmp.Team2.AvgPosition:
		cmp.Better = team1
	case cmp.Team2.AvgPosition < cmp.Team1.AvgPosition:
		cmp.Better = team2
	}
	return cmp, nil
}

func (d *Driver) run(ctx context.Context, table *model.Table, target, matchesPerTeam int, seed int64) (model.SimulationSummary, error) {
	ids := table.IDs()
	if len(ids) < 4 {
		return model.SimulationSummary{}, fmt.Errorf("%w: got %d", schedule.ErrInsufficientTeams, len(ids))
	}
	if matchesPerTeam < 1 {
		return model.SimulationSummary{}, fmt.Errorf("%w: got %d", schedule.ErrInvalidMatchesPerTeam, matchesPerTeam)
	}

	runID := uuid.NewString()
	log := d.logger.With(logger.String("run_id", runID), logger.Int("team", target))
	start := time.Now()

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // simulation randomness
	trials := make([]trial, d.trials)
	for i := range trials {
		trials[i] = trial{index: i, seed: rng.Int63()}
	}

	workers := min(d.workers, d.trials)
	metrics.UpdateSimulationWorkers(workers)
	p := newPool(workers, func(t trial) outcome {
		return d.trial(table, ids, target, matchesPerTeam, t)
	})
	outcomes, err := p.Run(ctx, trials)
	if err != nil {
		log.Warn(ctx, "simulation canceled", logger.Error(err))
		return model.SimulationSummary{}, err
	}

	positions := make([]float64, 0, len(outcomes))
	wins := make([]float64, 0, len(outcomes))
	summary := model.SimulationSummary{Team: target, Trials: d.trials, MinPosition: math.MaxInt}
	for i, o := range outcomes {
		if o.err != nil {
			metrics.RecordTrialFailed()
			log.Debug(ctx, "trial skipped", logger.Int("trial", i), logger.Error(o.err))
			continue
		}
		metrics.RecordTrialCompleted()
		positions = append(positions, float64(o.position))
		wins = append(wins, float64(o.wins))
		summary.MinPosition = min(summary.MinPosition, o.position)
		summary.MaxPosition = max(summary.MaxPosition, o.position)
		if o.position <= top10 {
			summary.Distribution.Top10++
		}
		if o.position <= top20 {
			summary.Distribution.Top20++
		}
		if o.position <= top50 {
			summary.Distribution.Top50++
		}
	}
	elapsed := time.Since(start)
	metrics.RecordSimulationDuration(float64(elapsed.Milliseconds()))

	if len(positions) == 0 {
		log.Warn(ctx, "no trial completed", logger.Int("trials", d.trials))
		return model.SimulationSummary{}, fmt.Errorf("team %d: %w", target, ErrAllSimulationsFailed)
	}
	summary.Completed = len(positions)
	summary.AvgPosition = model.Round2(stat.Mean(positions, nil))
	summary.AvgWins = model.Round2(stat.Mean(wins, nil))

	log.Info(ctx, "simulation finished",
		logger.Int("completed", summary.Completed),
		logger.Float64("avg_position", summary.AvgPosition),
		logger.Duration("elapsed", elapsed),
	)
	return summary, nil
}

// trial generates one schedule, ranks it and reads the target's row.
func (d *Driver) trial(table *model.Table, ids []int, target, matchesPerTeam int, t trial) outcome {
	rng := rand.New(rand.NewSource(t.seed)) //nolint:gosec // simulation randomness
	res, err := d.generator.Generate(rng, ids, matchesPerTeam)
	if err != nil {
		return outcome{err: fmt.Errorf("%w: %w", ErrTrialFailed, err)}
	}
	if len(res.Matches) == 0 {
		return outcome{err: fmt.Errorf("%w: empty schedule", ErrTrialFailed)}
	}
	metrics.RecordScheduleGenerated(res.DuplicateAlliances)

	rows := ranking.Simulate(rng, res.Matches, table)
	pos, wins, ok := ranking.Position(rows, target)
	if !ok {
		return outcome{err: fmt.Errorf("%w: team %d not ranked", ErrTrialFailed, target)}
	}
	return outcome{position: pos, wins: wins}
}
