package montecarlo

import (
	"github.com/okian/quals/internal/domain/schedule"
	"github.com/okian/quals/pkg/logger"
)

// Option applies a configuration option to the Driver.
type Option func(*Driver)

// WithTrials sets how many schedule and ranking passes a run attempts.
func WithTrials(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.trials = n
		}
	}
}

// WithWorkers sets the size of the trial worker pool.
func WithWorkers(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithSeed makes runs reproducible. Without it every run is seeded from the clock.
func WithSeed(seed int64) Option {
	return func(d *Driver) {
		d.seed = seed
		d.seeded = true
	}
}

// WithGenerator sets the schedule generator used by every trial.
func WithGenerator(g *schedule.Generator) Option {
	return func(d *Driver) {
		if g != nil {
			d.generator = g
		}
	}
}

// WithLogger sets a custom logger for the driver.
func WithLogger(l logger.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}
