package montecarlo

import (
	"context"
	"sync"
)

// trial is one unit of work handed to the pool.
type trial struct {
	index int
	seed  int64
}

// outcome is what a trial produced. err wraps ErrTrialFailed when the trial
// was skipped.
type outcome struct {
	position int
	wins     int
	err      error
}

// trialFunc runs a single trial. Implementations must only use the rng built
// from the trial seed.
type trialFunc func(t trial) outcome

// pool runs trials on a fixed number of workers. Outcomes are stored by trial
// index, so the result order never depends on scheduling.
type pool struct {
	workers int
	run     trialFunc
}

func newPool(workers int, run trialFunc) *pool {
	if workers < 1 {
		workers = 1
	}
	return &pool{workers: workers, run: run}
}

// Run feeds trials to the workers until all are done or ctx is canceled.
func (p *pool) Run(ctx context.Context, trials []trial) ([]outcome, error) {
	out := make([]outcome, len(trials))
	jobs := make(chan trial)

	workers := min(p.workers, len(trials))
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for t := range jobs {
				out[t.index] = p.run(t)
			}
		}()
	}

feed:
	for _, t := range trials {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- t:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
