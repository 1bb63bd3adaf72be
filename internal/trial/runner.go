package trial

import (
	"context"
	"math/rand"
	"sync"

	"golang.org/x/sync/semaphore"

	"causalsim/domain/empirical"
	"causalsim/ports"
)

// Fn computes one trial's statistic from its private generator.
type Fn func(trial int, rng *rand.Rand) empirical.TrialResult

// Runner executes independent trials either sequentially or across workers.
// Results land in trial-index order either way, so parallel runs reproduce
// sequential runs bit for bit.
type Runner struct {
	RNG     ports.RNGPort
	Workers int // <= 1 means sequential
}

// Run executes T trials of fn with per-trial streams derived from seed.
func (r *Runner) Run(ctx context.Context, trials int, seed int64, fn Fn) ([]empirical.TrialResult, error) {
	results := make([]empirical.TrialResult, trials)

	if r.Workers <= 1 {
		for i := 0; i < trials; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = fn(i, r.RNG.TrialStream(seed, i))
		}
		return results, nil
	}

	sem := semaphore.NewWeighted(int64(r.Workers))
	var wg sync.WaitGroup
	for i := 0; i < trials; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer sem.Release(1)
			results[idx] = fn(idx, r.RNG.TrialStream(seed, idx))
		}(i)
	}
	wg.Wait()
	return results, nil
}
