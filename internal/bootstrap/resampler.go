package bootstrap

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"time"

	"causalsim/domain/causal"
	"causalsim/domain/empirical"
	"causalsim/domain/study"
	"causalsim/internal/errors"
	"causalsim/internal/estimator"
	"causalsim/internal/trial"
	"causalsim/ports"
)

// Spec describes one bootstrap study: repeatedly resample the observed
// dataset under the declared policy and collect the statistic's sampling
// distribution.
type Spec struct {
	Dataset   causal.Dataset
	Policy    Policy
	Estimator estimator.Estimator
	Trials    int
	Seed      *int64 // nil draws a seed from entropy and flags the run non-reproducible
}

// Resampler approximates sampling distributions via resampling with
// replacement.
type Resampler struct {
	runner *trial.Runner
}

// NewResampler creates a resampler. workers <= 1 runs trials sequentially.
func NewResampler(rngPort ports.RNGPort, workers int) *Resampler {
	return &Resampler{runner: &trial.Runner{RNG: rngPort, Workers: workers}}
}

// Run executes the study. Degenerate resamples (where the statistic is
// undefined) surface as missing slots in the distribution; the run never
// aborts on them.
func (r *Resampler) Run(ctx context.Context, spec Spec) (*empirical.Distribution, *study.Manifest, error) {
	if spec.Trials <= 0 {
		return nil, nil, errors.InvalidInput("trial count must be > 0")
	}
	if spec.Estimator == nil {
		return nil, nil, errors.InvalidInput("estimator is required")
	}
	if spec.Policy == nil {
		return nil, nil, errors.InvalidInput("resampling policy is required")
	}
	if err := spec.Policy.Validate(spec.Dataset); err != nil {
		return nil, nil, err
	}
	if p, ok := spec.Policy.(preparer); ok {
		if err := p.prepare(spec.Dataset); err != nil {
			return nil, nil, err
		}
	}

	seed, seeded := resolveSeed(spec.Seed)
	manifest := study.NewManifest(study.KindBootstrap,
		spec.Policy.Describe(), spec.Estimator.Name(), spec.Trials, len(spec.Dataset), seed, seeded)

	started := time.Now()
	results, err := r.runner.Run(ctx, spec.Trials, seed, func(_ int, rng *mrand.Rand) empirical.TrialResult {
		resample := spec.Policy.Resample(spec.Dataset, rng)
		v, err := spec.Estimator.Estimate(resample)
		if err != nil {
			return empirical.Missing()
		}
		return empirical.Value(v)
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "bootstrap run aborted")
	}

	dist := empirical.New(results, seeded)
	manifest.Complete(dist, time.Since(started).Milliseconds())
	return dist, manifest, nil
}

func resolveSeed(seed *int64) (int64, bool) {
	if seed != nil {
		return *seed, true
	}
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return time.Now().UnixNano(), false
	}
	return int64(binary.LittleEndian.Uint64(buf[:])), false
}
