package randomize

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"time"

	"causalsim/domain/causal"
	"causalsim/domain/empirical"
	"causalsim/domain/study"
	"causalsim/internal/assign"
	"causalsim/internal/errors"
	"causalsim/internal/estimator"
	"causalsim/internal/trial"
	"causalsim/ports"
)

// Spec describes one randomization study: repeatedly assign treatment over a
// fixed population of known potential outcomes and collect the estimator's
// randomization distribution.
type Spec struct {
	Population causal.Population
	Policy     assign.Policy
	Estimator  estimator.Estimator
	Trials     int
	Seed       *int64 // nil draws a seed from entropy and flags the run non-reproducible
}

// Simulator produces randomization distributions of treatment-effect
// estimators.
type Simulator struct {
	runner *trial.Runner
}

// NewSimulator creates a simulator. workers <= 1 runs trials sequentially.
func NewSimulator(rngPort ports.RNGPort, workers int) *Simulator {
	return &Simulator{runner: &trial.Runner{RNG: rngPort, Workers: workers}}
}

// Run executes the study and returns the empirical distribution plus a replay
// manifest.
func (s *Simulator) Run(ctx context.Context, spec Spec) (*empirical.Distribution, *study.Manifest, error) {
	if spec.Trials <= 0 {
		return nil, nil, errors.InvalidInput("trial count must be > 0")
	}
	if spec.Estimator == nil {
		return nil, nil, errors.InvalidInput("estimator is required")
	}
	if spec.Policy == nil {
		return nil, nil, errors.InvalidInput("assignment policy is required")
	}
	if err := spec.Policy.Validate(spec.Population); err != nil {
		return nil, nil, err
	}

	seed, seeded := resolveSeed(spec.Seed)
	manifest := study.NewManifest(study.KindRandomization,
		spec.Policy.Describe(), spec.Estimator.Name(), spec.Trials, len(spec.Population), seed, seeded)

	started := time.Now()
	results, err := s.runner.Run(ctx, spec.Trials, seed, func(_ int, rng *mrand.Rand) empirical.TrialResult {
		a := spec.Policy.Draw(spec.Population, rng)
		ds, err := a.Reveal(spec.Population)
		if err != nil {
			return empirical.Missing()
		}
		v, err := spec.Estimator.Estimate(ds)
		if err != nil {
			return empirical.Missing()
		}
		return empirical.Value(v)
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "randomization run aborted")
	}

	dist := empirical.New(results, seeded)
	manifest.Complete(dist, time.Since(started).Milliseconds())
	return dist, manifest, nil
}

// resolveSeed uses the caller's seed when given, otherwise draws one from
// entropy and marks the run as unseeded so downstream consumers can flag it.
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
