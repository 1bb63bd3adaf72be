package ports

import (
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic trials.
// Each trial gets its own stream derived from the run seed and the trial
// index, so results are reproducible regardless of execution order. No global
// generator state is ever shared across trials.
type RNGPort interface {
	// TrialStream creates the deterministic generator for one trial.
	TrialStream(seed int64, trial int) *rand.Rand
}
