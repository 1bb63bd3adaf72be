package rng

import (
	"math/rand"
)

// SplitStream derives independent per-trial generators from a single run seed
// using a splitmix64 step over seed + trial index. Trials therefore get
// deterministic streams regardless of execution order, and no trial ever
// shares generator state with another.
type SplitStream struct{}

// NewSplitStream creates the default RNG port implementation.
func NewSplitStream() SplitStream { return SplitStream{} }

// TrialStream creates the deterministic generator for one trial.
func (SplitStream) TrialStream(seed int64, trial int) *rand.Rand {
	return rand.New(rand.NewSource(int64(splitmix64(uint64(seed) + uint64(trial)*0x9E3779B97F4A7C15))))
}

// splitmix64 is the finalizer from the SplitMix64 generator; it decorrelates
// adjacent trial indices into well-separated seed values.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}
