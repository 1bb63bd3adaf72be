package study

import (
	"fmt"

	"causalsim/domain/core"
	"causalsim/domain/empirical"
)

// Kind distinguishes the two simulation engines.
type Kind string

const (
	KindRandomization Kind = "randomization"
	KindBootstrap     Kind = "bootstrap"
)

// Manifest captures the complete specification and outcome of one study run,
// enough to replay it bit-for-bit.
type Manifest struct {
	StudyID     core.StudyID   `json:"study_id"`
	Kind        Kind           `json:"kind"`
	Policy      string         `json:"policy"`    // policy descriptor, e.g. "complete(treated=4)"
	Statistic   string         `json:"statistic"` // estimator name
	Trials      int            `json:"trials"`
	Missing     int            `json:"missing"`
	Seed        int64          `json:"seed"`
	Seeded      bool           `json:"seeded"` // false when the seed was drawn from entropy
	Units       int            `json:"units"`
	RuntimeMs   int64          `json:"runtime_ms"`
	Fingerprint core.Hash      `json:"fingerprint"`
	CreatedAt   core.Timestamp `json:"created_at"`
}

// NewManifest creates a manifest and stamps its determinism fingerprint.
func NewManifest(kind Kind, policy, statistic string, trials, units int, seed int64, seeded bool) *Manifest {
	m := &Manifest{
		StudyID:   core.StudyID(core.NewID()),
		Kind:      kind,
		Policy:    policy,
		Statistic: statistic,
		Trials:    trials,
		Seed:      seed,
		Seeded:    seeded,
		Units:     units,
		CreatedAt: core.Now(),
	}
	m.Fingerprint = m.computeFingerprint()
	return m
}

// Complete records the run outcome on the manifest.
func (m *Manifest) Complete(dist *empirical.Distribution, runtimeMs int64) {
	m.Missing = dist.MissingCount()
	m.RuntimeMs = runtimeMs
}

// computeFingerprint hashes every parameter that determines the output
// sequence. Two manifests with equal fingerprints replay identically.
func (m *Manifest) computeFingerprint() core.Hash {
	data := fmt.Sprintf("kind:%s|policy:%s|statistic:%s|trials:%d|seed:%d|seeded:%t|units:%d",
		m.Kind, m.Policy, m.Statistic, m.Trials, m.Seed, m.Seeded, m.Units)
	return core.NewHash([]byte(data))
}

// Validate checks manifest invariants.
func (m *Manifest) Validate() error {
	if m.Trials <= 0 {
		return fmt.Errorf("trials must be > 0, got %d", m.Trials)
	}
	if m.Kind != KindRandomization && m.Kind != KindBootstrap {
		return fmt.Errorf("unknown study kind %q", m.Kind)
	}
	return nil
}
