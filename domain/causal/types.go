package causal

import (
	"fmt"

	"causalsim/domain/core"
)

// ============================================================================
// STABLE PRIMITIVES (Canonical, never change)
// ============================================================================

// Level is a treatment level. Control is always level 0; binary designs use
// Control and Treated, factorial designs may add further levels.
type Level int

const (
	Control Level = 0
	Treated Level = 1
)

// Unit is one member of a simulated population. Both potential outcomes are
// carried because the population is the assumed truth the simulation holds
// fixed; an analysis of real data never sees both.
type Unit struct {
	ID         core.UnitID        `json:"id"`
	Block      core.BlockKey      `json:"block,omitempty"`
	Group      core.GroupKey      `json:"group,omitempty"`
	Covariates map[string]float64 `json:"covariates,omitempty"`
	Y0         float64            `json:"y0"` // potential outcome under control
	Y1         float64            `json:"y1"` // potential outcome under treatment
}

// Effect returns the unit-level treatment effect y1 - y0.
func (u Unit) Effect() float64 {
	return u.Y1 - u.Y0
}

// Population is a fixed, read-only collection of units.
type Population []Unit

// SATE returns the sample average treatment effect mean(y1 - y0).
func (p Population) SATE() float64 {
	if len(p) == 0 {
		return 0
	}
	sum := 0.0
	for _, u := range p {
		sum += u.Effect()
	}
	return sum / float64(len(p))
}

// BlockSizes returns the number of units per block key.
func (p Population) BlockSizes() map[core.BlockKey]int {
	sizes := make(map[core.BlockKey]int)
	for _, u := range p {
		sizes[u.Block]++
	}
	return sizes
}

// Validate checks population invariants before any trial runs.
func (p Population) Validate() error {
	if len(p) < 2 {
		return fmt.Errorf("population must have at least 2 units, got %d", len(p))
	}
	return nil
}

// Observation is one observed record: exactly one potential outcome has been
// revealed, the other is permanently missing.
type Observation struct {
	ID         core.UnitID        `json:"id"`
	Block      core.BlockKey      `json:"block,omitempty"`
	Group      core.GroupKey      `json:"group,omitempty"`
	Covariates map[string]float64 `json:"covariates,omitempty"`
	Treatment  Level              `json:"treatment"`
	Outcome    float64            `json:"outcome"`
}

// Dataset is a sequence of observed records.
type Dataset []Observation

// Outcomes returns the outcome column.
func (d Dataset) Outcomes() []float64 {
	ys := make([]float64, len(d))
	for i, o := range d {
		ys[i] = o.Outcome
	}
	return ys
}

// SplitByTreatment partitions outcomes by treatment level.
func (d Dataset) SplitByTreatment() map[Level][]float64 {
	groups := make(map[Level][]float64)
	for _, o := range d {
		groups[o.Treatment] = append(groups[o.Treatment], o.Outcome)
	}
	return groups
}

// GroupKeys returns the distinct group keys in first-appearance order.
func (d Dataset) GroupKeys() []core.GroupKey {
	seen := make(map[core.GroupKey]bool)
	var keys []core.GroupKey
	for _, o := range d {
		if !seen[o.Group] {
			seen[o.Group] = true
			keys = append(keys, o.Group)
		}
	}
	return keys
}

// ByGroup partitions observations by group key, preserving row order within
// each group.
func (d Dataset) ByGroup() map[core.GroupKey]Dataset {
	groups := make(map[core.GroupKey]Dataset)
	for _, o := range d {
		groups[o.Group] = append(groups[o.Group], o)
	}
	return groups
}

// Validate checks dataset invariants.
func (d Dataset) Validate() error {
	if len(d) == 0 {
		return fmt.Errorf("dataset cannot be empty")
	}
	return nil
}
