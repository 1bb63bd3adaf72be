package causal

import (
	"fmt"

	"causalsim/domain/core"
)

// Assignment is a treatment label per unit, aligned by index with the
// population it was drawn for. Assignments are created fresh per trial and
// discarded after the statistic is extracted.
type Assignment []Level

// Counts returns the number of units assigned to each level.
func (a Assignment) Counts() map[Level]int {
	counts := make(map[Level]int)
	for _, lvl := range a {
		counts[lvl]++
	}
	return counts
}

// CountsByBlock returns per-block assignment counts for a population.
func (a Assignment) CountsByBlock(pop Population) (map[core.BlockKey]map[Level]int, error) {
	if len(a) != len(pop) {
		return nil, fmt.Errorf("assignment length %d does not match population size %d", len(a), len(pop))
	}
	counts := make(map[core.BlockKey]map[Level]int)
	for i, lvl := range a {
		block := pop[i].Block
		if counts[block] == nil {
			counts[block] = make(map[Level]int)
		}
		counts[block][lvl]++
	}
	return counts, nil
}

// Reveal applies the assignment to a population, exposing exactly one
// potential outcome per unit. The unobserved outcome does not travel into the
// resulting dataset.
func (a Assignment) Reveal(pop Population) (Dataset, error) {
	if len(a) != len(pop) {
		return nil, fmt.Errorf("assignment length %d does not match population size %d", len(a), len(pop))
	}
	ds := make(Dataset, len(pop))
	for i, u := range pop {
		y := u.Y0
		if a[i] == Treated {
			y = u.Y1
		}
		ds[i] = Observation{
			ID:         u.ID,
			Block:      u.Block,
			Group:      u.Group,
			Covariates: u.Covariates,
			Treatment:  a[i],
			Outcome:    y,
		}
	}
	return ds, nil
}
