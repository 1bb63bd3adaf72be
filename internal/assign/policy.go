package assign

import (
	"fmt"
	"math/rand"
	"sort"

	"causalsim/domain/causal"
	"causalsim/domain/core"
	"causalsim/internal/errors"
)

// Policy generates treatment assignments over a fixed population. Draw is a
// pure function of (population, rng): it never touches global generator state,
// so trials can run in any order and still reproduce.
type Policy interface {
	Name() string
	Describe() string
	// Validate fails fast on configuration errors before any trial runs.
	Validate(pop causal.Population) error
	Draw(pop causal.Population, rng *rand.Rand) causal.Assignment
}

// Complete implements complete randomization: exactly Treated units receive
// treatment, the rest are controls.
type Complete struct {
	Treated int
}

func (c Complete) Name() string { return "complete" }

func (c Complete) Describe() string {
	return fmt.Sprintf("complete(treated=%d)", c.Treated)
}

func (c Complete) Validate(pop causal.Population) error {
	if err := pop.Validate(); err != nil {
		return errors.Wrap(err, "complete randomization")
	}
	if c.Treated < 1 || c.Treated > len(pop)-1 {
		return errors.InvalidPolicy(fmt.Sprintf(
			"treated count %d must leave both groups non-empty for population of %d", c.Treated, len(pop)))
	}
	return nil
}

func (c Complete) Draw(pop causal.Population, rng *rand.Rand) causal.Assignment {
	a := make(causal.Assignment, len(pop))
	for _, idx := range rng.Perm(len(pop))[:c.Treated] {
		a[idx] = causal.Treated
	}
	return a
}

// Bernoulli assigns each unit independently with probability P.
type Bernoulli struct {
	P float64
}

func (b Bernoulli) Name() string { return "bernoulli" }

func (b Bernoulli) Describe() string {
	return fmt.Sprintf("bernoulli(p=%g)", b.P)
}

func (b Bernoulli) Validate(pop causal.Population) error {
	if err := pop.Validate(); err != nil {
		return errors.Wrap(err, "bernoulli randomization")
	}
	if b.P <= 0 || b.P >= 1 {
		return errors.InvalidPolicy(fmt.Sprintf("assignment probability must be in (0, 1), got %g", b.P))
	}
	return nil
}

func (b Bernoulli) Draw(pop causal.Population, rng *rand.Rand) causal.Assignment {
	a := make(causal.Assignment, len(pop))
	for i := range pop {
		if rng.Float64() < b.P {
			a[i] = causal.Treated
		}
	}
	return a
}

// Block performs complete randomization within each block. Either explicit
// per-block treated counts or a global treated fraction may be given.
//
// With Fraction, each block j gets floor(Fraction * n_j) treated units and the
// remainder R = round(Fraction * N) - sum(floors) is distributed one unit at a
// time to the blocks with the largest fractional quotas, ties broken by
// ascending block key. The rule is deterministic: the same population and
// fraction always yield the same per-block counts.
type Block struct {
	Treated  map[core.BlockKey]int // explicit counts; takes precedence
	Fraction float64               // used when Treated is nil
}

func (b Block) Name() string { return "block" }

func (b Block) Describe() string {
	if b.Treated != nil {
		keys := make([]string, 0, len(b.Treated))
		for k := range b.Treated {
			keys = append(keys, string(k))
		}
		sort.Strings(keys)
		desc := "block(treated="
		for i, k := range keys {
			if i > 0 {
				desc += ","
			}
			desc += fmt.Sprintf("%s:%d", k, b.Treated[core.BlockKey(k)])
		}
		return desc + ")"
	}
	return fmt.Sprintf("block(fraction=%g)", b.Fraction)
}

func (b Block) Validate(pop causal.Population) error {
	if err := pop.Validate(); err != nil {
		return errors.Wrap(err, "block randomization")
	}
	sizes := pop.BlockSizes()
	counts, err := b.treatedCounts(sizes)
	if err != nil {
		return err
	}
	for block, n := range sizes {
		treated, ok := counts[block]
		if !ok {
			return errors.InvalidPolicy(fmt.Sprintf("no treated count for block %q", block))
		}
		if treated < 1 || treated > n-1 {
			return errors.InvalidPolicy(fmt.Sprintf(
				"block %q: treated count %d must leave both treatment levels present in a block of %d", block, treated, n))
		}
	}
	for block := range counts {
		if _, ok := sizes[block]; !ok {
			return errors.InvalidPolicy(fmt.Sprintf("treated count given for unknown block %q", block))
		}
	}
	return nil
}

func (b Block) Draw(pop causal.Population, rng *rand.Rand) causal.Assignment {
	sizes := pop.BlockSizes()
	counts, _ := b.treatedCounts(sizes) // validated before any trial runs

	// Index positions per block, iterated in sorted key order so the rng
	// stream is consumed identically on every draw.
	positions := make(map[core.BlockKey][]int)
	for i, u := range pop {
		positions[u.Block] = append(positions[u.Block], i)
	}
	keys := sortedBlockKeys(sizes)

	a := make(causal.Assignment, len(pop))
	for _, block := range keys {
		pos := positions[block]
		for _, j := range rng.Perm(len(pos))[:counts[block]] {
			a[pos[j]] = causal.Treated
		}
	}
	return a
}

// treatedCounts resolves per-block treated counts from either the explicit map
// or the fraction with the largest-remainder rule.
func (b Block) treatedCounts(sizes map[core.BlockKey]int) (map[core.BlockKey]int, error) {
	if b.Treated != nil {
		return b.Treated, nil
	}
	if b.Fraction <= 0 || b.Fraction >= 1 {
		return nil, errors.InvalidPolicy(fmt.Sprintf("treated fraction must be in (0, 1), got %g", b.Fraction))
	}

	keys := sortedBlockKeys(sizes)
	total := 0
	for _, n := range sizes {
		total += n
	}
	target := int(b.Fraction*float64(total) + 0.5)

	counts := make(map[core.BlockKey]int, len(sizes))
	type remainder struct {
		block core.BlockKey
		frac  float64
	}
	var remainders []remainder
	allocated := 0
	for _, block := range keys {
		quota := b.Fraction * float64(sizes[block])
		floor := int(quota)
		counts[block] = floor
		allocated += floor
		remainders = append(remainders, remainder{block: block, frac: quota - float64(floor)})
	}

	// Largest remainder first; equal remainders resolved by ascending key.
	sort.SliceStable(remainders, func(i, j int) bool {
		if remainders[i].frac != remainders[j].frac {
			return remainders[i].frac > remainders[j].frac
		}
		return remainders[i].block < remainders[j].block
	})
	for i := 0; allocated < target && i < len(remainders); i++ {
		counts[remainders[i].block]++
		allocated++
	}
	return counts, nil
}

func sortedBlockKeys(sizes map[core.BlockKey]int) []core.BlockKey {
	keys := make([]core.BlockKey, 0, len(sizes))
	for k := range sizes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
