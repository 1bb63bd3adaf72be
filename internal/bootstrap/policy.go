package bootstrap

import (
	"math/rand"

	"causalsim/domain/causal"
	"causalsim/internal/errors"
	"causalsim/ports"
)

// Policy declares the unit of resampling. Resample draws, with replacement, a
// new dataset of the same cardinality as the chosen unit's population: the
// same number of rows, or the same number of groups.
type Policy interface {
	Name() string
	Describe() string
	// Validate fails fast on configuration errors before any trial runs.
	Validate(ds causal.Dataset) error
	Resample(ds causal.Dataset, rng *rand.Rand) causal.Dataset
}

// preparer is implemented by policies that need one-time setup against the
// observed dataset (e.g. fitting the residual model) before trials start.
type preparer interface {
	prepare(ds causal.Dataset) error
}

// Rows resamples independent rows.
type Rows struct{}

func (Rows) Name() string     { return "rows" }
func (Rows) Describe() string { return "rows" }

func (Rows) Validate(ds causal.Dataset) error {
	if err := ds.Validate(); err != nil {
		return errors.Wrap(err, "row bootstrap")
	}
	return nil
}

func (Rows) Resample(ds causal.Dataset, rng *rand.Rand) causal.Dataset {
	out := make(causal.Dataset, len(ds))
	for i := range out {
		out[i] = ds[rng.Intn(len(ds))]
	}
	return out
}

// Groups resamples whole groups: the resample has the same number of groups
// as the original, each drawn with replacement and carried over intact.
type Groups struct{}

func (Groups) Name() string     { return "groups" }
func (Groups) Describe() string { return "groups" }

func (Groups) Validate(ds causal.Dataset) error {
	if err := ds.Validate(); err != nil {
		return errors.Wrap(err, "group bootstrap")
	}
	if len(ds.GroupKeys()) < 2 {
		return errors.InvalidPolicy("group bootstrap needs at least 2 groups")
	}
	return nil
}

func (Groups) Resample(ds causal.Dataset, rng *rand.Rand) causal.Dataset {
	keys := ds.GroupKeys()
	byGroup := ds.ByGroup()
	var out causal.Dataset
	for i := 0; i < len(keys); i++ {
		out = append(out, byGroup[keys[rng.Intn(len(keys))]]...)
	}
	return out
}

// TwoStage resamples groups first, then rows with replacement within each
// drawn group, preserving each drawn group's size.
type TwoStage struct{}

func (TwoStage) Name() string     { return "two_stage" }
func (TwoStage) Describe() string { return "two_stage" }

func (TwoStage) Validate(ds causal.Dataset) error {
	return Groups{}.Validate(ds)
}

func (TwoStage) Resample(ds causal.Dataset, rng *rand.Rand) causal.Dataset {
	keys := ds.GroupKeys()
	byGroup := ds.ByGroup()
	var out causal.Dataset
	for i := 0; i < len(keys); i++ {
		group := byGroup[keys[rng.Intn(len(keys))]]
		for j := 0; j < len(group); j++ {
			out = append(out, group[rng.Intn(len(group))])
		}
	}
	return out
}

// Residual keeps the design fixed and resamples model residuals: each trial
// draws residuals with replacement and recombines additively onto the fitted
// values, y*_i = fitted_i + e*. The model is fit once, before any trial runs.
type Residual struct {
	Fitter  ports.ModelFitter
	Formula ports.Formula

	fitted    []float64
	residuals []float64
}

func (*Residual) Name() string     { return "residual" }
func (*Residual) Describe() string { return "residual" }

func (r *Residual) Validate(ds causal.Dataset) error {
	if err := ds.Validate(); err != nil {
		return errors.Wrap(err, "residual bootstrap")
	}
	if r.Fitter == nil {
		return errors.InvalidPolicy("residual bootstrap requires a model fitter")
	}
	return nil
}

func (r *Residual) prepare(ds causal.Dataset) error {
	result, err := r.Fitter.Fit(ds, r.Formula)
	if err != nil {
		return errors.Wrap(err, "residual bootstrap model fit")
	}
	r.fitted = result.Fitted
	r.residuals = result.Residuals
	return nil
}

func (r *Residual) Resample(ds causal.Dataset, rng *rand.Rand) causal.Dataset {
	out := make(causal.Dataset, len(ds))
	for i, obs := range ds {
		obs.Outcome = r.fitted[i] + r.residuals[rng.Intn(len(r.residuals))]
		out[i] = obs
	}
	return out
}
