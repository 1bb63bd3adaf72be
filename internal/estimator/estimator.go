package estimator

import (
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"

	"causalsim/domain/causal"
	"causalsim/domain/core"
	"causalsim/internal/errors"
	"causalsim/ports"
)

// Estimator maps an observed dataset to a scalar statistic. A returned error
// signals a degenerate statistic for that dataset (e.g. a resample containing
// a single treatment group); the simulators record it as a missing trial
// rather than aborting the batch.
type Estimator interface {
	Name() string
	Estimate(ds causal.Dataset) (float64, error)
}

// Func adapts a plain function to the Estimator interface.
type Func struct {
	StatName string
	Fn       func(ds causal.Dataset) (float64, error)
}

func (f Func) Name() string { return f.StatName }

func (f Func) Estimate(ds causal.Dataset) (float64, error) { return f.Fn(ds) }

// MeanDifference estimates mean(treated outcomes) - mean(control outcomes).
// Zero-variance groups are fine: the result is the deterministic difference.
type MeanDifference struct{}

func (MeanDifference) Name() string { return "mean_difference" }

func (MeanDifference) Estimate(ds causal.Dataset) (float64, error) {
	groups := ds.SplitByTreatment()
	treated, control := groups[causal.Treated], groups[causal.Control]
	if len(treated) == 0 || len(control) == 0 {
		return 0, errors.Degenerate(fmt.Sprintf(
			"mean difference undefined: %d treated, %d control", len(treated), len(control)))
	}
	mt, _ := stats.Mean(treated)
	mc, _ := stats.Mean(control)
	return mt - mc, nil
}

// BlockWeighted estimates the block-size-weighted average of per-block mean
// differences: tau = sum_j n_j * tau_j / sum_j n_j.
type BlockWeighted struct{}

func (BlockWeighted) Name() string { return "block_weighted_mean_difference" }

func (BlockWeighted) Estimate(ds causal.Dataset) (float64, error) {
	type blockAcc struct {
		n                      int
		sumTreated, sumControl float64
		nTreated, nControl     int
	}
	accs := make(map[core.BlockKey]*blockAcc)
	for _, o := range ds {
		acc := accs[o.Block]
		if acc == nil {
			acc = &blockAcc{}
			accs[o.Block] = acc
		}
		acc.n++
		if o.Treatment == causal.Treated {
			acc.sumTreated += o.Outcome
			acc.nTreated++
		} else {
			acc.sumControl += o.Outcome
			acc.nControl++
		}
	}

	// Sorted iteration keeps floating-point summation order stable across runs.
	keys := make([]core.BlockKey, 0, len(accs))
	for k := range accs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	weighted, total := 0.0, 0
	for _, k := range keys {
		acc := accs[k]
		if acc.nTreated == 0 || acc.nControl == 0 {
			return 0, errors.Degenerate(fmt.Sprintf(
				"block %q has a single treatment level (%d treated, %d control)", k, acc.nTreated, acc.nControl))
		}
		tau := acc.sumTreated/float64(acc.nTreated) - acc.sumControl/float64(acc.nControl)
		weighted += float64(acc.n) * tau
		total += acc.n
	}
	return weighted / float64(total), nil
}

// MedianRatio estimates median(treated) / median(control).
type MedianRatio struct{}

func (MedianRatio) Name() string { return "median_ratio" }

func (MedianRatio) Estimate(ds causal.Dataset) (float64, error) {
	groups := ds.SplitByTreatment()
	treated, control := groups[causal.Treated], groups[causal.Control]
	if len(treated) == 0 || len(control) == 0 {
		return 0, errors.Degenerate(fmt.Sprintf(
			"median ratio undefined: %d treated, %d control", len(treated), len(control)))
	}
	mt, _ := stats.Median(treated)
	mc, _ := stats.Median(control)
	if mc == 0 {
		return 0, errors.Degenerate("median ratio undefined: control median is zero")
	}
	return mt / mc, nil
}

// RegressionAdjusted estimates the treatment coefficient from a linear model
// of the outcome on treatment plus covariates. Fitting is delegated to the
// ModelFitter port.
type RegressionAdjusted struct {
	Fitter     ports.ModelFitter
	Covariates []string
}

func (RegressionAdjusted) Name() string { return "regression_adjusted" }

func (r RegressionAdjusted) Estimate(ds causal.Dataset) (float64, error) {
	result, err := r.Fitter.Fit(ds, ports.Formula{
		Treatment:  true,
		Covariates: r.Covariates,
		Intercept:  true,
	})
	if err != nil {
		return 0, errors.Wrap(err, "regression-adjusted estimate")
	}
	coef, ok := result.Coefficient("treatment")
	if !ok {
		return 0, errors.Degenerate("treatment coefficient absent from fitted model")
	}
	return coef, nil
}
