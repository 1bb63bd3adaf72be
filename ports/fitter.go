package ports

import (
	"causalsim/domain/causal"
)

// Formula describes a linear model of the outcome on the treatment indicator
// and named covariates, e.g. outcome ~ treatment + pre_test.
type Formula struct {
	Treatment  bool     // include the treatment indicator as a predictor
	Covariates []string // covariate names, resolved against Observation.Covariates
	Intercept  bool
}

// FitResult is the output contract of a model fitting routine. Fitted and
// Residuals are aligned by index with the input dataset.
type FitResult struct {
	Terms        []string  // predictor names in coefficient order
	Coefficients []float64 // one per term
	Fitted       []float64
	Residuals    []float64
}

// Coefficient returns the coefficient for a named term.
func (r *FitResult) Coefficient(term string) (float64, bool) {
	for i, t := range r.Terms {
		if t == term {
			return r.Coefficients[i], true
		}
	}
	return 0, false
}

// ModelFitter fits a linear model to an observed dataset. The simulators call
// this for residual bootstrapping and regression-adjusted estimation; they do
// not implement estimation themselves.
type ModelFitter interface {
	Fit(ds causal.Dataset, formula Formula) (*FitResult, error)
}
