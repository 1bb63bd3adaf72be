package linmod

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"causalsim/domain/causal"
	"causalsim/internal/errors"
	"causalsim/ports"
)

// OLS fits ordinary least squares linear models via QR decomposition. It
// implements the ModelFitter port for the residual bootstrap and
// regression-adjusted estimation.
type OLS struct{}

// NewOLS creates a new OLS fitter.
func NewOLS() *OLS { return &OLS{} }

// Fit solves the least squares problem for the formula's design matrix and
// returns coefficients, fitted values and residuals aligned with the input.
func (o *OLS) Fit(ds causal.Dataset, formula ports.Formula) (*ports.FitResult, error) {
	if err := ds.Validate(); err != nil {
		return nil, errors.Wrap(err, "ols fit")
	}

	var terms []string
	if formula.Intercept {
		terms = append(terms, "intercept")
	}
	if formula.Treatment {
		terms = append(terms, "treatment")
	}
	terms = append(terms, formula.Covariates...)

	n, p := len(ds), len(terms)
	if p == 0 {
		return nil, errors.InvalidInput("formula has no predictors")
	}
	if n < p {
		return nil, errors.Degenerate(fmt.Sprintf("cannot fit %d terms on %d observations", p, n))
	}

	X := mat.NewDense(n, p, nil)
	y := mat.NewVecDense(n, nil)
	for i, obs := range ds {
		col := 0
		if formula.Intercept {
			X.Set(i, col, 1)
			col++
		}
		if formula.Treatment {
			X.Set(i, col, float64(obs.Treatment))
			col++
		}
		for _, name := range formula.Covariates {
			v, ok := obs.Covariates[name]
			if !ok {
				return nil, errors.InvalidInput(fmt.Sprintf("observation %s missing covariate %q", obs.ID, name))
			}
			X.Set(i, col, v)
			col++
		}
		y.SetVec(i, obs.Outcome)
	}

	var qr mat.QR
	qr.Factorize(X)
	beta := mat.NewDense(p, 1, nil)
	if err := qr.SolveTo(beta, false, y); err != nil {
		return nil, errors.Degenerate(fmt.Sprintf("design matrix is rank deficient: %v", err))
	}

	coefs := make([]float64, p)
	for j := 0; j < p; j++ {
		coefs[j] = beta.At(j, 0)
	}

	fitted := make([]float64, n)
	residuals := make([]float64, n)
	for i := 0; i < n; i++ {
		pred := 0.0
		for j := 0; j < p; j++ {
			pred += X.At(i, j) * coefs[j]
		}
		fitted[i] = pred
		residuals[i] = ds[i].Outcome - pred
	}

	return &ports.FitResult{
		Terms:        terms,
		Coefficients: coefs,
		Fitted:       fitted,
		Residuals:    residuals,
	}, nil
}
