package linmod

import (
	"math"
	"testing"

	"causalsim/domain/causal"
	"causalsim/domain/core"
	"causalsim/internal/errors"
	"causalsim/ports"
)

func linearDataset(intercept, effect, slope float64) causal.Dataset {
	xs := []float64{-3, -1, 0, 1, 2, 4, 6, 7}
	ds := make(causal.Dataset, len(xs))
	for i, x := range xs {
		treatment := causal.Control
		if i%2 == 0 {
			treatment = causal.Treated
		}
		ds[i] = causal.Observation{
			ID:         core.UnitID(rune('a' + i)),
			Covariates: map[string]float64{"x": x},
			Treatment:  treatment,
			Outcome:    intercept + effect*float64(treatment) + slope*x,
		}
	}
	return ds
}

func TestFitRecoversExactCoefficients(t *testing.T) {
	ds := linearDataset(2, 3, 1.5)
	result, err := NewOLS().Fit(ds, ports.Formula{
		Treatment:  true,
		Covariates: []string{"x"},
		Intercept:  true,
	})
	if err != nil {
		t.Fatalf("Fit returned error: %v", err)
	}

	want := map[string]float64{"intercept": 2, "treatment": 3, "x": 1.5}
	for term, coef := range want {
		got, ok := result.Coefficient(term)
		if !ok {
			t.Fatalf("term %q missing from fit", term)
		}
		if math.Abs(got-coef) > 1e-8 {
			t.Errorf("coefficient %q = %f, want %f", term, got, coef)
		}
	}

	for i := range ds {
		if math.Abs(result.Residuals[i]) > 1e-8 {
			t.Errorf("residual %d = %g, want 0 for noiseless data", i, result.Residuals[i])
		}
		if math.Abs(result.Fitted[i]-ds[i].Outcome) > 1e-8 {
			t.Errorf("fitted %d = %f, want %f", i, result.Fitted[i], ds[i].Outcome)
		}
	}
}

func TestFitTermOrder(t *testing.T) {
	result, err := NewOLS().Fit(linearDataset(1, 1, 1), ports.Formula{
		Treatment:  true,
		Covariates: []string{"x"},
		Intercept:  true,
	})
	if err != nil {
		t.Fatalf("Fit returned error: %v", err)
	}
	want := []string{"intercept", "treatment", "x"}
	if len(result.Terms) != len(want) {
		t.Fatalf("Terms = %v, want %v", result.Terms, want)
	}
	for i := range want {
		if result.Terms[i] != want[i] {
			t.Errorf("Terms[%d] = %q, want %q", i, result.Terms[i], want[i])
		}
	}
}

func TestFitMissingCovariate(t *testing.T) {
	ds := causal.Dataset{
		{ID: "u1", Treatment: causal.Treated, Outcome: 1},
		{ID: "u2", Treatment: causal.Control, Outcome: 2},
	}
	_, err := NewOLS().Fit(ds, ports.Formula{Treatment: true, Covariates: []string{"x"}, Intercept: true})
	if err == nil {
		t.Fatal("expected error for missing covariate")
	}
	if errors.GetCode(err) != errors.CodeInvalidInput {
		t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.CodeInvalidInput)
	}
}

func TestFitUnderdeterminedSystem(t *testing.T) {
	ds := causal.Dataset{
		{ID: "u1", Treatment: causal.Treated, Outcome: 1, Covariates: map[string]float64{"x": 1}},
		{ID: "u2", Treatment: causal.Control, Outcome: 2, Covariates: map[string]float64{"x": 2}},
	}
	_, err := NewOLS().Fit(ds, ports.Formula{Treatment: true, Covariates: []string{"x"}, Intercept: true})
	if err == nil {
		t.Fatal("expected error for more terms than observations")
	}
	if errors.GetCode(err) != errors.CodeDegenerate {
		t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.CodeDegenerate)
	}
}

func TestFitRejectsEmptyFormula(t *testing.T) {
	ds := linearDataset(1, 1, 1)
	if _, err := NewOLS().Fit(ds, ports.Formula{}); err == nil {
		t.Fatal("expected error for a formula with no predictors")
	}
}

func TestFitRejectsEmptyDataset(t *testing.T) {
	if _, err := NewOLS().Fit(nil, ports.Formula{Intercept: true}); err == nil {
		t.Fatal("expected error for an empty dataset")
	}
}
