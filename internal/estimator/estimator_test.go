package estimator

import (
	"math"
	"testing"

	"causalsim/domain/causal"
	"causalsim/domain/core"
	"causalsim/internal/errors"
	"causalsim/internal/linmod"
)

func obs(block core.BlockKey, treatment causal.Level, outcome float64) causal.Observation {
	return causal.Observation{Block: block, Treatment: treatment, Outcome: outcome}
}

func TestMeanDifference(t *testing.T) {
	ds := causal.Dataset{
		obs("", causal.Treated, 12),
		obs("", causal.Treated, 14),
		obs("", causal.Control, 10),
		obs("", causal.Control, 8),
	}
	got, err := MeanDifference{}.Estimate(ds)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}
	if math.Abs(got-4) > 1e-12 {
		t.Errorf("mean difference = %f, want 4", got)
	}
}

func TestMeanDifferenceDegenerateOnSingleGroup(t *testing.T) {
	ds := causal.Dataset{
		obs("", causal.Treated, 12),
		obs("", causal.Treated, 14),
	}
	_, err := MeanDifference{}.Estimate(ds)
	if err == nil {
		t.Fatal("expected degenerate error for all-treated dataset")
	}
	if errors.GetCode(err) != errors.CodeDegenerate {
		t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.CodeDegenerate)
	}
}

func TestMeanDifferenceZeroVarianceGroups(t *testing.T) {
	ds := causal.Dataset{
		obs("", causal.Treated, 5),
		obs("", causal.Treated, 5),
		obs("", causal.Control, 3),
		obs("", causal.Control, 3),
	}
	got, err := MeanDifference{}.Estimate(ds)
	if err != nil {
		t.Fatalf("zero-variance groups should not error: %v", err)
	}
	if got != 2 {
		t.Errorf("mean difference = %f, want 2", got)
	}
}

func TestBlockWeightedMatchesManualComputation(t *testing.T) {
	// Per-block mean differences: a=2, b=4, c=6, d=8 with 4 units each, so the
	// size-weighted average is (4*2+4*4+4*6+4*8)/16 = 5.
	var ds causal.Dataset
	taus := map[core.BlockKey]float64{"a": 2, "b": 4, "c": 6, "d": 8}
	base := map[core.BlockKey]float64{"a": 10, "b": 20, "c": 30, "d": 40}
	for block, tau := range taus {
		ds = append(ds,
			obs(block, causal.Treated, base[block]+tau),
			obs(block, causal.Treated, base[block]+tau),
			obs(block, causal.Control, base[block]),
			obs(block, causal.Control, base[block]),
		)
	}

	got, err := BlockWeighted{}.Estimate(ds)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}
	if math.Abs(got-5) > 1e-12 {
		t.Errorf("block-weighted estimate = %f, want 5", got)
	}
}

func TestBlockWeightedEqualsPlainDifferenceOnBalancedDesign(t *testing.T) {
	// With equal block sizes and equal treated counts per block the weighted
	// estimator collapses to the plain difference of means.
	var ds causal.Dataset
	outcomes := []float64{11, 7, 19, 13, 27, 21, 35, 29}
	blocks := []core.BlockKey{"a", "a", "b", "b", "c", "c", "d", "d"}
	for i, y := range outcomes {
		treatment := causal.Control
		if i%2 == 0 {
			treatment = causal.Treated
		}
		ds = append(ds, obs(blocks[i], treatment, y))
	}

	weighted, err := BlockWeighted{}.Estimate(ds)
	if err != nil {
		t.Fatalf("BlockWeighted returned error: %v", err)
	}
	plain, err := MeanDifference{}.Estimate(ds)
	if err != nil {
		t.Fatalf("MeanDifference returned error: %v", err)
	}
	if math.Abs(weighted-plain) > 1e-12 {
		t.Errorf("balanced design: weighted %f != plain %f", weighted, plain)
	}
}

func TestBlockWeightedDegenerateOnOneSidedBlock(t *testing.T) {
	ds := causal.Dataset{
		obs("a", causal.Treated, 5),
		obs("a", causal.Control, 3),
		obs("b", causal.Treated, 7),
		obs("b", causal.Treated, 9),
	}
	_, err := BlockWeighted{}.Estimate(ds)
	if err == nil {
		t.Fatal("expected degenerate error for a block with a single level")
	}
	if errors.GetCode(err) != errors.CodeDegenerate {
		t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.CodeDegenerate)
	}
}

func TestMedianRatio(t *testing.T) {
	ds := causal.Dataset{
		obs("", causal.Treated, 6),
		obs("", causal.Treated, 8),
		obs("", causal.Treated, 10),
		obs("", causal.Control, 2),
		obs("", causal.Control, 4),
		obs("", causal.Control, 6),
	}
	got, err := MedianRatio{}.Estimate(ds)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}
	if math.Abs(got-2) > 1e-12 {
		t.Errorf("median ratio = %f, want 2", got)
	}
}

func TestMedianRatioDegenerateOnZeroControlMedian(t *testing.T) {
	ds := causal.Dataset{
		obs("", causal.Treated, 6),
		obs("", causal.Control, 0),
	}
	_, err := MedianRatio{}.Estimate(ds)
	if err == nil {
		t.Fatal("expected degenerate error for zero control median")
	}
	if errors.GetCode(err) != errors.CodeDegenerate {
		t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.CodeDegenerate)
	}
}

func TestRegressionAdjustedRecoversEffect(t *testing.T) {
	// Outcome is exactly 3 + 5*treatment + 2*x, so the treatment coefficient
	// is recovered without error.
	var ds causal.Dataset
	xs := []float64{-2, -1, 0, 1, 2, 3, 4, 5}
	for i, x := range xs {
		treatment := causal.Control
		if i%2 == 0 {
			treatment = causal.Treated
		}
		ds = append(ds, causal.Observation{
			ID:         core.UnitID(rune('a' + i)),
			Covariates: map[string]float64{"x": x},
			Treatment:  treatment,
			Outcome:    3 + 5*float64(treatment) + 2*x,
		})
	}

	est := RegressionAdjusted{Fitter: linmod.NewOLS(), Covariates: []string{"x"}}
	got, err := est.Estimate(ds)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}
	if math.Abs(got-5) > 1e-8 {
		t.Errorf("treatment coefficient = %f, want 5", got)
	}
}

func TestFuncAdapter(t *testing.T) {
	f := Func{
		StatName: "row_count",
		Fn: func(ds causal.Dataset) (float64, error) {
			return float64(len(ds)), nil
		},
	}
	if f.Name() != "row_count" {
		t.Errorf("Name() = %q, want row_count", f.Name())
	}
	got, err := f.Estimate(causal.Dataset{{}, {}, {}})
	if err != nil || got != 3 {
		t.Errorf("Estimate() = %f, %v, want 3, nil", got, err)
	}
}
