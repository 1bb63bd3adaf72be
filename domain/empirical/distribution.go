package empirical

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// madScale makes median(|x - median(x)|) asymptotically consistent with the
// standard deviation under normality (1 / Phi^-1(3/4)).
const madScale = 1.4826

// TrialResult is the outcome of one simulation trial. A degenerate statistic
// (e.g. a resample containing a single treatment group) sets OK=false and is
// recorded as a missing slot rather than aborting the run.
type TrialResult struct {
	Value float64
	OK    bool
}

// Value returns a valid trial result.
func Value(v float64) TrialResult { return TrialResult{Value: v, OK: true} }

// Missing returns a missing trial result.
func Missing() TrialResult { return TrialResult{} }

// Distribution is an empirical distribution of a statistic across trials.
// It is immutable once constructed and consumed only through summary queries.
//
// Missing-value policy: missing trials are dropped from every summary query;
// MissingCount reports how many were dropped. Queries never propagate NaN for
// missing slots.
type Distribution struct {
	values  []float64 // valid statistics, in trial-index order
	sorted  []float64 // cached ascending copy for quantile queries
	trials  int       // total trials attempted, including missing
	missing int
	seeded  bool
}

// New constructs a distribution from per-trial results in trial-index order.
// seeded=false flags a run whose seed was drawn from entropy; such runs are
// not reproducible and callers should surface that.
func New(results []TrialResult, seeded bool) *Distribution {
	d := &Distribution{trials: len(results), seeded: seeded}
	for _, r := range results {
		if !r.OK || math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			d.missing++
			continue
		}
		d.values = append(d.values, r.Value)
	}
	d.sorted = make([]float64, len(d.values))
	copy(d.sorted, d.values)
	sort.Float64s(d.sorted)
	return d
}

// Rehydrate reconstructs a persisted distribution from its valid values and
// missing count. Slot positions of the missing trials are not preserved;
// summary queries are unaffected.
func Rehydrate(values []float64, missing int, seeded bool) *Distribution {
	results := make([]TrialResult, 0, len(values)+missing)
	for _, v := range values {
		results = append(results, Value(v))
	}
	for i := 0; i < missing; i++ {
		results = append(results, Missing())
	}
	return New(results, seeded)
}

// FromValues constructs a distribution with no missing slots.
func FromValues(values []float64, seeded bool) *Distribution {
	results := make([]TrialResult, len(values))
	for i, v := range values {
		results[i] = Value(v)
	}
	return New(results, seeded)
}

// Values returns a copy of the valid statistics in trial-index order.
func (d *Distribution) Values() []float64 {
	out := make([]float64, len(d.values))
	copy(out, d.values)
	return out
}

// Len returns the number of valid statistics.
func (d *Distribution) Len() int { return len(d.values) }

// TrialCount returns the total trials attempted, including missing ones.
func (d *Distribution) TrialCount() int { return d.trials }

// MissingCount returns the number of trials dropped as missing.
func (d *Distribution) MissingCount() int { return d.missing }

// Seeded reports whether the run used an explicit caller-provided seed.
func (d *Distribution) Seeded() bool { return d.seeded }

// Mean returns the arithmetic mean of the valid statistics.
func (d *Distribution) Mean() float64 {
	m, err := stats.Mean(d.values)
	if err != nil {
		return math.NaN()
	}
	return m
}

// Median returns the median of the valid statistics.
func (d *Distribution) Median() float64 {
	m, err := stats.Median(d.values)
	if err != nil {
		return math.NaN()
	}
	return m
}

// SD returns the sample standard deviation (N-1 denominator).
func (d *Distribution) SD() float64 {
	sd, err := stats.StandardDeviationSample(d.values)
	if err != nil {
		return math.NaN()
	}
	return sd
}

// MadSD returns median(|x - median(x)|) * 1.4826, a robust alternative to SD.
func (d *Distribution) MadSD() float64 {
	mad, err := stats.MedianAbsoluteDeviation(d.values)
	if err != nil {
		return math.NaN()
	}
	return mad * madScale
}

// Quantile returns the type-7 (Hazen-style linear interpolation) quantile,
// matching the default of common statistical software.
func (d *Distribution) Quantile(p float64) (float64, error) {
	if len(d.sorted) == 0 {
		return 0, fmt.Errorf("quantile of empty distribution")
	}
	if p < 0 || p > 1 {
		return 0, fmt.Errorf("quantile probability must be in [0, 1], got %f", p)
	}
	h := p * float64(len(d.sorted)-1)
	lo := int(math.Floor(h))
	if lo >= len(d.sorted)-1 {
		return d.sorted[len(d.sorted)-1], nil
	}
	frac := h - float64(lo)
	return d.sorted[lo] + frac*(d.sorted[lo+1]-d.sorted[lo]), nil
}

// QuantileInterval returns the [pLow, pHigh] interval of type-7 quantiles.
func (d *Distribution) QuantileInterval(pLow, pHigh float64) (lower, upper float64, err error) {
	if pLow >= pHigh {
		return 0, 0, fmt.Errorf("interval bounds must satisfy pLow < pHigh, got [%f, %f]", pLow, pHigh)
	}
	lower, err = d.Quantile(pLow)
	if err != nil {
		return 0, 0, err
	}
	upper, err = d.Quantile(pHigh)
	if err != nil {
		return 0, 0, err
	}
	return lower, upper, nil
}

// Summary bundles the standard location and spread queries for reporting.
type Summary struct {
	Trials  int     `json:"trials"`
	Valid   int     `json:"valid"`
	Missing int     `json:"missing"`
	Seeded  bool    `json:"seeded"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	SD      float64 `json:"sd"`
	MadSD   float64 `json:"mad_sd"`
	Lower95 float64 `json:"lower_95"`
	Upper95 float64 `json:"upper_95"`
}

// MarshalJSON emits null for statistics that are undefined because every
// trial was missing; encoding/json rejects NaN outright.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Trials  int      `json:"trials"`
		Valid   int      `json:"valid"`
		Missing int      `json:"missing"`
		Seeded  bool     `json:"seeded"`
		Mean    *float64 `json:"mean"`
		Median  *float64 `json:"median"`
		SD      *float64 `json:"sd"`
		MadSD   *float64 `json:"mad_sd"`
		Lower95 *float64 `json:"lower_95"`
		Upper95 *float64 `json:"upper_95"`
	}{
		Trials:  s.Trials,
		Valid:   s.Valid,
		Missing: s.Missing,
		Seeded:  s.Seeded,
		Mean:    finiteOrNull(s.Mean),
		Median:  finiteOrNull(s.Median),
		SD:      finiteOrNull(s.SD),
		MadSD:   finiteOrNull(s.MadSD),
		Lower95: finiteOrNull(s.Lower95),
		Upper95: finiteOrNull(s.Upper95),
	})
}

func finiteOrNull(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Summarize computes the full summary. The 95% bounds are the 2.5% and 97.5%
// type-7 quantiles.
func (d *Distribution) Summarize() Summary {
	s := Summary{
		Trials:  d.trials,
		Valid:   len(d.values),
		Missing: d.missing,
		Seeded:  d.seeded,
		Mean:    d.Mean(),
		Median:  d.Median(),
		SD:      d.SD(),
		MadSD:   d.MadSD(),
	}
	if lo, hi, err := d.QuantileInterval(0.025, 0.975); err == nil {
		s.Lower95, s.Upper95 = lo, hi
	} else {
		s.Lower95, s.Upper95 = math.NaN(), math.NaN()
	}
	return s
}
