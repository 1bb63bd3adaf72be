package ui

import (
	"fmt"

	"causalsim/domain/causal"
	"causalsim/domain/core"
	"causalsim/internal/assign"
	"causalsim/internal/bootstrap"
	"causalsim/internal/errors"
	"causalsim/internal/estimator"
	"causalsim/internal/linmod"
	"causalsim/ports"
)

// unitPayload is the wire form of a simulated unit.
type unitPayload struct {
	ID         string             `json:"id"`
	Block      string             `json:"block,omitempty"`
	Group      string             `json:"group,omitempty"`
	Covariates map[string]float64 `json:"covariates,omitempty"`
	Y0         float64            `json:"y0"`
	Y1         float64            `json:"y1"`
}

// observationPayload is the wire form of an observed record.
type observationPayload struct {
	ID         string             `json:"id"`
	Block      string             `json:"block,omitempty"`
	Group      string             `json:"group,omitempty"`
	Covariates map[string]float64 `json:"covariates,omitempty"`
	Treatment  int                `json:"treatment"`
	Outcome    float64            `json:"outcome"`
}

// policyPayload selects and parameterizes a policy by type tag.
type policyPayload struct {
	Type         string         `json:"type"`
	Treated      int            `json:"treated,omitempty"`       // complete
	P            float64        `json:"p,omitempty"`             // bernoulli
	Fraction     float64        `json:"fraction,omitempty"`      // block
	BlockTreated map[string]int `json:"block_treated,omitempty"` // block, explicit counts
	Covariates   []string       `json:"covariates,omitempty"`    // residual formula terms
}

type randomizationRequest struct {
	Population []unitPayload `json:"population"`
	Policy     policyPayload `json:"policy"`
	Statistic  string        `json:"statistic"`
	Trials     int           `json:"trials"`
	Seed       *int64        `json:"seed"`
}

type bootstrapRequest struct {
	Dataset   []observationPayload `json:"dataset"`
	Policy    policyPayload        `json:"policy"`
	Statistic string               `json:"statistic"`
	Trials    int                  `json:"trials"`
	Seed      *int64               `json:"seed"`
}

func (r randomizationRequest) population() causal.Population {
	pop := make(causal.Population, len(r.Population))
	for i, u := range r.Population {
		pop[i] = causal.Unit{
			ID:         core.UnitID(u.ID),
			Block:      core.BlockKey(u.Block),
			Group:      core.GroupKey(u.Group),
			Covariates: u.Covariates,
			Y0:         u.Y0,
			Y1:         u.Y1,
		}
	}
	return pop
}

func (r bootstrapRequest) dataset() causal.Dataset {
	ds := make(causal.Dataset, len(r.Dataset))
	for i, o := range r.Dataset {
		ds[i] = causal.Observation{
			ID:         core.UnitID(o.ID),
			Block:      core.BlockKey(o.Block),
			Group:      core.GroupKey(o.Group),
			Covariates: o.Covariates,
			Treatment:  causal.Level(o.Treatment),
			Outcome:    o.Outcome,
		}
	}
	return ds
}

// buildAssignPolicy resolves an assignment policy from its wire form.
func buildAssignPolicy(p policyPayload) (assign.Policy, error) {
	switch p.Type {
	case "complete":
		return assign.Complete{Treated: p.Treated}, nil
	case "bernoulli":
		return assign.Bernoulli{P: p.P}, nil
	case "block":
		policy := assign.Block{Fraction: p.Fraction}
		if len(p.BlockTreated) > 0 {
			policy.Treated = make(map[core.BlockKey]int, len(p.BlockTreated))
			for k, v := range p.BlockTreated {
				policy.Treated[core.BlockKey(k)] = v
			}
		}
		return policy, nil
	default:
		return nil, errors.InvalidPolicy(fmt.Sprintf("unknown assignment policy %q", p.Type))
	}
}

// buildBootstrapPolicy resolves a resampling policy from its wire form.
func buildBootstrapPolicy(p policyPayload) (bootstrap.Policy, error) {
	switch p.Type {
	case "rows":
		return bootstrap.Rows{}, nil
	case "groups":
		return bootstrap.Groups{}, nil
	case "two_stage":
		return bootstrap.TwoStage{}, nil
	case "residual":
		return &bootstrap.Residual{
			Fitter: linmod.NewOLS(),
			Formula: ports.Formula{
				Treatment:  true,
				Covariates: p.Covariates,
				Intercept:  true,
			},
		}, nil
	default:
		return nil, errors.InvalidPolicy(fmt.Sprintf("unknown resampling policy %q", p.Type))
	}
}

// buildEstimator resolves a statistic by name.
func buildEstimator(name string, covariates []string) (estimator.Estimator, error) {
	switch name {
	case "", "mean_difference":
		return estimator.MeanDifference{}, nil
	case "block_weighted_mean_difference":
		return estimator.BlockWeighted{}, nil
	case "median_ratio":
		return estimator.MedianRatio{}, nil
	case "regression_adjusted":
		return estimator.RegressionAdjusted{Fitter: linmod.NewOLS(), Covariates: covariates}, nil
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unknown statistic %q", name))
	}
}
