package app

import (
	"context"
	"strings"
	"testing"

	"causalsim/adapters/excel"
	"causalsim/adapters/memory"
	"causalsim/domain/causal"
	"causalsim/domain/core"
	"causalsim/internal/assign"
	"causalsim/internal/bootstrap"
	"causalsim/internal/errors"
	"causalsim/internal/estimator"
	"causalsim/internal/randomize"
	"causalsim/internal/rng"
)

func newTestService(maxTrials int) *StudyService {
	streams := rng.NewSplitStream()
	return NewStudyService(
		randomize.NewSimulator(streams, 1),
		bootstrap.NewResampler(streams, 1),
		memory.NewStudyRepository(),
		excel.NewStudyWriter(),
		maxTrials,
	)
}

func smallPopulation() causal.Population {
	return causal.Population{
		{ID: "u1", Y0: 10, Y1: 12},
		{ID: "u2", Y0: 11, Y1: 13},
		{ID: "u3", Y0: 12, Y1: 14},
		{ID: "u4", Y0: 13, Y1: 15},
	}
}

func runStudy(t *testing.T, svc *StudyService, trials int) *StudyResult {
	t.Helper()
	seed := int64(9)
	result, err := svc.RunRandomization(context.Background(), randomize.Spec{
		Population: smallPopulation(),
		Policy:     assign.Complete{Treated: 2},
		Estimator:  estimator.MeanDifference{},
		Trials:     trials,
		Seed:       &seed,
	})
	if err != nil {
		t.Fatalf("RunRandomization returned error: %v", err)
	}
	return result
}

func TestRunPersistsStudy(t *testing.T) {
	svc := newTestService(1000)
	result := runStudy(t, svc, 50)

	got, err := svc.Get(context.Background(), result.Manifest.StudyID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !got.Manifest.Fingerprint.Equals(result.Manifest.Fingerprint) {
		t.Error("persisted study has a different fingerprint")
	}
	if len(got.Distribution) != len(result.Distribution) {
		t.Errorf("persisted distribution has %d values, want %d", len(got.Distribution), len(result.Distribution))
	}

	manifests, err := svc.List(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(manifests) != 1 {
		t.Errorf("List returned %d manifests, want 1", len(manifests))
	}
}

func TestTrialCapIsEnforced(t *testing.T) {
	svc := newTestService(100)
	seed := int64(1)

	_, err := svc.RunRandomization(context.Background(), randomize.Spec{
		Population: smallPopulation(),
		Policy:     assign.Complete{Treated: 2},
		Estimator:  estimator.MeanDifference{},
		Trials:     101,
		Seed:       &seed,
	})
	if err == nil {
		t.Fatal("expected error for trial count above the maximum")
	}
	if errors.GetCode(err) != errors.CodeInvalidInput {
		t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.CodeInvalidInput)
	}

	_, err = svc.RunBootstrap(context.Background(), bootstrap.Spec{
		Dataset:   causal.Dataset{{ID: "r1", Treatment: causal.Treated, Outcome: 1}},
		Policy:    bootstrap.Rows{},
		Estimator: estimator.MeanDifference{},
		Trials:    101,
		Seed:      &seed,
	})
	if errors.GetCode(err) != errors.CodeInvalidInput {
		t.Errorf("bootstrap error code = %s, want %s", errors.GetCode(err), errors.CodeInvalidInput)
	}
}

func TestExportAndReport(t *testing.T) {
	svc := newTestService(1000)
	result := runStudy(t, svc, 20)
	id := result.Manifest.StudyID

	data, err := svc.Export(context.Background(), id)
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if len(data) == 0 {
		t.Error("Export returned an empty workbook")
	}

	html, err := svc.ReportHTML(context.Background(), id)
	if err != nil {
		t.Fatalf("ReportHTML returned error: %v", err)
	}
	if !strings.Contains(string(html), id.String()) {
		t.Error("report does not mention the study id")
	}
}

func TestGetUnknownStudy(t *testing.T) {
	svc := newTestService(1000)
	_, err := svc.Get(context.Background(), core.StudyID("missing"))
	if errors.GetCode(err) != errors.CodeNotFound {
		t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.CodeNotFound)
	}
}
