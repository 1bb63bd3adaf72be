package app

import (
	"context"
	"fmt"

	"causalsim/domain/core"
	"causalsim/domain/empirical"
	"causalsim/domain/study"
	"causalsim/internal"
	"causalsim/internal/bootstrap"
	"causalsim/internal/errors"
	"causalsim/internal/randomize"
	"causalsim/internal/report"
	"causalsim/ports"
)

// StudyResult pairs a manifest with its empirical distribution.
type StudyResult struct {
	Manifest     *study.Manifest   `json:"manifest"`
	Summary      empirical.Summary `json:"summary"`
	Distribution []float64         `json:"distribution"`
}

// StudyService orchestrates simulation runs, persistence and export.
type StudyService struct {
	simulator *randomize.Simulator
	resampler *bootstrap.Resampler
	repo      ports.StudyRepository
	exporter  ports.Exporter
	logger    *internal.Logger
	maxTrials int
}

// NewStudyService wires the service.
func NewStudyService(simulator *randomize.Simulator, resampler *bootstrap.Resampler,
	repo ports.StudyRepository, exporter ports.Exporter, maxTrials int) *StudyService {

	return &StudyService{
		simulator: simulator,
		resampler: resampler,
		repo:      repo,
		exporter:  exporter,
		logger:    internal.DefaultLogger,
		maxTrials: maxTrials,
	}
}

// RunRandomization executes a randomization study and persists the result.
func (s *StudyService) RunRandomization(ctx context.Context, spec randomize.Spec) (*StudyResult, error) {
	if err := s.checkTrials(spec.Trials); err != nil {
		return nil, err
	}
	dist, manifest, err := s.simulator.Run(ctx, spec)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, manifest, dist)
}

// RunBootstrap executes a bootstrap study and persists the result.
func (s *StudyService) RunBootstrap(ctx context.Context, spec bootstrap.Spec) (*StudyResult, error) {
	if err := s.checkTrials(spec.Trials); err != nil {
		return nil, err
	}
	dist, manifest, err := s.resampler.Run(ctx, spec)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, manifest, dist)
}

// Get retrieves a persisted study.
func (s *StudyService) Get(ctx context.Context, id core.StudyID) (*StudyResult, error) {
	manifest, dist, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return result(manifest, dist), nil
}

// List returns recent study manifests.
func (s *StudyService) List(ctx context.Context, limit, offset int) ([]*study.Manifest, error) {
	return s.repo.List(ctx, limit, offset)
}

// Export renders a persisted study as a workbook.
func (s *StudyService) Export(ctx context.Context, id core.StudyID) ([]byte, error) {
	manifest, dist, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := s.exporter.Export(manifest, dist)
	if err != nil {
		return nil, errors.ExportError(fmt.Sprintf("failed to export study %s", id), err)
	}
	return data, nil
}

// ReportHTML renders a persisted study as an HTML report.
func (s *StudyService) ReportHTML(ctx context.Context, id core.StudyID) ([]byte, error) {
	manifest, dist, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return report.HTML(manifest, dist), nil
}

func (s *StudyService) checkTrials(trials int) error {
	if trials > s.maxTrials {
		return errors.InvalidInput(fmt.Sprintf("trial count %d exceeds maximum %d", trials, s.maxTrials))
	}
	return nil
}

func (s *StudyService) finish(ctx context.Context, manifest *study.Manifest, dist *empirical.Distribution) (*StudyResult, error) {
	if err := s.repo.Save(ctx, manifest, dist); err != nil {
		return nil, errors.Wrap(err, "failed to persist study")
	}
	if !manifest.Seeded {
		s.logger.Warn("study %s ran without an explicit seed; results are not reproducible", manifest.StudyID)
	}
	s.logger.Info("study %s complete: %d trials, %d missing, %dms",
		manifest.StudyID, manifest.Trials, manifest.Missing, manifest.RuntimeMs)
	return result(manifest, dist), nil
}

func result(manifest *study.Manifest, dist *empirical.Distribution) *StudyResult {
	return &StudyResult{
		Manifest:     manifest,
		Summary:      dist.Summarize(),
		Distribution: dist.Values(),
	}
}
