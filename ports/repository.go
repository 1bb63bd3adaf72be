package ports

import (
	"context"

	"causalsim/domain/core"
	"causalsim/domain/empirical"
	"causalsim/domain/study"
)

// StudyRepository persists study manifests and their empirical distributions.
type StudyRepository interface {
	// Save stores a completed study run.
	Save(ctx context.Context, manifest *study.Manifest, dist *empirical.Distribution) error

	// GetByID retrieves a study and its distribution.
	GetByID(ctx context.Context, id core.StudyID) (*study.Manifest, *empirical.Distribution, error)

	// List returns recent study manifests, newest first.
	List(ctx context.Context, limit, offset int) ([]*study.Manifest, error)
}

// Exporter renders a study result for external consumption (e.g. a workbook).
type Exporter interface {
	Export(manifest *study.Manifest, dist *empirical.Distribution) ([]byte, error)
}
