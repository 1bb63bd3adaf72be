package memory

import (
	"context"
	"sort"
	"sync"

	"causalsim/domain/core"
	"causalsim/domain/empirical"
	"causalsim/domain/study"
	"causalsim/internal/errors"
	"causalsim/ports"
)

type record struct {
	manifest *study.Manifest
	dist     *empirical.Distribution
}

// studyRepository is an in-memory StudyRepository used when no database is
// configured and in tests.
type studyRepository struct {
	mu      sync.RWMutex
	records map[core.StudyID]record
}

// NewStudyRepository creates an empty in-memory repository.
func NewStudyRepository() ports.StudyRepository {
	return &studyRepository{records: make(map[core.StudyID]record)}
}

func (r *studyRepository) Save(_ context.Context, m *study.Manifest, dist *empirical.Distribution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[m.StudyID] = record{manifest: m, dist: dist}
	return nil
}

func (r *studyRepository) GetByID(_ context.Context, id core.StudyID) (*study.Manifest, *empirical.Distribution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, nil, errors.NotFound("study " + id.String())
	}
	return rec.manifest, rec.dist, nil
}

func (r *studyRepository) List(_ context.Context, limit, offset int) ([]*study.Manifest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	manifests := make([]*study.Manifest, 0, len(r.records))
	for _, rec := range r.records {
		manifests = append(manifests, rec.manifest)
	}
	sort.Slice(manifests, func(i, j int) bool {
		return manifests[j].CreatedAt.Before(manifests[i].CreatedAt)
	})

	if offset >= len(manifests) {
		return nil, nil
	}
	manifests = manifests[offset:]
	if limit > 0 && limit < len(manifests) {
		manifests = manifests[:limit]
	}
	return manifests, nil
}
