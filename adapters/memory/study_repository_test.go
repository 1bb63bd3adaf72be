package memory

import (
	"context"
	"testing"
	"time"

	"causalsim/domain/core"
	"causalsim/domain/empirical"
	"causalsim/domain/study"
	"causalsim/internal/errors"
)

func manifestAt(t time.Time) *study.Manifest {
	m := study.NewManifest(study.KindRandomization, "complete(treated=4)", "mean_difference", 100, 8, 1, true)
	m.CreatedAt = core.NewTimestamp(t)
	return m
}

func TestSaveAndGet(t *testing.T) {
	repo := NewStudyRepository()
	m := manifestAt(time.Now())
	dist := empirical.FromValues([]float64{1, 2, 3}, true)

	if err := repo.Save(context.Background(), m, dist); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	gotM, gotD, err := repo.GetByID(context.Background(), m.StudyID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if gotM.StudyID != m.StudyID {
		t.Errorf("StudyID = %s, want %s", gotM.StudyID, m.StudyID)
	}
	if gotD.Len() != 3 {
		t.Errorf("distribution Len = %d, want 3", gotD.Len())
	}
}

func TestGetUnknownID(t *testing.T) {
	repo := NewStudyRepository()
	_, _, err := repo.GetByID(context.Background(), core.StudyID("missing"))
	if err == nil {
		t.Fatal("expected error for unknown study")
	}
	if errors.GetCode(err) != errors.CodeNotFound {
		t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.CodeNotFound)
	}
}

func TestListNewestFirstWithPaging(t *testing.T) {
	repo := NewStudyRepository()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	dist := empirical.FromValues([]float64{1}, true)

	var ids []core.StudyID
	for i := 0; i < 5; i++ {
		m := manifestAt(base.Add(time.Duration(i) * time.Hour))
		ids = append(ids, m.StudyID)
		if err := repo.Save(context.Background(), m, dist); err != nil {
			t.Fatalf("Save returned error: %v", err)
		}
	}

	all, err := repo.List(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("List returned %d manifests, want 5", len(all))
	}
	for i := range all {
		if all[i].StudyID != ids[4-i] {
			t.Errorf("position %d: got %s, want %s (newest first)", i, all[i].StudyID, ids[4-i])
		}
	}

	page, err := repo.List(context.Background(), 2, 1)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("paged List returned %d manifests, want 2", len(page))
	}
	if page[0].StudyID != ids[3] || page[1].StudyID != ids[2] {
		t.Errorf("page = [%s %s], want [%s %s]", page[0].StudyID, page[1].StudyID, ids[3], ids[2])
	}

	empty, err := repo.List(context.Background(), 10, 99)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("out-of-range offset returned %d manifests, want 0", len(empty))
	}
}
