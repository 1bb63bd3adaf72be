package excel

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"causalsim/domain/empirical"
	"causalsim/domain/study"
)

func TestExportProducesReadableWorkbook(t *testing.T) {
	m := study.NewManifest(study.KindRandomization, "complete(treated=4)", "mean_difference", 3, 8, 18, true)
	dist := empirical.FromValues([]float64{-7.5, -8.25, -6.75}, true)
	m.Complete(dist, 2)

	data, err := NewStudyWriter().Export(m, dist)
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Export returned an empty workbook")
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("exported workbook is not readable: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Summary" || sheets[1] != "Distribution" {
		t.Fatalf("sheets = %v, want [Summary Distribution]", sheets)
	}

	id, err := f.GetCellValue("Summary", "B1")
	if err != nil {
		t.Fatalf("reading summary cell failed: %v", err)
	}
	if id != m.StudyID.String() {
		t.Errorf("Summary!B1 = %q, want study id %q", id, m.StudyID)
	}

	header, err := f.GetCellValue("Distribution", "A1")
	if err != nil {
		t.Fatalf("reading distribution header failed: %v", err)
	}
	if header != "statistic" {
		t.Errorf("Distribution!A1 = %q, want statistic", header)
	}

	rows, err := f.GetRows("Distribution")
	if err != nil {
		t.Fatalf("reading distribution rows failed: %v", err)
	}
	// Header plus one row per valid statistic.
	if len(rows) != 4 {
		t.Errorf("Distribution has %d rows, want 4", len(rows))
	}
}
