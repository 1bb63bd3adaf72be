package excel

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"causalsim/domain/empirical"
	"causalsim/domain/study"
	"causalsim/ports"
)

// StudyWriter exports study results as an Excel workbook with a summary sheet
// and the raw distribution values.
type StudyWriter struct{}

// NewStudyWriter creates a new workbook exporter.
func NewStudyWriter() ports.Exporter {
	return &StudyWriter{}
}

// Export renders the manifest and distribution into xlsx bytes.
func (w *StudyWriter) Export(m *study.Manifest, dist *empirical.Distribution) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to rename summary sheet: %w", err)
	}

	s := dist.Summarize()
	rows := [][]interface{}{
		{"study_id", m.StudyID.String()},
		{"kind", string(m.Kind)},
		{"policy", m.Policy},
		{"statistic", m.Statistic},
		{"units", m.Units},
		{"trials", s.Trials},
		{"valid", s.Valid},
		{"missing", s.Missing},
		{"seed", m.Seed},
		{"seeded", m.Seeded},
		{"mean", s.Mean},
		{"median", s.Median},
		{"sd", s.SD},
		{"mad_sd", s.MadSD},
		{"lower_95", s.Lower95},
		{"upper_95", s.Upper95},
		{"fingerprint", m.Fingerprint.String()},
	}
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}

	valuesSheet := "Distribution"
	if _, err := f.NewSheet(valuesSheet); err != nil {
		return nil, fmt.Errorf("failed to create distribution sheet: %w", err)
	}
	if err := f.SetCellValue(valuesSheet, "A1", "statistic"); err != nil {
		return nil, fmt.Errorf("failed to write distribution header: %w", err)
	}
	for i, v := range dist.Values() {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetCellValue(valuesSheet, cell, v); err != nil {
			return nil, fmt.Errorf("failed to write distribution value %d: %w", i, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
