package report

import (
	"strings"
	"testing"

	"causalsim/domain/empirical"
	"causalsim/domain/study"
)

func testStudy() (*study.Manifest, *empirical.Distribution) {
	m := study.NewManifest(study.KindRandomization, "complete(treated=4)", "mean_difference", 4, 8, 18, true)
	dist := empirical.New([]empirical.TrialResult{
		empirical.Value(-7),
		empirical.Value(-8),
		empirical.Missing(),
		empirical.Value(-7.5),
	}, true)
	m.Complete(dist, 3)
	return m, dist
}

func TestMarkdownContainsStudyFields(t *testing.T) {
	m, dist := testStudy()
	md := Markdown(m, dist)

	for _, want := range []string{
		m.StudyID.String(),
		"complete(treated=4)",
		"mean_difference",
		m.Fingerprint.String(),
		"1 trial(s) produced a degenerate statistic",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdownFlagsUnseededRuns(t *testing.T) {
	m := study.NewManifest(study.KindBootstrap, "rows", "mean_difference", 2, 4, 99, false)
	dist := empirical.FromValues([]float64{1, 2}, false)
	m.Complete(dist, 1)

	md := Markdown(m, dist)
	if !strings.Contains(md, "not reproducible") {
		t.Error("markdown for an unseeded run does not flag it")
	}
}

func TestHTMLRendersTable(t *testing.T) {
	m, dist := testStudy()
	out := string(HTML(m, dist))

	if !strings.Contains(out, "<table>") {
		t.Error("HTML output has no table")
	}
	if !strings.Contains(out, "<h1") {
		t.Error("HTML output has no heading")
	}
}
