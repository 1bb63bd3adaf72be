package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"causalsim/domain/empirical"
	"causalsim/domain/study"
)

// Markdown renders a study result as a markdown document.
func Markdown(m *study.Manifest, dist *empirical.Distribution) string {
	s := dist.Summarize()

	var b strings.Builder
	fmt.Fprintf(&b, "# Study %s\n\n", m.StudyID)
	fmt.Fprintf(&b, "- **Kind**: %s\n", m.Kind)
	fmt.Fprintf(&b, "- **Policy**: %s\n", m.Policy)
	fmt.Fprintf(&b, "- **Statistic**: %s\n", m.Statistic)
	fmt.Fprintf(&b, "- **Units**: %d\n", m.Units)
	fmt.Fprintf(&b, "- **Seed**: %d", m.Seed)
	if !m.Seeded {
		b.WriteString(" (drawn from entropy; run is not reproducible)")
	}
	b.WriteString("\n\n")

	b.WriteString("## Empirical distribution\n\n")
	fmt.Fprintf(&b, "| Trials | Valid | Missing | Mean | Median | SD | MAD-SD | 95%% interval |\n")
	fmt.Fprintf(&b, "|---|---|---|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %.4f | %.4f | %.4f | %.4f | [%.4f, %.4f] |\n\n",
		s.Trials, s.Valid, s.Missing, s.Mean, s.Median, s.SD, s.MadSD, s.Lower95, s.Upper95)

	if s.Missing > 0 {
		fmt.Fprintf(&b, "%d trial(s) produced a degenerate statistic and were dropped from the summaries above.\n\n", s.Missing)
	}
	fmt.Fprintf(&b, "Fingerprint: `%s`\n", m.Fingerprint)
	return b.String()
}

// HTML renders a study result as a standalone HTML fragment.
func HTML(m *study.Manifest, dist *empirical.Distribution) []byte {
	md := Markdown(m, dist)
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(md), p, renderer)
}
