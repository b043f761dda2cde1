package normalisers

import (
	"regexp"
	"strings"
)

var (
	spaceRuns   = regexp.MustCompile(`[ \t\x{00A0}]+`)
	newlineRuns = regexp.MustCompile(`\n{3,}`)
)

// CleanText canonicalises line endings, collapses space runs and caps
// consecutive blank lines at one. Deterministic, so content hashing and
// offsets stay stable across re-ingestions.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = spaceRuns.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	s = strings.Join(lines, "\n")
	s = newlineRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// MinExtractableLength is the smallest clean text accepted as a
// document. Shorter extractions are treated as empty: legal acts are
// never this short, while error pages and cookie walls often are.
const MinExtractableLength = 80
