package normalisers

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/praetor-labs/praetor/internal/core/domain"
)

// Legal structure markers. Ukrainian legal acts are organised as
// Розділ (section) > Глава (chapter) > Стаття (article) for laws and
// codes, or numbered Пункт entries for resolutions and orders.
var (
	reSection  = regexp.MustCompile(`^(?i)(Розділ|Раздел)\s+([IVXLC\d]+)\b`)
	reChapter  = regexp.MustCompile(`^(?i)Глава\s+([IVXLC\d]+)\b`)
	reArticle  = regexp.MustCompile(`^(?i)(Стаття|Статья)\s+([0-9]+(?:[-–][0-9]+)?)\b(?:\.\s*(.*))?$`)
	rePoint    = regexp.MustCompile(`^(?i)Пункт\s+([0-9]+(?:[-–][0-9]+)?)\b`)
	reNumbered = regexp.MustCompile(`^([0-9]{1,3})\.\s+\S`)
)

// DetectAnchors scans clean text for legal structure markers and
// returns section anchors ordered by offset. Article markers are only
// honoured when at least two are present (a single "Стаття" hit is
// usually a quotation); numbered points are only used when no articles
// exist and at least three points are found. Unstructured documents
// return no anchors.
func DetectAnchors(text string) []domain.SectionAnchor {
	lines := splitKeepOffsets(text)

	articleHits := 0
	pointHits := 0
	for _, ln := range lines {
		if reArticle.MatchString(ln.text) {
			articleHits++
		}
		if rePoint.MatchString(ln.text) || reNumbered.MatchString(ln.text) {
			pointHits++
		}
	}

	useArticles := articleHits >= 2
	usePoints := !useArticles && pointHits >= 3

	var anchors []domain.SectionAnchor
	var sectionID, chapterID string
	prevWasSection := false
	prevWasChapter := false

	path := func(unit string) string {
		var parts []string
		if sectionID != "" {
			parts = append(parts, "Розділ "+sectionID)
		}
		if chapterID != "" {
			parts = append(parts, "Глава "+chapterID)
		}
		if unit != "" {
			parts = append(parts, unit)
		}
		return strings.Join(parts, " / ")
	}

	for _, ln := range lines {
		if m := reSection.FindStringSubmatch(ln.text); m != nil {
			sectionID = m[2]
			chapterID = ""
			prevWasSection = true
			prevWasChapter = false
			anchors = append(anchors, domain.SectionAnchor{
				Offset: ln.offset,
				Ref:    path(""),
				Title:  ln.text,
			})
			continue
		}
		if m := reChapter.FindStringSubmatch(ln.text); m != nil {
			chapterID = m[1]
			prevWasSection = false
			prevWasChapter = true
			anchors = append(anchors, domain.SectionAnchor{
				Offset: ln.offset,
				Ref:    path(""),
				Title:  ln.text,
			})
			continue
		}

		// All-caps heading right after a Розділ/Глава line names it.
		if (prevWasSection || prevWasChapter) && isUpperTitle(ln.text) {
			if len(anchors) > 0 {
				anchors[len(anchors)-1].Title += " " + ln.text
			}
			prevWasSection = false
			prevWasChapter = false
			continue
		}
		prevWasSection = false
		prevWasChapter = false

		if useArticles {
			if m := reArticle.FindStringSubmatch(ln.text); m != nil {
				anchors = append(anchors, domain.SectionAnchor{
					Offset: ln.offset,
					Ref:    path("Стаття " + m[2]),
					Title:  ln.text,
				})
				continue
			}
		}

		if usePoints {
			if m := rePoint.FindStringSubmatch(ln.text); m != nil {
				anchors = append(anchors, domain.SectionAnchor{
					Offset: ln.offset,
					Ref:    path("Пункт " + m[1]),
					Title:  ln.text,
				})
				continue
			}
			if m := reNumbered.FindStringSubmatch(ln.text); m != nil {
				anchors = append(anchors, domain.SectionAnchor{
					Offset: ln.offset,
					Ref:    path("Пункт " + m[1]),
					Title:  "Пункт " + m[1],
				})
			}
		}
	}

	return anchors
}

// offsetLine is a text line with its start offset in characters.
type offsetLine struct {
	offset int
	text   string
}

// splitKeepOffsets splits on newlines, recording each line's start as
// a character offset so anchors line up with chunk spans.
func splitKeepOffsets(text string) []offsetLine {
	var lines []offsetLine
	byteStart := 0
	lineStart := 0
	runeCount := 0
	for i, r := range text {
		if r != '\n' {
			runeCount++
			continue
		}
		ln := strings.TrimSpace(text[byteStart:i])
		if ln != "" {
			lines = append(lines, offsetLine{offset: lineStart, text: ln})
		}
		byteStart = i + 1
		runeCount++
		lineStart = runeCount
	}
	if ln := strings.TrimSpace(text[byteStart:]); ln != "" {
		lines = append(lines, offsetLine{offset: lineStart, text: ln})
	}
	return lines
}

// isUpperTitle reports whether a line looks like an all-caps heading,
// e.g. "ЗАГАЛЬНІ ПОЛОЖЕННЯ".
func isUpperTitle(line string) bool {
	if len([]rune(line)) < 5 {
		return false
	}
	letters := 0
	upper := 0
	for _, r := range line {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters == 0 {
		return false
	}
	return float64(upper)/float64(letters) > 0.9
}
