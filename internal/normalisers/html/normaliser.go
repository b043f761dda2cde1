// Package html normalises HTML documents into clean text with legal
// section anchors.
package html

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/praetor-labs/praetor/internal/core/domain"
	"github.com/praetor-labs/praetor/internal/core/ports/driven"
	"github.com/praetor-labs/praetor/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents, including the print pages of
// zakon.rada.gov.ua whose navigation chrome must be dropped before the
// act's text begins.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the media types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Pre-compiled regular expressions for HTML parsing performance.
var (
	titleTag          = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	h1Tag             = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	scriptTag         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag       = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag           = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag            = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockElements     = regexp.MustCompile(`(?i)</(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)>`)
	openBlockElements = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	brTags            = regexp.MustCompile(`(?i)<br\s*/?>`)
	hrTags            = regexp.MustCompile(`(?i)<hr\s*/?>`)
	allTags           = regexp.MustCompile(`<[^>]+>`)

	// Document header of a Ukrainian legal act, used to find where the
	// real text starts on print pages.
	actHeader = regexp.MustCompile(`^(ЗАКОН|ПОСТАНОВА|УКАЗ|НАКАЗ|РОЗПОРЯДЖЕННЯ|КОДЕКС|КОНСТИТУЦІЯ)(?:\s|$)`)
)

// Normalise converts an HTML payload to clean text with section anchors.
func (n *Normaliser) Normalise(_ context.Context, raw *driven.FetchResult) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := string(raw.Body)
	title := extractTitle(content)

	text := stripHTML(content)
	text = dropPrintChrome(text)
	text = normalisers.CleanText(text)

	if len(text) < normalisers.MinExtractableLength {
		return nil, fmt.Errorf("%w: %d chars extracted from %s",
			domain.ErrEmptyDocument, len(text), raw.FinalURL)
	}

	return &driven.NormaliseResult{
		Title:   title,
		Text:    text,
		Anchors: normalisers.DetectAnchors(text),
	}, nil
}

// extractTitle prefers <h1> over <title>; legal portals put the act
// name in the page heading and boilerplate in the window title.
func extractTitle(content string) string {
	if m := h1Tag.FindStringSubmatch(content); len(m) > 1 {
		t := strings.TrimSpace(html.UnescapeString(allTags.ReplaceAllString(m[1], " ")))
		if t != "" {
			return normalisers.CleanText(t)
		}
	}
	if m := titleTag.FindStringSubmatch(content); len(m) > 1 {
		t := strings.TrimSpace(html.UnescapeString(m[1]))
		if t != "" {
			return normalisers.CleanText(t)
		}
	}
	return ""
}

// stripHTML removes markup and extracts readable text content.
func stripHTML(content string) string {
	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = noscriptTag.ReplaceAllString(content, "")
	content = headTag.ReplaceAllString(content, "")
	content = svgTag.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")

	content = openBlockElements.ReplaceAllString(content, "\n")
	content = blockElements.ReplaceAllString(content, "\n")
	content = brTags.ReplaceAllString(content, "\n")
	content = hrTags.ReplaceAllString(content, "\n")

	content = allTags.ReplaceAllString(content, "")
	return html.UnescapeString(content)
}

// dropPrintChrome removes the navigation header of zakon.rada print
// pages (Друкувати / Допомога / Шрифт lines) ahead of the act header.
// Text without an act header is returned unchanged.
func dropPrintChrome(text string) string {
	lines := strings.Split(text, "\n")
	for i, ln := range lines {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		low := strings.ToLower(ln)
		if strings.HasPrefix(low, "друкувати") || strings.HasPrefix(low, "print") ||
			strings.HasPrefix(low, "допомога") || strings.HasPrefix(low, "help") ||
			strings.HasPrefix(low, "шрифт") || strings.Contains(low, "ctrl") ||
			strings.HasPrefix(low, "image:") {
			continue
		}
		if actHeader.MatchString(ln) {
			return strings.Join(lines[i:], "\n")
		}
	}
	return text
}
