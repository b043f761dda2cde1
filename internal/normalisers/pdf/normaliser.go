// Package pdf normalises PDF documents by extracting page text.
// Government portals publish resolutions and annexes as PDF only.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/praetor-labs/praetor/internal/core/domain"
	"github.com/praetor-labs/praetor/internal/core/ports/driven"
	"github.com/praetor-labs/praetor/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles PDF documents.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the media types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts text page by page. Pages that fail to extract are
// skipped; only a fully empty result is an error.
func (n *Normaliser) Normalise(_ context.Context, raw *driven.FetchResult) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw.Body), int64(len(raw.Body)))
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable pdf: %v", domain.ErrUnsupportedContent, err)
	}

	var parts []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(content) != "" {
			parts = append(parts, content)
		}
	}

	text := normalisers.CleanText(strings.Join(parts, "\n\n"))
	if len(text) < normalisers.MinExtractableLength {
		return nil, fmt.Errorf("%w: %d chars extracted from %s",
			domain.ErrEmptyDocument, len(text), raw.FinalURL)
	}

	return &driven.NormaliseResult{
		Text:    text,
		Anchors: normalisers.DetectAnchors(text),
	}, nil
}
