// Package plaintext normalises plain text documents.
package plaintext

import (
	"context"
	"fmt"

	"github.com/praetor-labs/praetor/internal/core/domain"
	"github.com/praetor-labs/praetor/internal/core/ports/driven"
	"github.com/praetor-labs/praetor/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents. Whitespace canonicalisation
// and anchor detection only; there is no markup to strip.
type Normaliser struct{}

// New creates a new plaintext normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the media types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/plain"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 10
}

// Normalise canonicalises whitespace and detects section anchors.
func (n *Normaliser) Normalise(_ context.Context, raw *driven.FetchResult) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text := normalisers.CleanText(string(raw.Body))
	if len(text) < normalisers.MinExtractableLength {
		return nil, fmt.Errorf("%w: %d chars extracted from %s",
			domain.ErrEmptyDocument, len(text), raw.FinalURL)
	}

	return &driven.NormaliseResult{
		Text:    text,
		Anchors: normalisers.DetectAnchors(text),
	}, nil
}
