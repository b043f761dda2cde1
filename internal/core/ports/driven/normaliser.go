package driven

import (
	"context"

	"github.com/praetor-labs/praetor/internal/core/domain"
)

// Normaliser strips markup and boilerplate from a fetched payload,
// yielding clean text with stable section anchors. Normalisation is
// deterministic: the same payload always produces the same output.
type Normaliser interface {
	// SupportedMIMETypes returns the media types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred)
	// when several normalisers support the same media type.
	Priority() int

	// Normalise extracts clean text and section anchors. If no
	// extractable text remains it fails with domain.ErrEmptyDocument.
	Normalise(ctx context.Context, raw *FetchResult) (*NormaliseResult, error)
}

// NormaliseResult is the output of normalisation.
type NormaliseResult struct {
	// Title is the extracted document title, if any.
	Title string

	// Text is the clean normalised text.
	Text string

	// Anchors map offsets in Text to human-readable section references,
	// ordered by offset. May be empty for unstructured documents.
	Anchors []domain.SectionAnchor
}

// NormaliserRegistry selects a normaliser for a media type.
type NormaliserRegistry interface {
	// ForMIMEType returns the highest-priority normaliser supporting
	// the media type, or domain.ErrUnsupportedContent.
	ForMIMEType(mimeType string) (Normaliser, error)
}
