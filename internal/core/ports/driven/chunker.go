package driven

import (
	"iter"

	"github.com/praetor-labs/praetor/internal/core/domain"
)

// Chunker splits normalised text into overlapping citation-addressable
// chunks. The returned sequence is lazy, finite and restartable; chunks
// carry spans that cover the whole text with no gaps, and overlapping
// regions are intentional. Emitted chunks have no ID, DocumentID or
// Embedding yet; the orchestrator fills those in.
type Chunker interface {
	Chunks(text string, anchors []domain.SectionAnchor) iter.Seq[domain.Chunk]
}
