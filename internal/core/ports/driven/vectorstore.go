package driven

import (
	"context"
	"time"

	"github.com/praetor-labs/praetor/internal/core/domain"
)

// ScoredChunk is a similarity search hit with document context.
type ScoredChunk struct {
	Chunk       domain.Chunk
	DocumentURL string
	Title       string
	FetchedAt   time.Time
	Score       float64
}

// VectorStore persists documents, chunks and their vectors, and
// executes nearest-neighbour queries.
//
// Write isolation: a query never observes a document mid-write. The
// deletion of a document's old chunk set and insertion of its new set
// is one atomic unit.
type VectorStore interface {
	// UpsertDocument transactionally writes the document row and
	// replaces its entire chunk set. modelID is the corpus-wide
	// embedding model; a mismatch with previously stored vectors fails
	// with a StorageTransactionError wrapping domain.ErrModelMismatch.
	UpsertDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk, modelID string) error

	// SaveDocument writes the document row alone, without touching
	// chunks. Used to record failed ingestions for fresh URLs.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// Query returns the topK most similar ready chunks, scores
	// descending, ties broken by sequence index ascending then document
	// fetched_at descending.
	Query(ctx context.Context, vector []float32, topK int) ([]ScoredChunk, error)

	// Exists reports whether a ready document with the content hash is
	// already stored. Idempotency probe for ingestion.
	Exists(ctx context.Context, contentHash string) (bool, error)

	// GetDocumentByHash returns the document with the content hash, or
	// domain.ErrNotFound.
	GetDocumentByHash(ctx context.Context, contentHash string) (*domain.Document, error)

	// GetDocumentBySourceURL returns the document for the URL, or
	// domain.ErrNotFound.
	GetDocumentBySourceURL(ctx context.Context, sourceURL string) (*domain.Document, error)
}
