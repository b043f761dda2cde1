package domain

import "time"

// DocumentStatus tracks the lifecycle of an ingested document.
type DocumentStatus string

// Document lifecycle states. Terminal states are Ready and Failed;
// Pending exists only while an ingestion is in flight.
const (
	DocumentPending DocumentStatus = "pending"
	DocumentReady   DocumentStatus = "ready"
	DocumentFailed  DocumentStatus = "failed"
)

// Document represents a single ingested source document.
// Identity is the ContentHash: re-fetching identical content must not
// create a duplicate Document. SourceURL is the unique lookup key.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// SourceURL is the canonical URL the document was fetched from.
	SourceURL string

	// Title is the extracted human-readable title, if any.
	Title string

	// ContentHash is the sha256 hex digest of the fetched bytes.
	ContentHash string

	// Status is the ingestion outcome for this document.
	Status DocumentStatus

	// Error holds the failure reason when Status is DocumentFailed.
	Error string

	// FetchedAt is when the content was last fetched.
	FetchedAt time.Time

	// CreatedAt is when the document was first seen.
	CreatedAt time.Time

	// UpdatedAt is when the document row was last written.
	UpdatedAt time.Time
}

// Span is a half-open character range [Start, End) into the normalised text.
type Span struct {
	Start int
	End   int
}

// SectionAnchor maps an offset in normalised text to a human-readable
// section reference, used to make chunks citation-addressable.
type SectionAnchor struct {
	// Offset is the character position where the section begins.
	Offset int

	// Ref is the structural path, e.g. "Розділ I / Стаття 5".
	Ref string

	// Title is the heading line, e.g. "Стаття 5. Сфера дії закону".
	Title string
}

// Chunk is a contiguous, citation-addressable slice of a normalised
// document used as the retrieval unit. Chunks are immutable once
// created; re-ingestion of changed content replaces the whole set.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// SequenceIndex is the ordinal position within the document.
	SequenceIndex int

	// Text is the chunk content.
	Text string

	// SectionRef is the structural citation anchor covering the start
	// of the chunk's span. Empty for documents without legal structure.
	SectionRef string

	// SectionTitle is the heading of the covering section, if any.
	SectionTitle string

	// Span is the character range of Text within the normalised document.
	Span Span

	// Embedding is the vector representation used for similarity search.
	// All embeddings in one corpus share the same model.
	Embedding []float32
}
