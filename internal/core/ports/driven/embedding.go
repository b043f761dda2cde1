package driven

import "context"

// EmbeddingService maps text to a fixed-dimension vector. One corpus
// uses exactly one embedding model; the degraded lexical embedder is a
// corpus-wide choice, not a per-call fallback, so scores stay comparable.
//
// Retryable backend errors (rate limit, timeout) are retried with
// backoff inside the adapter; surfaced failures are domain.EmbeddingError.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving
	// input order in the output. Batching reduces external calls.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName identifies the model; persisted as the corpus model_id.
	ModelName() string
}
