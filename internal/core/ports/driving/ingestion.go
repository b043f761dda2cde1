package driving

import (
	"context"

	"github.com/praetor-labs/praetor/internal/core/domain"
)

// Ingestor drives document ingestion, synchronously or via queued jobs.
// Ingestion is idempotent keyed by content hash: unchanged content is a
// no-op returning the existing document.
type Ingestor interface {
	// Ingest runs the full pipeline synchronously and returns the
	// resulting document. The caller blocks until the job resolves.
	Ingest(ctx context.Context, url string) (*domain.Document, error)

	// Enqueue schedules ingestion of a URL and returns a job ID
	// immediately. Status is retrievable via Job.
	Enqueue(ctx context.Context, url string) (string, error)

	// EnqueueBatch fans out N URLs into N independent jobs sharing no
	// state. One URL's failure never affects another's.
	EnqueueBatch(ctx context.Context, urls []string) ([]string, error)

	// Job returns the current job state, or domain.ErrNotFound.
	Job(ctx context.Context, jobID string) (*domain.IngestJob, error)

	// Cancel marks a queued job failed with a cancellation error kind.
	// Terminal jobs are not resurrected; cancelling one returns
	// domain.ErrJobTerminal.
	Cancel(ctx context.Context, jobID string) error
}
