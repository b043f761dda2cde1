package driven

import (
	"context"

	"github.com/praetor-labs/praetor/internal/core/domain"
)

// JobStore persists ingestion jobs for status polling.
// Only the ingestion orchestrator writes to it.
type JobStore interface {
	// SaveJob stores or updates a job.
	SaveJob(ctx context.Context, job *domain.IngestJob) error

	// GetJob retrieves a job by ID, or domain.ErrNotFound.
	GetJob(ctx context.Context, id string) (*domain.IngestJob, error)

	// CompareAndSetStatus atomically moves a job from one status to
	// another. It reports false when the job is not in the expected
	// status, and domain.ErrNotFound when no such job exists.
	CompareAndSetStatus(ctx context.Context, id string, from, to domain.JobStatus) (bool, error)
}
