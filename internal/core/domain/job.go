package domain

import "time"

// JobStatus tracks the lifecycle of a queued ingestion job.
type JobStatus string

// Job lifecycle states. Succeeded and Failed are terminal and final;
// a finished job is never resurrected.
const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// IngestJob is one unit of ingestion work for a single URL.
// It is created and mutated only by the ingestion orchestrator.
type IngestJob struct {
	// ID is the unique job identifier returned to callers for polling.
	ID string

	// URL is the source URL to ingest.
	URL string

	// Status is the current lifecycle state.
	Status JobStatus

	// Error holds the failure reason when Status is JobFailed.
	Error string

	// DocumentID references the resulting Document once known.
	DocumentID string

	// ChunksWritten is the number of chunks persisted by this job.
	// Zero for an idempotent no-op on unchanged content.
	ChunksWritten int

	// Changed reports whether the document content differed from the
	// previously ingested version.
	Changed bool

	// CreatedAt is when the job was enqueued.
	CreatedAt time.Time

	// UpdatedAt is when the job last changed state.
	UpdatedAt time.Time
}
