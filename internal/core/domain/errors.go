package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedContent indicates a payload that cannot be ingested:
	// a non-text content type or an oversized body. Non-retryable.
	ErrUnsupportedContent = errors.New("unsupported content")

	// ErrEmptyDocument indicates normalisation left no extractable text.
	// Non-retryable.
	ErrEmptyDocument = errors.New("empty document")

	// ErrModelMismatch indicates an embedding produced by a different
	// model than the corpus-wide one. Mixing models requires a full
	// re-embed, so the write is refused.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrJobCanceled marks an ingest job that was canceled before it
	// ran. The job ends in the failed state with this error kind.
	ErrJobCanceled = errors.New("job canceled")

	// ErrJobTerminal indicates an operation on a job that already
	// reached a final state.
	ErrJobTerminal = errors.New("job already in terminal state")

	// ErrRetrievalTimeout indicates retrieval could not complete in
	// time. Surfaced to the caller as a degraded answer, not a failure.
	ErrRetrievalTimeout = errors.New("retrieval timeout")
)

// FetchError wraps a network/availability failure after retries were
// exhausted.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// EmbeddingError wraps an embedding backend failure. Retryable errors
// (rate limit, timeout) are retried inside the embedder; a surfaced
// EmbeddingError aborts the enclosing ingestion job.
type EmbeddingError struct {
	Retryable bool
	Err       error
}

func (e *EmbeddingError) Error() string {
	kind := "fatal"
	if e.Retryable {
		kind = "retryable"
	}
	return fmt.Sprintf("embedding error (%s): %v", kind, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// StorageTransactionError wraps a failed storage transaction. The job
// is rolled back to its prior state; partial writes are never visible.
type StorageTransactionError struct {
	Op  string
	Err error
}

func (e *StorageTransactionError) Error() string {
	return fmt.Sprintf("storage transaction %s: %v", e.Op, e.Err)
}

func (e *StorageTransactionError) Unwrap() error { return e.Err }
