package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/praetor-labs/praetor/internal/core/domain"
	"github.com/praetor-labs/praetor/internal/core/ports/driven"
)

// jobStore implements driven.JobStore.
type jobStore struct {
	store *Store
}

var _ driven.JobStore = (*jobStore)(nil)

// SaveJob stores or updates a job.
func (s *jobStore) SaveJob(ctx context.Context, job *domain.IngestJob) error {
	if job.ID == "" {
		return domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO ingest_jobs (id, url, status, error, document_id, chunks_written, changed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			error = excluded.error,
			document_id = excluded.document_id,
			chunks_written = excluded.chunks_written,
			changed = excluded.changed,
			updated_at = excluded.updated_at
	`, job.ID, job.URL, string(job.Status), job.Error, job.DocumentID,
		job.ChunksWritten, job.Changed, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving job: %w", err)
	}
	return nil
}

// CompareAndSetStatus atomically moves a job between statuses. The
// guarded UPDATE makes the swap race-free across concurrent callers.
func (s *jobStore) CompareAndSetStatus(ctx context.Context, id string, from, to domain.JobStatus) (bool, error) {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE ingest_jobs SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, string(to), time.Now().UTC(), id, string(from))
	if err != nil {
		return false, fmt.Errorf("swapping job status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("swapping job status: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	// Distinguish a lost race from a missing job.
	if _, err := s.GetJob(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// GetJob retrieves a job by ID.
func (s *jobStore) GetJob(ctx context.Context, id string) (*domain.IngestJob, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, url, status, error, document_id, chunks_written, changed, created_at, updated_at
		FROM ingest_jobs WHERE id = ?
	`, id)

	var job domain.IngestJob
	var status string
	if err := row.Scan(&job.ID, &job.URL, &status, &job.Error, &job.DocumentID,
		&job.ChunksWritten, &job.Changed, &job.CreatedAt, &job.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning job: %w", err)
	}

	job.Status = domain.JobStatus(status)
	return &job, nil
}
