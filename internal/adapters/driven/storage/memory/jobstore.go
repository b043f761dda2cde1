package memory

import (
	"context"
	"sync"
	"time"

	"github.com/praetor-labs/praetor/internal/core/domain"
	"github.com/praetor-labs/praetor/internal/core/ports/driven"
)

// JobStore is an in-memory implementation of driven.JobStore.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*domain.IngestJob
}

var _ driven.JobStore = (*JobStore)(nil)

// NewJobStore creates an empty in-memory job store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*domain.IngestJob)}
}

// SaveJob stores or updates a job.
func (s *JobStore) SaveJob(_ context.Context, job *domain.IngestJob) error {
	if job.ID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	stored := *job
	s.jobs[job.ID] = &stored
	return nil
}

// CompareAndSetStatus atomically moves a job between statuses.
func (s *JobStore) CompareAndSetStatus(_ context.Context, id string, from, to domain.JobStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if job.Status != from {
		return false, nil
	}
	job.Status = to
	job.UpdatedAt = time.Now().UTC()
	return true, nil
}

// GetJob retrieves a job by ID.
func (s *JobStore) GetJob(_ context.Context, id string) (*domain.IngestJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *job
	return &cp, nil
}
