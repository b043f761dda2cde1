package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/praetor-labs/praetor/internal/core/domain"
	"github.com/praetor-labs/praetor/internal/core/ports/driven"
	"github.com/praetor-labs/praetor/internal/core/ports/driving"
	"github.com/praetor-labs/praetor/internal/logger"
)

// defaultQueueCapacity bounds the in-flight job backlog.
const defaultQueueCapacity = 1024

// Ensure IngestionOrchestrator implements the interface.
var _ driving.Ingestor = (*IngestionOrchestrator)(nil)

// IngestionOrchestrator runs the fetch, normalise, chunk, embed, store
// pipeline. Each URL is one independent job; a worker pool drains the
// queue. Ingestion is idempotent on the content hash.
type IngestionOrchestrator struct {
	fetcher  driven.Fetcher
	registry driven.NormaliserRegistry
	chunker  driven.Chunker
	embedder driven.EmbeddingService
	vectors  driven.VectorStore
	jobs     driven.JobStore

	workers int
	queue   chan string

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	wg        sync.WaitGroup
}

// NewIngestionOrchestrator creates an orchestrator with the given
// worker count for queued jobs.
func NewIngestionOrchestrator(
	fetcher driven.Fetcher,
	registry driven.NormaliserRegistry,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	vectors driven.VectorStore,
	jobs driven.JobStore,
	workers int,
) *IngestionOrchestrator {
	if workers <= 0 {
		workers = 1
	}
	return &IngestionOrchestrator{
		fetcher:  fetcher,
		registry: registry,
		chunker:  chunker,
		embedder: embedder,
		vectors:  vectors,
		jobs:     jobs,
		workers:  workers,
		queue:    make(chan string, defaultQueueCapacity),
		stop:     make(chan struct{}),
	}
}

// Start launches the worker pool. Idempotent.
func (o *IngestionOrchestrator) Start(ctx context.Context) {
	o.startOnce.Do(func() {
		for i := 0; i < o.workers; i++ {
			o.wg.Add(1)
			go o.worker(ctx)
		}
		logger.Info().Int("workers", o.workers).Msg("ingestion workers started")
	})
}

// Stop shuts the worker pool down and waits for in-flight jobs.
func (o *IngestionOrchestrator) Stop() {
	o.stopOnce.Do(func() {
		close(o.stop)
	})
	o.wg.Wait()
}

func (o *IngestionOrchestrator) worker(ctx context.Context) {
	defer o.wg.Done()
	for {
		select {
		case <-o.stop:
			return
		case <-ctx.Done():
			return
		case jobID := <-o.queue:
			o.runJob(ctx, jobID)
		}
	}
}

// Ingest runs the full pipeline synchronously and returns the
// resulting document.
func (o *IngestionOrchestrator) Ingest(ctx context.Context, url string) (*domain.Document, error) {
	job, err := o.newJob(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := o.runJob(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	// The job was claimed elsewhere before this call could run it.
	if doc == nil {
		return o.vectors.GetDocumentBySourceURL(ctx, url)
	}
	return doc, nil
}

// Enqueue schedules ingestion of a URL and returns a job ID.
func (o *IngestionOrchestrator) Enqueue(ctx context.Context, url string) (string, error) {
	job, err := o.newJob(ctx, url)
	if err != nil {
		return "", err
	}

	select {
	case o.queue <- job.ID:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return job.ID, nil
}

// EnqueueBatch fans out N URLs into N independent jobs. One URL's
// failure never affects another's.
func (o *IngestionOrchestrator) EnqueueBatch(ctx context.Context, urls []string) ([]string, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: empty url list", domain.ErrInvalidInput)
	}

	ids := make([]string, 0, len(urls))
	for _, url := range urls {
		id, err := o.Enqueue(ctx, url)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Job returns the current job state.
func (o *IngestionOrchestrator) Job(ctx context.Context, jobID string) (*domain.IngestJob, error) {
	return o.jobs.GetJob(ctx, jobID)
}

// Cancel marks a queued job failed with a cancellation error kind.
// Running jobs finish; terminal jobs return domain.ErrJobTerminal. The
// status swap is atomic so a worker claiming the job at the same time
// cannot erase the cancellation.
func (o *IngestionOrchestrator) Cancel(ctx context.Context, jobID string) error {
	job, err := o.jobs.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return domain.ErrJobTerminal
	}

	swapped, err := o.jobs.CompareAndSetStatus(ctx, jobID, domain.JobQueued, domain.JobFailed)
	if err != nil {
		return err
	}
	if !swapped {
		job, err = o.jobs.GetJob(ctx, jobID)
		if err != nil {
			return err
		}
		if job.Status.Terminal() {
			return domain.ErrJobTerminal
		}
		return fmt.Errorf("%w: job %s is %s", domain.ErrInvalidInput, jobID, job.Status)
	}

	// The job is failed now; no worker will touch it again.
	job, err = o.jobs.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	job.Error = domain.ErrJobCanceled.Error()
	return o.jobs.SaveJob(ctx, job)
}

func (o *IngestionOrchestrator) newJob(ctx context.Context, url string) (*domain.IngestJob, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty url", domain.ErrInvalidInput)
	}

	job := &domain.IngestJob{
		ID:     uuid.NewString(),
		URL:    url,
		Status: domain.JobQueued,
	}
	if err := o.jobs.SaveJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// runJob drives one job through the pipeline and records the outcome.
// It returns the resulting document, or nil when the job could not be
// claimed (cancelled or taken by another worker). The returned error
// is the pipeline error, if any; job bookkeeping failures are logged
// but not returned.
func (o *IngestionOrchestrator) runJob(ctx context.Context, jobID string) (*domain.Document, error) {
	// Claiming via an atomic status swap keeps a job cancelled while
	// queued from running.
	claimed, err := o.jobs.CompareAndSetStatus(ctx, jobID, domain.JobQueued, domain.JobRunning)
	if err != nil {
		logger.Error().Err(err).Str("job_id", jobID).Msg("claiming job")
		return nil, err
	}
	if !claimed {
		return nil, nil
	}

	job, err := o.jobs.GetJob(ctx, jobID)
	if err != nil {
		logger.Error().Err(err).Str("job_id", jobID).Msg("loading job")
		return nil, err
	}

	doc, written, changed, runErr := o.process(ctx, job.URL)
	if runErr != nil {
		logger.Warn().Err(runErr).Str("url", job.URL).Msg("ingestion failed")
		o.recordFailure(ctx, job.URL, runErr)
		job.Status = domain.JobFailed
		job.Error = runErr.Error()
	} else {
		job.Status = domain.JobSucceeded
		job.DocumentID = doc.ID
		job.ChunksWritten = written
		job.Changed = changed
		logger.Info().
			Str("url", job.URL).
			Str("document_id", doc.ID).
			Int("chunks", written).
			Bool("changed", changed).
			Msg("document ingested")
	}

	if err := o.jobs.SaveJob(ctx, job); err != nil {
		logger.Error().Err(err).Str("job_id", jobID).Msg("saving job outcome")
	}
	if runErr != nil {
		return nil, runErr
	}
	return doc, nil
}

// process executes the pipeline for one URL.
func (o *IngestionOrchestrator) process(ctx context.Context, url string) (doc *domain.Document, written int, changed bool, err error) {
	fetched, err := o.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, 0, false, err
	}

	// Unchanged content is a no-op: the stored document stands.
	if existing, err := o.vectors.GetDocumentByHash(ctx, fetched.ContentHash); err == nil &&
		existing.Status == domain.DocumentReady {
		logger.Debug().Str("url", url).Msg("content unchanged, skipping")
		return existing, 0, false, nil
	}

	normaliser, err := o.registry.ForMIMEType(fetched.MIMEType)
	if err != nil {
		return nil, 0, false, err
	}
	normalised, err := normaliser.Normalise(ctx, fetched)
	if err != nil {
		return nil, 0, false, err
	}

	var chunks []domain.Chunk
	for chunk := range o.chunker.Chunks(normalised.Text, normalised.Anchors) {
		chunks = append(chunks, chunk)
	}
	if len(chunks) == 0 {
		return nil, 0, false, fmt.Errorf("%w: no chunks produced for %s", domain.ErrEmptyDocument, url)
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	embeddings, err := o.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, 0, false, err
	}
	if len(embeddings) != len(chunks) {
		return nil, 0, false, fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	prior, priorErr := o.vectors.GetDocumentBySourceURL(ctx, url)
	changed = priorErr != nil || prior.ContentHash != fetched.ContentHash

	doc = &domain.Document{
		SourceURL:   url,
		Title:       normalised.Title,
		ContentHash: fetched.ContentHash,
		Status:      domain.DocumentReady,
		FetchedAt:   time.Now().UTC(),
	}
	if err := o.vectors.UpsertDocument(ctx, doc, chunks, o.embedder.ModelName()); err != nil {
		return nil, 0, false, err
	}
	return doc, len(chunks), changed, nil
}

// recordFailure writes a failed document row for fresh URLs only. A
// prior ready document at the same URL keeps serving; the failure
// lives on the job.
func (o *IngestionOrchestrator) recordFailure(ctx context.Context, url string, cause error) {
	prior, err := o.vectors.GetDocumentBySourceURL(ctx, url)
	if err == nil && prior.Status == domain.DocumentReady {
		return
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Error().Err(err).Str("url", url).Msg("looking up prior document")
		return
	}

	failed := &domain.Document{
		SourceURL: url,
		Status:    domain.DocumentFailed,
		Error:     cause.Error(),
	}
	if err := o.vectors.SaveDocument(ctx, failed); err != nil {
		logger.Error().Err(err).Str("url", url).Msg("recording failed document")
	}
}
