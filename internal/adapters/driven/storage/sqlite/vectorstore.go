package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/praetor-labs/praetor/internal/core/domain"
	"github.com/praetor-labs/praetor/internal/core/ports/driven"
)

// vectorStore implements driven.VectorStore.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// UpsertDocument transactionally writes the document row and replaces
// its entire chunk set. The document row is keyed by source URL: a
// re-ingestion reuses the existing row ID so chunk references and
// citations stay stable.
func (s *vectorStore) UpsertDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk, modelID string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StorageTransactionError{Op: "upsert document", Err: err}
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ensureCorpusModel(ctx, tx, modelID); err != nil {
		return &domain.StorageTransactionError{Op: "upsert document", Err: err}
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	// Reuse the row for the same source URL.
	var existingID string
	var existingCreated time.Time
	row := tx.QueryRowContext(ctx,
		"SELECT id, created_at FROM documents WHERE source_url = ?", doc.SourceURL)
	switch err := row.Scan(&existingID, &existingCreated); {
	case err == nil:
		doc.ID = existingID
		doc.CreatedAt = existingCreated
	case errors.Is(err, sql.ErrNoRows):
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
	default:
		return &domain.StorageTransactionError{Op: "upsert document", Err: err}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, source_url, title, content_hash, status, error, fetched_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_url) DO UPDATE SET
			title = excluded.title,
			content_hash = excluded.content_hash,
			status = excluded.status,
			error = excluded.error,
			fetched_at = excluded.fetched_at,
			updated_at = excluded.updated_at
	`, doc.ID, doc.SourceURL, doc.Title, doc.ContentHash, string(doc.Status),
		doc.Error, doc.FetchedAt, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return &domain.StorageTransactionError{Op: "upsert document", Err: err}
	}

	// The old chunk set is replaced wholesale.
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", doc.ID); err != nil {
		return &domain.StorageTransactionError{Op: "upsert document", Err: err}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, sequence_index, text, section_ref, section_title, span_start, span_end, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return &domain.StorageTransactionError{Op: "upsert document", Err: err}
	}
	defer stmt.Close()

	for i := range chunks {
		chunk := &chunks[i]
		if chunk.ID == "" {
			chunk.ID = uuid.NewString()
		}
		chunk.DocumentID = doc.ID

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.SequenceIndex,
			chunk.Text, chunk.SectionRef, chunk.SectionTitle,
			chunk.Span.Start, chunk.Span.End, float32SliceToBytes(chunk.Embedding)); err != nil {
			return &domain.StorageTransactionError{Op: "upsert document", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &domain.StorageTransactionError{Op: "upsert document", Err: err}
	}
	return nil
}

// SaveDocument writes the document row alone, without touching chunks.
func (s *vectorStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, source_url, title, content_hash, status, error, fetched_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_url) DO UPDATE SET
			title = excluded.title,
			content_hash = excluded.content_hash,
			status = excluded.status,
			error = excluded.error,
			fetched_at = excluded.fetched_at,
			updated_at = excluded.updated_at
	`, doc.ID, doc.SourceURL, doc.Title, doc.ContentHash, string(doc.Status),
		doc.Error, doc.FetchedAt, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// Query returns the topK most similar ready chunks. Similarity is
// cosine, computed in Go over all stored vectors. Corpora are a few
// hundred documents, so a linear scan beats maintaining an index.
func (s *vectorStore) Query(ctx context.Context, vector []float32, topK int) ([]driven.ScoredChunk, error) {
	if topK <= 0 {
		return nil, nil
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT c.id, c.document_id, c.sequence_index, c.text, c.section_ref, c.section_title,
		       c.span_start, c.span_end, c.embedding,
		       d.source_url, d.title, d.fetched_at
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE d.status = ?
	`, string(domain.DocumentReady))
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var hits []driven.ScoredChunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var blob []byte
		var url, title string
		var fetchedAt sql.NullTime
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.SequenceIndex, &chunk.Text,
			&chunk.SectionRef, &chunk.SectionTitle, &chunk.Span.Start, &chunk.Span.End,
			&blob, &url, &title, &fetchedAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}

		chunk.Embedding = bytesToFloat32Slice(blob)
		score, ok := cosine(vector, chunk.Embedding)
		if !ok {
			continue
		}

		hit := driven.ScoredChunk{
			Chunk:       chunk,
			DocumentURL: url,
			Title:       title,
			Score:       score,
		}
		if fetchedAt.Valid {
			hit.FetchedAt = fetchedAt.Time
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].Chunk.SequenceIndex != hits[j].Chunk.SequenceIndex {
			return hits[i].Chunk.SequenceIndex < hits[j].Chunk.SequenceIndex
		}
		return hits[i].FetchedAt.After(hits[j].FetchedAt)
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Exists reports whether a ready document with the content hash is
// already stored.
func (s *vectorStore) Exists(ctx context.Context, contentHash string) (bool, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM documents WHERE content_hash = ? AND status = ?
	`, contentHash, string(domain.DocumentReady)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking content hash: %w", err)
	}
	return count > 0, nil
}

// GetDocumentByHash returns the document with the content hash.
func (s *vectorStore) GetDocumentByHash(ctx context.Context, contentHash string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, source_url, title, content_hash, status, error, fetched_at, created_at, updated_at
		FROM documents WHERE content_hash = ?
		ORDER BY updated_at DESC LIMIT 1
	`, contentHash)
	return scanDocument(row)
}

// GetDocumentBySourceURL returns the document for the URL.
func (s *vectorStore) GetDocumentBySourceURL(ctx context.Context, sourceURL string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, source_url, title, content_hash, status, error, fetched_at, created_at, updated_at
		FROM documents WHERE source_url = ?
	`, sourceURL)
	return scanDocument(row)
}

// ensureCorpusModel pins the embedding model ID on first write and
// refuses writes from a different model afterwards.
func ensureCorpusModel(ctx context.Context, tx *sql.Tx, modelID string) error {
	var stored string
	row := tx.QueryRowContext(ctx, "SELECT value FROM corpus_meta WHERE key = ?", corpusModelKey)
	switch err := row.Scan(&stored); {
	case errors.Is(err, sql.ErrNoRows):
		_, err := tx.ExecContext(ctx,
			"INSERT INTO corpus_meta (key, value) VALUES (?, ?)", corpusModelKey, modelID)
		if err != nil {
			return fmt.Errorf("pinning corpus model: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("reading corpus model: %w", err)
	}

	if stored != modelID {
		return fmt.Errorf("%w: corpus uses %q, write attempted with %q",
			domain.ErrModelMismatch, stored, modelID)
	}
	return nil
}

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var status string
	var fetchedAt sql.NullTime

	if err := row.Scan(&doc.ID, &doc.SourceURL, &doc.Title, &doc.ContentHash, &status,
		&doc.Error, &fetchedAt, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	if fetchedAt.Valid {
		doc.FetchedAt = fetchedAt.Time
	}
	return &doc, nil
}

// cosine returns the cosine similarity of two vectors, or false when
// either vector is empty, zero or of a different dimension.
func cosine(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), true
}
