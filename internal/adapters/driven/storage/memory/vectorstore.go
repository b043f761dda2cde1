package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/praetor-labs/praetor/internal/core/domain"
	"github.com/praetor-labs/praetor/internal/core/ports/driven"
)

// VectorStore is an in-memory implementation of driven.VectorStore.
type VectorStore struct {
	mu      sync.RWMutex
	modelID string
	docs    map[string]*domain.Document // keyed by document ID
	byURL   map[string]string           // source URL -> document ID
	chunks  map[string][]domain.Chunk   // document ID -> chunk set
}

var _ driven.VectorStore = (*VectorStore)(nil)

// NewVectorStore creates an empty in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		docs:   make(map[string]*domain.Document),
		byURL:  make(map[string]string),
		chunks: make(map[string][]domain.Chunk),
	}
}

// UpsertDocument writes the document and replaces its chunk set.
func (s *VectorStore) UpsertDocument(_ context.Context, doc *domain.Document, chunks []domain.Chunk, modelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.modelID == "" {
		s.modelID = modelID
	} else if s.modelID != modelID {
		return &domain.StorageTransactionError{
			Op: "upsert document",
			Err: fmt.Errorf("%w: corpus uses %q, write attempted with %q",
				domain.ErrModelMismatch, s.modelID, modelID),
		}
	}

	now := time.Now().UTC()
	if existingID, ok := s.byURL[doc.SourceURL]; ok {
		doc.ID = existingID
		doc.CreatedAt = s.docs[existingID].CreatedAt
	} else if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	stored := *doc
	s.docs[doc.ID] = &stored
	s.byURL[doc.SourceURL] = doc.ID

	kept := make([]domain.Chunk, len(chunks))
	for i := range chunks {
		if chunks[i].ID == "" {
			chunks[i].ID = uuid.NewString()
		}
		chunks[i].DocumentID = doc.ID
		kept[i] = chunks[i]
	}
	s.chunks[doc.ID] = kept
	return nil
}

// SaveDocument writes the document row alone.
func (s *VectorStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existingID, ok := s.byURL[doc.SourceURL]; ok {
		doc.ID = existingID
		doc.CreatedAt = s.docs[existingID].CreatedAt
	} else if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	stored := *doc
	s.docs[doc.ID] = &stored
	s.byURL[doc.SourceURL] = doc.ID
	return nil
}

// Query returns the topK most similar chunks of ready documents.
func (s *VectorStore) Query(_ context.Context, vector []float32, topK int) ([]driven.ScoredChunk, error) {
	if topK <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []driven.ScoredChunk
	for docID, chunks := range s.chunks {
		doc, ok := s.docs[docID]
		if !ok || doc.Status != domain.DocumentReady {
			continue
		}
		for _, chunk := range chunks {
			score, ok := cosine(vector, chunk.Embedding)
			if !ok {
				continue
			}
			hits = append(hits, driven.ScoredChunk{
				Chunk:       chunk,
				DocumentURL: doc.SourceURL,
				Title:       doc.Title,
				FetchedAt:   doc.FetchedAt,
				Score:       score,
			})
		}
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

// Exists reports whether a ready document with the content hash is stored.
func (s *VectorStore) Exists(_ context.Context, contentHash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doc := range s.docs {
		if doc.ContentHash == contentHash && doc.Status == domain.DocumentReady {
			return true, nil
		}
	}
	return false, nil
}

// GetDocumentByHash returns the document with the content hash.
func (s *VectorStore) GetDocumentByHash(_ context.Context, contentHash string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.Document
	for _, doc := range s.docs {
		if doc.ContentHash != contentHash {
			continue
		}
		if latest == nil || doc.UpdatedAt.After(latest.UpdatedAt) {
			latest = doc
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

// GetDocumentBySourceURL returns the document for the URL.
func (s *VectorStore) GetDocumentBySourceURL(_ context.Context, sourceURL string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byURL[sourceURL]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s.docs[id]
	return &cp, nil
}

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
