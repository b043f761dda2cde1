package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/praetor-labs/praetor/internal/core/domain"
	"github.com/praetor-labs/praetor/internal/core/ports/driven"
	"github.com/praetor-labs/praetor/internal/core/ports/driving"
	"github.com/praetor-labs/praetor/internal/logger"
)

// maxSnippetRunes caps the compacted evidence snippet length.
const maxSnippetRunes = 320

// Ensure RetrievalEngine implements the interface.
var _ driving.Retriever = (*RetrievalEngine)(nil)

// RetrievalEngine turns a question into a ranked, trimmed citation
// set. It oversamples the vector store, then deduplicates, caps hits
// per document and drops everything under the relevance floor.
type RetrievalEngine struct {
	embedder driven.EmbeddingService
	vectors  driven.VectorStore

	maxCitations   int
	oversample     int
	minCandidates  int
	perDocumentCap int
	relevanceFloor float64
}

// RetrievalParams tunes ranking and trimming.
type RetrievalParams struct {
	MaxCitations   int
	Oversample     int
	MinCandidates  int
	PerDocumentCap int
	RelevanceFloor float64
}

// NewRetrievalEngine creates a retrieval engine. Zero params fall back
// to conservative defaults.
func NewRetrievalEngine(embedder driven.EmbeddingService, vectors driven.VectorStore, params RetrievalParams) *RetrievalEngine {
	if params.MaxCitations <= 0 {
		params.MaxCitations = 6
	}
	if params.Oversample <= 0 {
		params.Oversample = 3
	}
	if params.MinCandidates <= 0 {
		params.MinCandidates = 20
	}
	if params.PerDocumentCap <= 0 {
		params.PerDocumentCap = 2
	}
	if params.RelevanceFloor <= 0 {
		params.RelevanceFloor = 0.25
	}
	return &RetrievalEngine{
		embedder:       embedder,
		vectors:        vectors,
		maxCitations:   params.MaxCitations,
		oversample:     params.Oversample,
		minCandidates:  params.MinCandidates,
		perDocumentCap: params.PerDocumentCap,
		relevanceFloor: params.RelevanceFloor,
	}
}

// Retrieve embeds the question, queries the store and assembles the
// citation set. An empty result means nothing relevant is ingested.
func (r *RetrievalEngine) Retrieve(ctx context.Context, question string, maxCitations int) ([]domain.Citation, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if maxCitations <= 0 {
		maxCitations = r.maxCitations
	}

	vector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: embedding question: %v", domain.ErrRetrievalTimeout, err)
		}
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	candidates := maxCitations * r.oversample
	if candidates < r.minCandidates {
		candidates = r.minCandidates
	}
	hits, err := r.vectors.Query(ctx, vector, candidates)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: querying vectors: %v", domain.ErrRetrievalTimeout, err)
		}
		return nil, fmt.Errorf("querying vectors: %w", err)
	}

	citations := r.trim(hits, maxCitations)
	logger.Debug().
		Int("candidates", len(hits)).
		Int("citations", len(citations)).
		Msg("retrieval complete")
	return citations, nil
}

// trim applies dedup, per-document caps and the relevance floor, in
// rank order, keeping at most maxCitations hits.
func (r *RetrievalEngine) trim(hits []driven.ScoredChunk, maxCitations int) []domain.Citation {
	var citations []domain.Citation
	seen := make(map[string]bool)
	perDoc := make(map[string]int)

	for _, hit := range hits {
		if hit.Score < r.relevanceFloor {
			// Hits arrive score-descending.
			break
		}

		snippet := compactSnippet(hit.Chunk.Text)
		if snippet == "" || seen[snippet] {
			continue
		}
		if perDoc[hit.DocumentURL] >= r.perDocumentCap {
			continue
		}

		seen[snippet] = true
		perDoc[hit.DocumentURL]++
		citations = append(citations, domain.Citation{
			DocumentURL: hit.DocumentURL,
			Title:       hit.Title,
			SectionRef:  hit.Chunk.SectionRef,
			Snippet:     snippet,
			Score:       hit.Score,
		})
		if len(citations) >= maxCitations {
			break
		}
	}
	return citations
}

// compactSnippet collapses whitespace and truncates to the snippet
// budget, cutting at a word boundary where possible.
func compactSnippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= maxSnippetRunes {
		return text
	}

	runes := []rune(text)
	cut := maxSnippetRunes
	for i := cut; i > cut-40 && i > 0; i-- {
		if runes[i] == ' ' {
			cut = i
			break
		}
	}
	return strings.TrimRight(string(runes[:cut]), " ") + "…"
}
