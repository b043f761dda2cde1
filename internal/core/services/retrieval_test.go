package services

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetor-labs/praetor/internal/adapters/driven/storage/memory"
	"github.com/praetor-labs/praetor/internal/core/domain"
)

// fixedEmbedder returns one canned vector for every text.
type fixedEmbedder struct {
	vec []float32
}

func (e *fixedEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return e.vec, nil
}

func (e *fixedEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = e.vec
	}
	return out, nil
}

func (e *fixedEmbedder) Dimensions() int   { return len(e.vec) }
func (e *fixedEmbedder) ModelName() string { return "test-model" }

type seedChunk struct {
	text      string
	embedding []float32
	section   string
}

func seedDocument(t *testing.T, store *memory.VectorStore, url, title string, chunks ...seedChunk) {
	t.Helper()

	stored := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		stored[i] = domain.Chunk{
			SequenceIndex: i,
			Text:          c.text,
			SectionRef:    c.section,
			Embedding:     c.embedding,
		}
	}
	doc := &domain.Document{
		SourceURL:   url,
		Title:       title,
		ContentHash: "hash-" + url,
		Status:      domain.DocumentReady,
		FetchedAt:   time.Now().UTC(),
	}
	require.NoError(t, store.UpsertDocument(context.Background(), doc, stored, "test-model"))
}

func TestRetrieveRanksByScore(t *testing.T) {
	store := memory.NewVectorStore()
	seedDocument(t, store, "https://zakon.test/a", "Акт А",
		seedChunk{text: "фрагмент про відпустки", embedding: []float32{1, 0, 0, 0}})
	seedDocument(t, store, "https://zakon.test/b", "Акт Б",
		seedChunk{text: "фрагмент про оплату праці", embedding: []float32{0.8, 0.6, 0, 0}})
	seedDocument(t, store, "https://zakon.test/c", "Акт В",
		seedChunk{text: "фрагмент про трудовий договір", embedding: []float32{0.6, 0.8, 0, 0}})

	engine := NewRetrievalEngine(&fixedEmbedder{vec: []float32{1, 0, 0, 0}}, store, RetrievalParams{})

	citations, err := engine.Retrieve(context.Background(), "питання про відпустки", 0)
	require.NoError(t, err)
	require.Len(t, citations, 3)

	assert.Equal(t, "https://zakon.test/a", citations[0].DocumentURL)
	assert.Equal(t, "https://zakon.test/b", citations[1].DocumentURL)
	assert.Equal(t, "https://zakon.test/c", citations[2].DocumentURL)
	assert.InDelta(t, 1.0, citations[0].Score, 1e-9)
	assert.Greater(t, citations[1].Score, citations[2].Score)
}

func TestRetrieveCapsHitsPerDocument(t *testing.T) {
	store := memory.NewVectorStore()
	seedDocument(t, store, "https://zakon.test/big", "Великий акт",
		seedChunk{text: "перший фрагмент", embedding: []float32{1, 0, 0, 0}},
		seedChunk{text: "другий фрагмент", embedding: []float32{1, 0, 0, 0}},
		seedChunk{text: "третій фрагмент", embedding: []float32{1, 0, 0, 0}},
		seedChunk{text: "четвертий фрагмент", embedding: []float32{1, 0, 0, 0}})
	seedDocument(t, store, "https://zakon.test/small", "Малий акт",
		seedChunk{text: "інший фрагмент", embedding: []float32{0.9, 0.4359, 0, 0}})

	engine := NewRetrievalEngine(&fixedEmbedder{vec: []float32{1, 0, 0, 0}}, store, RetrievalParams{
		PerDocumentCap: 2,
	})

	citations, err := engine.Retrieve(context.Background(), "питання", 6)
	require.NoError(t, err)
	require.Len(t, citations, 3)

	perDoc := make(map[string]int)
	for _, c := range citations {
		perDoc[c.DocumentURL]++
	}
	assert.Equal(t, 2, perDoc["https://zakon.test/big"])
	assert.Equal(t, 1, perDoc["https://zakon.test/small"])
}

func TestRetrieveDeduplicatesSnippets(t *testing.T) {
	store := memory.NewVectorStore()
	seedDocument(t, store, "https://zakon.test/a", "Акт А",
		seedChunk{text: "однаковий   текст фрагмента", embedding: []float32{1, 0, 0, 0}})
	seedDocument(t, store, "https://zakon.test/b", "Акт Б",
		seedChunk{text: "однаковий текст  фрагмента", embedding: []float32{1, 0, 0, 0}})

	engine := NewRetrievalEngine(&fixedEmbedder{vec: []float32{1, 0, 0, 0}}, store, RetrievalParams{})

	citations, err := engine.Retrieve(context.Background(), "питання", 6)
	require.NoError(t, err)

	// Whitespace differences compact to the same snippet.
	require.Len(t, citations, 1)
	assert.Equal(t, "однаковий текст фрагмента", citations[0].Snippet)
}

func TestRetrieveAppliesRelevanceFloor(t *testing.T) {
	store := memory.NewVectorStore()
	seedDocument(t, store, "https://zakon.test/a", "Акт А",
		seedChunk{text: "релевантний фрагмент", embedding: []float32{1, 0, 0, 0}})
	seedDocument(t, store, "https://zakon.test/b", "Акт Б",
		seedChunk{text: "слабо релевантний фрагмент", embedding: []float32{0.1, 0.995, 0, 0}})

	engine := NewRetrievalEngine(&fixedEmbedder{vec: []float32{1, 0, 0, 0}}, store, RetrievalParams{
		RelevanceFloor: 0.25,
	})

	citations, err := engine.Retrieve(context.Background(), "питання", 6)
	require.NoError(t, err)

	require.Len(t, citations, 1)
	assert.Equal(t, "https://zakon.test/a", citations[0].DocumentURL)
}

func TestRetrieveDefaultRelevanceFloor(t *testing.T) {
	store := memory.NewVectorStore()
	seedDocument(t, store, "https://zakon.test/a", "Акт А",
		seedChunk{text: "релевантний фрагмент", embedding: []float32{1, 0, 0, 0}})
	seedDocument(t, store, "https://zakon.test/b", "Акт Б",
		seedChunk{text: "нерелевантний фрагмент", embedding: []float32{0.1, 0.995, 0, 0}})

	engine := NewRetrievalEngine(&fixedEmbedder{vec: []float32{1, 0, 0, 0}}, store, RetrievalParams{})

	citations, err := engine.Retrieve(context.Background(), "питання", 6)
	require.NoError(t, err)

	// Zero params still carry a floor; barely related hits stay out.
	require.Len(t, citations, 1)
	assert.Equal(t, "https://zakon.test/a", citations[0].DocumentURL)
}

func TestRetrieveCarriesSectionRef(t *testing.T) {
	store := memory.NewVectorStore()
	seedDocument(t, store, "https://zakon.test/a", "Кодекс",
		seedChunk{
			text:      "текст статті про щорічну відпустку",
			embedding: []float32{1, 0, 0, 0},
			section:   "Розділ I / Стаття 5",
		})

	engine := NewRetrievalEngine(&fixedEmbedder{vec: []float32{1, 0, 0, 0}}, store, RetrievalParams{})

	citations, err := engine.Retrieve(context.Background(), "питання", 1)
	require.NoError(t, err)
	require.Len(t, citations, 1)
	assert.Equal(t, "Розділ I / Стаття 5", citations[0].SectionRef)
	assert.Equal(t, "Кодекс", citations[0].Title)
}

func TestRetrieveRejectsEmptyQuestion(t *testing.T) {
	engine := NewRetrievalEngine(&fixedEmbedder{vec: []float32{1}}, memory.NewVectorStore(), RetrievalParams{})

	_, err := engine.Retrieve(context.Background(), "   ", 6)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCompactSnippetCollapsesWhitespace(t *testing.T) {
	got := compactSnippet("перший\n\n  рядок\tдругий   рядок")
	assert.Equal(t, "перший рядок другий рядок", got)
}

func TestCompactSnippetTruncatesAtWordBoundary(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("словечко ", 60))
	got := compactSnippet(long)

	assert.LessOrEqual(t, utf8.RuneCountInString(got), maxSnippetRunes+1)
	assert.True(t, strings.HasSuffix(got, "…"))
	// The cut never splits a word.
	trimmed := strings.TrimSuffix(got, "…")
	assert.True(t, strings.HasSuffix(trimmed, "словечко"), "got %q", trimmed)
}

func TestCompactSnippetShortTextUnchanged(t *testing.T) {
	assert.Equal(t, "короткий текст", compactSnippet("короткий текст"))
}
