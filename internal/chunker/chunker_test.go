package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetor-labs/praetor/internal/core/domain"
)

func collect(t *testing.T, c *Chunker, text string, anchors []domain.SectionAnchor) []domain.Chunk {
	t.Helper()
	var out []domain.Chunk
	for ch := range c.Chunks(text, anchors) {
		out = append(out, ch)
	}
	return out
}

func TestChunksFixedStride(t *testing.T) {
	// 3000 characters with no paragraph or sentence boundaries, so the
	// stride is exactly size minus overlap.
	text := strings.Repeat("abcdefghij", 300)
	chunks := collect(t, New(), text, nil)

	require.Len(t, chunks, 4)
	starts := []int{0, 850, 1700, 2550}
	for i, ch := range chunks {
		assert.Equal(t, i, ch.SequenceIndex)
		assert.Equal(t, starts[i], ch.Span.Start)
	}
	assert.Equal(t, 3000, chunks[3].Span.End)
}

func TestChunksFixedStrideCyrillic(t *testing.T) {
	// Same stride as the ASCII case even though every character is two
	// bytes in UTF-8.
	text := strings.Repeat("ї", 3000)
	chunks := collect(t, New(), text, nil)

	require.Len(t, chunks, 4)
	starts := []int{0, 850, 1700, 2550}
	for i, ch := range chunks {
		assert.Equal(t, starts[i], ch.Span.Start)
	}
	assert.Equal(t, 3000, chunks[3].Span.End)
	assert.Equal(t, 1000, utf8.RuneCountInString(chunks[0].Text))
}

func TestChunksCoverAllText(t *testing.T) {
	text := strings.Repeat("Стаття про права. ", 400)
	chunks := collect(t, New(), text, nil)
	require.NotEmpty(t, chunks)

	assert.Equal(t, 0, chunks[0].Span.Start)
	assert.Equal(t, utf8.RuneCountInString(text), chunks[len(chunks)-1].Span.End)
	for i := 1; i < len(chunks); i++ {
		assert.LessOrEqual(t, chunks[i].Span.Start, chunks[i-1].Span.End,
			"gap between chunk %d and %d", i-1, i)
		assert.Greater(t, chunks[i].Span.Start, chunks[i-1].Span.Start)
	}
}

func TestChunksPreferParagraphBoundary(t *testing.T) {
	// A paragraph break sits inside the tolerance window before the
	// raw cut at 100.
	para := strings.Repeat("a", 92) + "\n\n" + strings.Repeat("b", 200)
	chunks := collect(t, New(WithChunkSize(100), WithOverlap(10)), para, nil)

	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, 94, chunks[0].Span.End)
	assert.NotContains(t, chunks[0].Text, "b")
}

func TestChunksPreferSentenceBoundary(t *testing.T) {
	text := strings.Repeat("a", 90) + ". " + strings.Repeat("b", 200)
	chunks := collect(t, New(WithChunkSize(100), WithOverlap(10)), text, nil)

	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, 92, chunks[0].Span.End)
	assert.True(t, strings.HasSuffix(chunks[0].Text, "."))
}

func TestChunksNeverSplitRunes(t *testing.T) {
	text := strings.Repeat("ї", 2000)
	for ch := range New().Chunks(text, nil) {
		assert.True(t, strings.ToValidUTF8(ch.Text, "") == ch.Text,
			"chunk at %d contains a split rune", ch.Span.Start)
	}
}

func TestChunksSectionRefs(t *testing.T) {
	text := strings.Repeat("x", 3000)
	anchors := []domain.SectionAnchor{
		{Offset: 0, Ref: "Стаття 1", Title: "Стаття 1. Перша"},
		{Offset: 1500, Ref: "Стаття 2", Title: "Стаття 2. Друга"},
	}
	chunks := collect(t, New(), text, anchors)
	require.Len(t, chunks, 4)

	assert.Equal(t, "Стаття 1", chunks[0].SectionRef)
	assert.Equal(t, "Стаття 1", chunks[1].SectionRef)
	assert.Equal(t, "Стаття 2", chunks[2].SectionRef)
	assert.Equal(t, "Стаття 2. Друга", chunks[2].SectionTitle)
}

func TestChunksRestartable(t *testing.T) {
	text := strings.Repeat("abcdefghij", 300)
	seq := New().Chunks(text, nil)

	first := 0
	for range seq {
		first++
	}
	second := 0
	for range seq {
		second++
	}
	assert.Equal(t, first, second)
}

func TestChunksEmptyText(t *testing.T) {
	assert.Empty(t, collect(t, New(), "   \n\n  ", nil))
}

func TestChunksShortText(t *testing.T) {
	chunks := collect(t, New(), "Короткий документ.", nil)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Короткий документ.", chunks[0].Text)
}

func TestNewClampsOverlap(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(100))
	text := strings.Repeat("z", 500)
	chunks := collect(t, c, text, nil)
	require.NotEmpty(t, chunks)
	assert.Equal(t, len(text), chunks[len(chunks)-1].Span.End)
}
