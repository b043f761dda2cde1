package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetor-labs/praetor/internal/core/domain"
	"github.com/praetor-labs/praetor/internal/core/ports/driven"
)

// recordingBackend captures what the generator sends and returns a
// scripted answer.
type recordingBackend struct {
	answer    string
	answerErr error

	gotQuestion string
	gotBlocks   []string
	gotHistory  []driven.ChatMessage
}

func (b *recordingBackend) Answer(_ context.Context, question string, blocks []string, history []driven.ChatMessage) (string, error) {
	b.gotQuestion = question
	b.gotBlocks = blocks
	b.gotHistory = history
	return b.answer, b.answerErr
}

func (b *recordingBackend) Clarify(_ context.Context, _ string, _ []driven.ChatMessage) (bool, []string, error) {
	return false, nil, nil
}

func (b *recordingBackend) ModelName() string { return "test-llm" }

func sampleCitations(n int) []domain.Citation {
	citations := make([]domain.Citation, n)
	for i := range citations {
		citations[i] = domain.Citation{
			DocumentURL: fmt.Sprintf("https://zakon.test/doc%d", i+1),
			Title:       fmt.Sprintf("Акт %d", i+1),
			SectionRef:  fmt.Sprintf("Стаття %d", i+1),
			Snippet:     fmt.Sprintf("фрагмент номер %d про умови праці", i+1),
			Score:       1.0 - float64(i)*0.1,
		}
	}
	return citations
}

func TestGenerateDelegatesToBackend(t *testing.T) {
	backend := &recordingBackend{answer: "Згідно зі Статтею 1 [1], умови такі."}
	gen := NewAnswerGenerator(backend, 0)

	got := gen.Generate(context.Background(), "яке питання?", sampleCitations(2), nil)

	assert.Equal(t, backend.answer, got)
	assert.Equal(t, "яке питання?", backend.gotQuestion)
	require.Len(t, backend.gotBlocks, 2)
	assert.Contains(t, backend.gotBlocks[0], "[1] Акт 1")
	assert.Contains(t, backend.gotBlocks[0], "Локація: Стаття 1")
	assert.Contains(t, backend.gotBlocks[0], "URL: https://zakon.test/doc1")
	assert.Contains(t, backend.gotBlocks[0], "фрагмент номер 1")
	assert.Contains(t, backend.gotBlocks[1], "[2] Акт 2")
}

func TestGenerateFallsBackOnBackendError(t *testing.T) {
	backend := &recordingBackend{answerErr: errors.New("rate limited")}
	gen := NewAnswerGenerator(backend, 0)

	got := gen.Generate(context.Background(), "питання", sampleCitations(2), nil)

	assert.Contains(t, got, msgBackendFailed)
	assert.Contains(t, got, "фрагмент номер 1")
	assert.Contains(t, got, "(Акт 1, Стаття 1)")
}

func TestGenerateFallsBackOnBlankAnswer(t *testing.T) {
	backend := &recordingBackend{answer: "   \n"}
	gen := NewAnswerGenerator(backend, 0)

	got := gen.Generate(context.Background(), "питання", sampleCitations(1), nil)
	assert.Contains(t, got, msgBackendFailed)
}

func TestGenerateWithoutBackendQuotesSnippets(t *testing.T) {
	gen := NewAnswerGenerator(nil, 0)

	got := gen.Generate(context.Background(), "питання", sampleCitations(5), nil)

	assert.Contains(t, got, msgBackendFailed)
	assert.Contains(t, got, "1. фрагмент номер 1")
	assert.Contains(t, got, "3. фрагмент номер 3")
	assert.NotContains(t, got, "4. фрагмент номер 4")
}

func TestGenerateEmptyCitations(t *testing.T) {
	gen := NewAnswerGenerator(&recordingBackend{answer: "ignored"}, 0)

	got := gen.Generate(context.Background(), "питання", nil, nil)
	assert.Equal(t, msgNoSources, got)
	assert.Equal(t, msgNoSources, gen.NoSourcesAnswer())
}

func TestContextBudgetDropsLowRankedBlocks(t *testing.T) {
	citations := sampleCitations(3)
	for i := range citations {
		citations[i].Snippet = strings.Repeat("х", 300)
	}

	backend := &recordingBackend{answer: "ok"}
	gen := NewAnswerGenerator(backend, 800)

	gen.Generate(context.Background(), "питання", citations, nil)

	// Only the top block fits; the first one is always kept.
	require.NotEmpty(t, backend.gotBlocks)
	assert.Less(t, len(backend.gotBlocks), 3)
	assert.Contains(t, backend.gotBlocks[0], "[1]")
}

func TestContextBlockWithoutTitleUsesURL(t *testing.T) {
	backend := &recordingBackend{answer: "ok"}
	gen := NewAnswerGenerator(backend, 0)

	gen.Generate(context.Background(), "питання", []domain.Citation{{
		DocumentURL: "https://zakon.test/untitled",
		Snippet:     "фрагмент без назви",
	}}, nil)

	require.Len(t, backend.gotBlocks, 1)
	assert.Contains(t, backend.gotBlocks[0], "[1] https://zakon.test/untitled")
	assert.NotContains(t, backend.gotBlocks[0], "Локація:")
}
