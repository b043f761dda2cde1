package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/praetor-labs/praetor/internal/core/domain"
	"github.com/praetor-labs/praetor/internal/core/ports/driven"
	"github.com/praetor-labs/praetor/internal/logger"
)

// fallbackTopSnippets bounds how many snippets a degraded answer quotes.
const fallbackTopSnippets = 3

// User-facing Ukrainian strings for degraded answers.
const (
	msgNoSources = "Недостатньо релевантних джерел у базі знань, щоб відповісти на це питання. " +
		"Спробуйте додати відповідні нормативно-правові акти."
	msgBackendFailed = "Не вдалося сформувати повну відповідь. Найрелевантніші знайдені фрагменти:"
)

// AnswerGenerator turns a question plus citations into answer text.
// With a generative backend it synthesises a grounded answer; without
// one, or when the backend fails, it degrades to quoting the top
// snippets instead of failing the turn.
type AnswerGenerator struct {
	backend         driven.AnswerBackend // nil in degraded mode
	maxContextChars int
}

// NewAnswerGenerator creates an answer generator. backend may be nil.
func NewAnswerGenerator(backend driven.AnswerBackend, maxContextChars int) *AnswerGenerator {
	if maxContextChars <= 0 {
		maxContextChars = 14000
	}
	return &AnswerGenerator{
		backend:         backend,
		maxContextChars: maxContextChars,
	}
}

// Generate produces the answer text for a question and its evidence.
// citations must be non-empty; the no-evidence path is the caller's.
func (g *AnswerGenerator) Generate(ctx context.Context, question string, citations []domain.Citation, history []driven.ChatMessage) string {
	if len(citations) == 0 {
		return msgNoSources
	}
	if g.backend == nil {
		return fallbackAnswer(citations)
	}

	blocks := g.contextBlocks(citations)
	answer, err := g.backend.Answer(ctx, question, blocks, history)
	if err != nil {
		logger.Warn().Err(err).Msg("answer backend failed, degrading to snippets")
		return fallbackAnswer(citations)
	}
	if strings.TrimSpace(answer) == "" {
		return fallbackAnswer(citations)
	}
	return answer
}

// NoSourcesAnswer is the user-facing text for an empty evidence set.
func (g *AnswerGenerator) NoSourcesAnswer() string {
	return msgNoSources
}

// contextBlocks renders numbered evidence blocks within the context
// character budget. Citations arrive rank-ordered, so the budget drops
// the least relevant ones first.
func (g *AnswerGenerator) contextBlocks(citations []domain.Citation) []string {
	var blocks []string
	used := 0
	for i, c := range citations {
		var sb strings.Builder
		fmt.Fprintf(&sb, "[%d] %s\n", i+1, titleOrURL(c))
		if c.SectionRef != "" {
			fmt.Fprintf(&sb, "Локація: %s\n", c.SectionRef)
		}
		fmt.Fprintf(&sb, "URL: %s\n", c.DocumentURL)
		fmt.Fprintf(&sb, "Фрагмент:\n%s", c.Snippet)

		block := sb.String()
		if used+len(block) > g.maxContextChars && len(blocks) > 0 {
			break
		}
		used += len(block)
		blocks = append(blocks, block)
	}
	return blocks
}

// fallbackAnswer assembles a deterministic answer from top snippets.
func fallbackAnswer(citations []domain.Citation) string {
	n := min(len(citations), fallbackTopSnippets)

	var sb strings.Builder
	sb.WriteString(msgBackendFailed)
	for i := 0; i < n; i++ {
		c := citations[i]
		fmt.Fprintf(&sb, "\n\n%d. %s", i+1, c.Snippet)
		if loc := citationLocation(c); loc != "" {
			fmt.Fprintf(&sb, "\n(%s)", loc)
		}
	}
	return sb.String()
}

func titleOrURL(c domain.Citation) string {
	if c.Title != "" {
		return c.Title
	}
	return c.DocumentURL
}

func citationLocation(c domain.Citation) string {
	switch {
	case c.Title != "" && c.SectionRef != "":
		return c.Title + ", " + c.SectionRef
	case c.Title != "":
		return c.Title
	case c.SectionRef != "":
		return c.SectionRef
	default:
		return c.DocumentURL
	}
}
