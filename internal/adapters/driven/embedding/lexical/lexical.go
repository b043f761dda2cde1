// Package lexical provides a deterministic, offline embedding service.
// It hashes tokens and token bigrams into a fixed-dimension bag vector.
// Retrieval quality is lexical overlap rather than semantic similarity,
// which keeps the system usable when no embedding API is configured.
// The choice is corpus-wide; vectors from this model and an API model
// never mix.
package lexical

import (
	"context"
	"hash/fnv"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/praetor-labs/praetor/internal/core/ports/driven"
)

// DefaultDimensions is the vector size used when none is given.
const DefaultDimensions = 512

// modelName is persisted as the corpus model_id, with the dimension
// baked in so a resized embedder counts as a different model.
const modelNamePrefix = "lexical-hash-"

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService embeds text as an L2-normalised hashed bag of tokens
// and bigrams. Stateless and deterministic.
type EmbeddingService struct {
	dimensions int
	name       string
}

// New creates a lexical embedding service with the given dimension.
// Non-positive dimensions fall back to the default.
func New(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{
		dimensions: dimensions,
		name:       modelNamePrefix + strconv.Itoa(dimensions),
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	return s.vector(text), nil
}

// EmbedBatch generates embeddings for multiple texts, preserving order.
func (s *EmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = s.vector(t)
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName identifies the embedder and its dimension.
func (s *EmbeddingService) ModelName() string {
	return s.name
}

func (s *EmbeddingService) vector(text string) []float32 {
	vec := make([]float32, s.dimensions)
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return vec
	}

	for i, tok := range tokens {
		vec[bucket(tok, s.dimensions)]++
		if i+1 < len(tokens) {
			vec[bucket(tok+" "+tokens[i+1], s.dimensions)]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

// tokenize lowercases and splits on non-letter, non-digit runes.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func bucket(token string, dimensions int) int {
	h := fnv.New32a()
	h.Write([]byte(token))
	return int(h.Sum32() % uint32(dimensions))
}
