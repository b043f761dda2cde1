// Package chunker splits normalised document text into overlapping
// chunks sized for embedding.
package chunker

import (
	"iter"
	"strings"

	"github.com/praetor-labs/praetor/internal/core/domain"
	"github.com/praetor-labs/praetor/internal/core/ports/driven"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is how much consecutive chunks share.
	DefaultChunkOverlap = 150

	// boundaryTolerancePct bounds how far back a cut may move to land
	// on a paragraph or sentence boundary, as a percentage of the
	// chunk size.
	boundaryTolerancePct = 15
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// Chunker produces fixed-size overlapping chunks, preferring cuts at
// paragraph and sentence boundaries. Sizes, overlap and spans are all
// measured in characters, so Cyrillic text chunks the same as ASCII.
type Chunker struct {
	size    int
	overlap int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithChunkSize sets the target chunk length.
func WithChunkSize(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.size = n
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks.
func WithOverlap(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlap = n
		}
	}
}

// New creates a Chunker. An overlap at or above the chunk size is
// clamped so every step still advances.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		size:    DefaultChunkSize,
		overlap: DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.size {
		c.overlap = c.size / 2
	}
	return c
}

// Chunks returns a lazy, restartable sequence of chunks covering the
// whole text. Every character of the input belongs to at least one
// chunk; spans are character offsets. SectionRef and SectionTitle come
// from the nearest anchor at or before the chunk start. SequenceIndex
// and DocumentID assignment is left to the caller's storage layer;
// chunks carry their span and index only.
func (c *Chunker) Chunks(text string, anchors []domain.SectionAnchor) iter.Seq[domain.Chunk] {
	return func(yield func(domain.Chunk) bool) {
		if strings.TrimSpace(text) == "" {
			return
		}
		runes := []rune(text)
		n := len(runes)

		window := c.size * boundaryTolerancePct / 100
		start := 0
		seq := 0
		for start < n {
			end := start + c.size
			if end >= n {
				end = n
			} else {
				end = cutPoint(runes, start, end, window)
			}

			piece := strings.TrimSpace(string(runes[start:end]))
			if piece != "" {
				ref, title := sectionAt(anchors, start)
				ok := yield(domain.Chunk{
					SequenceIndex: seq,
					Text:          piece,
					SectionRef:    ref,
					SectionTitle:  title,
					Span:          domain.Span{Start: start, End: end},
				})
				if !ok {
					return
				}
				seq++
			}

			if end >= n {
				return
			}
			next := end - c.overlap
			if next <= start {
				next = start + 1
			}
			start = next
		}
	}
}

// cutPoint moves a raw cut backwards to the closest paragraph break,
// then sentence end, within the tolerance window.
func cutPoint(runes []rune, start, end, window int) int {
	lo := end - window
	if lo <= start {
		lo = start + 1
	}

	for i := end - 1; i > lo; i-- {
		if runes[i] == '\n' && runes[i-1] == '\n' {
			return i + 1
		}
	}

	for i := end - 1; i > lo; i-- {
		if (runes[i] == ' ' || runes[i] == '\n') && sentenceEnd(runes[i-1]) {
			return i + 1
		}
	}

	return end
}

func sentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == ';'
}

// sectionAt returns the ref and title of the last anchor at or before
// the offset. Anchors are ordered by offset.
func sectionAt(anchors []domain.SectionAnchor, off int) (ref, title string) {
	for _, a := range anchors {
		if a.Offset > off {
			break
		}
		ref, title = a.Ref, a.Title
	}
	return ref, title
}
