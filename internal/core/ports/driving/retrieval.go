package driving

import (
	"context"

	"github.com/praetor-labs/praetor/internal/core/domain"
)

// Retriever embeds a question, queries the vector store and ranks and
// trims results into a citation set. An empty result signals that
// nothing relevant was ingested.
type Retriever interface {
	Retrieve(ctx context.Context, question string, maxCitations int) ([]domain.Citation, error)
}
