package driving

import (
	"context"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
)

// Retriever answers similarity queries against the vector index.
type Retriever interface {
	// Retrieve returns up to topK results ordered by ascending distance.
	Retrieve(ctx context.Context, query string, topK int) ([]domain.SearchResult, error)
}

// AskService answers questions grounded on retrieved context.
type AskService interface {
	// Ask retrieves topK chunks and generates an answer from them.
	Ask(ctx context.Context, question string, topK int) (*domain.Answer, error)
}
