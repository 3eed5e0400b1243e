package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driven"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driving"
	"github.com/custodia-labs/rag-cli/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.Retriever = (*Retriever)(nil)

// Retriever embeds a query and returns the nearest stored chunks.
// Results are returned exactly as the index orders them.
type Retriever struct {
	embedder *Embedder
	index    driven.VectorIndex
}

// NewRetriever creates a retriever.
func NewRetriever(embedder *Embedder, index driven.VectorIndex) *Retriever {
	return &Retriever{embedder: embedder, index: index}
}

// Retrieve returns up to topK results ordered by ascending distance.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	defer logger.Stage("Retrieval")()
	logger.Debug("Query: %q, top_k: %d", query, topK)

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := r.index.Query(ctx, vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	logger.Debug("Retrieved %d results", len(results))
	return results, nil
}
