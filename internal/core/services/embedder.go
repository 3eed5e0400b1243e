package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driven"
	"github.com/custodia-labs/rag-cli/internal/logger"
)

// DefaultEmbeddingBatchSize is the largest number of texts sent per provider call.
const DefaultEmbeddingBatchSize = domain.DefaultEmbeddingBatch

// ProgressFunc reports embedding progress after each batch.
type ProgressFunc func(done, total int)

// Embedder wraps an embedding provider and splits large inputs into
// sequential provider calls. It does not retry; retries belong to the
// provider wrapper.
type Embedder struct {
	provider  driven.EmbeddingProvider
	batchSize int
	progress  ProgressFunc
}

// NewEmbedder creates an embedder. A non-positive batchSize uses
// DefaultEmbeddingBatchSize.
func NewEmbedder(provider driven.EmbeddingProvider, batchSize int) *Embedder {
	if batchSize <= 0 {
		batchSize = DefaultEmbeddingBatchSize
	}
	return &Embedder{provider: provider, batchSize: batchSize}
}

// WithProgress returns a copy of the embedder that reports progress to fn.
func (e *Embedder) WithProgress(fn ProgressFunc) *Embedder {
	cp := *e
	cp.progress = fn
	return &cp
}

// BatchSize returns the configured batch size.
func (e *Embedder) BatchSize() int {
	return e.batchSize
}

// Embed returns one vector per text in input order. An empty input
// returns an empty result without calling the provider.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, 0, len(texts))
	batches := Batches(texts, e.batchSize)
	for i, batch := range batches {
		logger.Debug("Embedding batch %d/%d (%d texts)", i+1, len(batches), len(batch))

		out, err := e.provider.EmbedBatch(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embed batch %d/%d: %w", i+1, len(batches), err)
		}
		if len(out) != len(batch) {
			return nil, fmt.Errorf("embed batch %d/%d: %w: got %d vectors for %d texts",
				i+1, len(batches), domain.ErrEmbeddingUnavailable, len(out), len(batch))
		}
		vectors = append(vectors, out...)

		if e.progress != nil {
			e.progress(len(vectors), len(texts))
		}
	}
	return vectors, nil
}
