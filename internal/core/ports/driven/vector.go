package driven

import (
	"context"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
)

// VectorIndex is a content-addressed store of (id, text, metadata, embedding)
// records queryable by nearest-neighbour distance.
type VectorIndex interface {
	// Add upserts one record per position. All four slices must have the
	// same length. A nil or empty metadata entry is stored as no metadata.
	Add(ctx context.Context, ids []string, embeddings [][]float32, documents []string, metadatas []map[string]any) error

	// Query returns up to topK records ordered by ascending distance.
	// An empty index yields an empty slice.
	Query(ctx context.Context, embedding []float32, topK int) ([]domain.SearchResult, error)

	// ExistingIDs returns every stored id.
	ExistingIDs(ctx context.Context) (map[string]struct{}, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Reset deletes every record.
	Reset(ctx context.Context) error

	// DeleteSource deletes every record whose metadata source matches.
	// Returns the number of records removed.
	DeleteSource(ctx context.Context, source string) (int, error)

	// Close releases resources.
	Close() error
}

// IndexRunStore persists the history of indexing passes.
type IndexRunStore interface {
	// SaveRun records a completed or failed run.
	SaveRun(ctx context.Context, run domain.IndexRun) error

	// ListRuns returns up to limit runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]domain.IndexRun, error)
}
