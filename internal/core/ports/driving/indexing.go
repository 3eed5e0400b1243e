package driving

import (
	"context"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
)

// IndexingService incrementally indexes documents into the vector index.
type IndexingService interface {
	// Index chunks, deduplicates, embeds and stores docs.
	// Re-indexing unchanged documents performs no embedding calls.
	Index(ctx context.Context, docs []domain.Document, opts domain.IndexOptions) (*domain.IndexSummary, error)

	// Forget removes every stored chunk of a source.
	Forget(ctx context.Context, source string) (int, error)

	// Reset deletes every stored record.
	Reset(ctx context.Context) error

	// Status reports the index size and recent runs.
	Status(ctx context.Context) (*domain.IndexStatus, error)
}

// DocumentLoader reads documents from a directory tree.
type DocumentLoader interface {
	// Load returns every non-blank supported document under root in
	// deterministic order.
	Load(ctx context.Context, root string) ([]domain.Document, error)
}

// WatchEvent reports one re-indexing pass triggered by file changes.
type WatchEvent struct {
	// Changes lists the affected sources.
	Changes []domain.RawDocumentChange

	// Removed is the number of stale chunks deleted.
	Removed int

	// Summary is the indexing outcome, nil when Err is set.
	Summary *domain.IndexSummary

	// Err is the failure of this pass. Watching continues after errors.
	Err error
}

// WatchService keeps the index in sync with a directory tree.
type WatchService interface {
	// Watch blocks until ctx is cancelled, re-indexing changed files and
	// reporting each pass to notify.
	Watch(ctx context.Context, root string, opts domain.IndexOptions, notify func(WatchEvent)) error
}
