package driven

import (
	"context"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
)

// Connector reads raw documents from a local directory tree.
type Connector interface {
	// Validate checks the root exists and is a readable directory.
	Validate(ctx context.Context) error

	// FullSync reads every supported document in deterministic order.
	// Both channels are closed when the walk finishes.
	FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// Watch streams changes until ctx is cancelled.
	Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error)

	// Close releases resources.
	Close() error
}
