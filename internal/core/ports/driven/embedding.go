package driven

import "context"

// EmbeddingProvider generates vector embeddings for text.
// Implementations call an external service and classify failures with
// domain.ProviderError so callers can tell transient from fatal errors.
type EmbeddingProvider interface {
	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size, 0 when unknown.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Ping checks the provider is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
