package driven

import (
	"context"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
)

// LLMService generates text from a prompt.
type LLMService interface {
	// Generate produces a completion for prompt under the optional
	// system instruction in opts.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (*domain.Generation, error)

	// ModelName returns the model identifier.
	ModelName() string

	// Ping checks the provider is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures a generation request.
type GenerateOptions struct {
	// System is the system instruction, empty for none.
	System string

	// MaxTokens limits the response length, 0 for the provider default.
	MaxTokens int

	// Temperature controls randomness (0.0-1.0).
	Temperature float64
}
