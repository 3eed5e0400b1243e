package retry

import (
	"context"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driven"
)

// Ensure wrappers implement the ports.
var (
	_ driven.EmbeddingProvider = (*EmbeddingProvider)(nil)
	_ driven.LLMService        = (*LLMService)(nil)
)

// EmbeddingProvider retries EmbedBatch on transient failures.
type EmbeddingProvider struct {
	driven.EmbeddingProvider
	policy *Policy
}

// WrapEmbedding returns next wrapped with policy.
func WrapEmbedding(next driven.EmbeddingProvider, policy *Policy) *EmbeddingProvider {
	return &EmbeddingProvider{EmbeddingProvider: next, policy: policy}
}

// EmbedBatch implements driven.EmbeddingProvider.
func (e *EmbeddingProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := e.policy.Do(ctx, "embed "+e.ModelName(), func(ctx context.Context) error {
		var err error
		out, err = e.EmbeddingProvider.EmbedBatch(ctx, texts)
		return err
	})
	return out, err
}

// LLMService retries Generate on transient failures.
type LLMService struct {
	driven.LLMService
	policy *Policy
}

// WrapLLM returns next wrapped with policy.
func WrapLLM(next driven.LLMService, policy *Policy) *LLMService {
	return &LLMService{LLMService: next, policy: policy}
}

// Generate implements driven.LLMService.
func (l *LLMService) Generate(
	ctx context.Context, prompt string, opts driven.GenerateOptions,
) (*domain.Generation, error) {
	var out *domain.Generation
	err := l.policy.Do(ctx, "generate "+l.ModelName(), func(ctx context.Context) error {
		var err error
		out, err = l.LLMService.Generate(ctx, prompt, opts)
		return err
	})
	return out, err
}
