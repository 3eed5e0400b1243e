// Package ai provides factory functions for creating AI service adapters.
//
// Providers are chosen from "provider:model" strings in domain.Settings and
// returned wrapped in the retry policy so callers never see a bare adapter.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/rag-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/rag-cli/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/rag-cli/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/rag-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/rag-cli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/rag-cli/internal/adapters/driven/retry"
	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driven"
	"github.com/custodia-labs/rag-cli/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateEmbeddingProvider builds the embedding provider named by
// settings.EmbeddingModel, wrapped with the retry policy.
func CreateEmbeddingProvider(settings domain.Settings) (driven.EmbeddingProvider, error) {
	p, model := settings.EmbeddingProvider()
	logger.Debug("embedding provider %s, model %s", p, model)

	var (
		svc driven.EmbeddingProvider
		err error
	)
	switch p {
	case domain.AIProviderOllama:
		svc = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.OllamaHost,
			Model:   model,
		})

	case domain.AIProviderOpenAI:
		svc, err = openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey: settings.OpenAIAPIKey,
			Model:  model,
		})

	case domain.AIProviderAnthropic:
		// Anthropic does not offer an embeddings API.
		return nil, fmt.Errorf("%w: anthropic does not support embeddings, use ollama or openai",
			domain.ErrUnknownProvider)

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnknownProvider, p)
	}
	if err != nil {
		return nil, err
	}
	return retry.WrapEmbedding(svc, retry.NewPolicy(settings.Retry)), nil
}

// CreateLLMService builds the LLM named by settings.LLMModel, wrapped with
// the retry policy.
func CreateLLMService(settings domain.Settings) (driven.LLMService, error) {
	p, model := settings.LLMProvider()
	logger.Debug("llm provider %s, model %s", p, model)

	var (
		svc driven.LLMService
		err error
	)
	switch p {
	case domain.AIProviderOllama:
		svc = ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.OllamaHost,
			Model:   model,
		})

	case domain.AIProviderOpenAI:
		svc, err = openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey: settings.OpenAIAPIKey,
			Model:  model,
		})

	case domain.AIProviderAnthropic:
		svc, err = anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey: settings.AnthropicAPIKey,
			Model:  model,
		})

	default:
		return nil, fmt.Errorf("%w: LLM provider %q", domain.ErrUnknownProvider, p)
	}
	if err != nil {
		return nil, err
	}
	return retry.WrapLLM(svc, retry.NewPolicy(settings.Retry)), nil
}

// Pinger is implemented by every provider adapter.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check pings svc with a short timeout and wraps failures with unavailable.
func Check(ctx context.Context, svc Pinger, unavailable error) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", unavailable, err)
	}
	return nil
}
