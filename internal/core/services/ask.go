package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driven"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driving"
	"github.com/custodia-labs/rag-cli/internal/logger"
)

// Ensure AskService implements the interface.
var _ driving.AskService = (*AskService)(nil)

// NoAnswer is the reply the model is instructed to give when the context
// does not contain the answer.
const NoAnswer = "I don't have enough information in the provided documents to answer this question."

// SystemPrompt restricts the model to the retrieved context.
const SystemPrompt = `You are a helpful assistant that answers questions based ONLY on the provided context.

Rules:
- Only use information from the provided context to answer.
- If the context does not contain enough information to answer the question, say exactly: "` + NoAnswer + `"
- Do not make up or infer information that is not explicitly stated in the context.
- Cite the source numbers (e.g., [Source 1]) when referencing specific information.`

// contextSeparator joins the numbered sources in the prompt.
const contextSeparator = "\n\n---\n\n"

// AskService answers a question from retrieved chunks.
type AskService struct {
	retriever driving.Retriever
	index     driven.VectorIndex
	llm       driven.LLMService
	maxTokens int
}

// NewAskService creates an ask service. maxTokens of 0 leaves the
// provider default.
func NewAskService(
	retriever driving.Retriever, index driven.VectorIndex, llm driven.LLMService, maxTokens int,
) *AskService {
	return &AskService{retriever: retriever, index: index, llm: llm, maxTokens: maxTokens}
}

// Ask retrieves topK chunks for question and generates an answer grounded
// on them. It fails with domain.ErrIndexEmpty when nothing is indexed and
// domain.ErrNoResults when retrieval finds nothing.
func (s *AskService) Ask(ctx context.Context, question string, topK int) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	count, err := s.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	if count == 0 {
		return nil, domain.ErrIndexEmpty
	}

	results, err := s.retriever.Retrieve(ctx, question, topK)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, domain.ErrNoResults
	}

	defer logger.Stage("Generation")()
	prompt := BuildPrompt(question, results)
	logger.Debug("Prompt: %d characters from %d sources", len(prompt), len(results))

	gen, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		System:    SystemPrompt,
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	logger.Debug("Model %s used %d input and %d output tokens", gen.Model, gen.InputTokens, gen.OutputTokens)

	return &domain.Answer{
		Question:   question,
		Generation: *gen,
		Sources:    results,
	}, nil
}

// BuildContext numbers each result as "[Source i: <source>]" followed by
// its text, joined by horizontal rules.
func BuildContext(results []domain.SearchResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("[Source %d: %s]\n%s", i+1, r.Source(), r.Document)
	}
	return strings.Join(parts, contextSeparator)
}

// BuildPrompt wraps the retrieved context and the question.
func BuildPrompt(question string, results []domain.SearchResult) string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nAnswer based ONLY on the context above.",
		BuildContext(results), question)
}
