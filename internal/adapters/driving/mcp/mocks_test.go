package mcp

import (
	"context"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
)

// mockRetriever is a mock implementation of driving.Retriever.
type mockRetriever struct {
	results []domain.SearchResult
	err     error

	gotQuery string
	gotTopK  int
}

func (m *mockRetriever) Retrieve(_ context.Context, query string, topK int) ([]domain.SearchResult, error) {
	m.gotQuery = query
	m.gotTopK = topK
	return m.results, m.err
}

// mockAskService is a mock implementation of driving.AskService.
type mockAskService struct {
	answer *domain.Answer
	err    error

	gotTopK int
}

func (m *mockAskService) Ask(_ context.Context, _ string, topK int) (*domain.Answer, error) {
	m.gotTopK = topK
	return m.answer, m.err
}

// mockIndexingService is a mock implementation of driving.IndexingService.
type mockIndexingService struct {
	status *domain.IndexStatus
	err    error
}

func (m *mockIndexingService) Index(
	_ context.Context, _ []domain.Document, _ domain.IndexOptions,
) (*domain.IndexSummary, error) {
	return &domain.IndexSummary{}, m.err
}

func (m *mockIndexingService) Forget(_ context.Context, _ string) (int, error) {
	return 0, m.err
}

func (m *mockIndexingService) Reset(_ context.Context) error {
	return m.err
}

func (m *mockIndexingService) Status(_ context.Context) (*domain.IndexStatus, error) {
	return m.status, m.err
}

func sampleResults() []domain.SearchResult {
	return []domain.SearchResult{
		{
			ID:       "a1b2c3d4e5f60718",
			Document: "Refunds are issued within 14 days.",
			Metadata: map[string]any{domain.MetadataSource: "docs/policy.md", domain.MetadataChunkIndex: 2},
			Distance: 0.12,
		},
		{
			ID:       "0f1e2d3c4b5a6978",
			Document: "Orphan chunk without metadata.",
			Distance: 0.48,
		},
	}
}
