package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"the text to find similar passages for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of passages to return (default 3)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Results []PassageOutput `json:"results"`
	Count   int             `json:"count"`
}

// PassageOutput is one retrieved chunk.
type PassageOutput struct {
	ID         string  `json:"id"`
	Source     string  `json:"source"`
	ChunkIndex int     `json:"chunk_index"`
	Distance   float64 `json:"distance"`
	Content    string  `json:"content"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the indexed documents"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of passages used as context (default 3)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer       string          `json:"answer"`
	Model        string          `json:"model"`
	InputTokens  int             `json:"input_tokens"`
	OutputTokens int             `json:"output_tokens"`
	Sources      []PassageOutput `json:"sources"`
}

// StatusInput is the empty input of the index_status tool.
type StatusInput struct{}

// StatusOutput is the output schema for the index_status tool.
type StatusOutput struct {
	Backend    string `json:"backend"`
	Collection string `json:"collection"`
	Records    int    `json:"records"`
	LastRun    string `json:"last_run,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Find the indexed passages most similar to a query, ordered by ascending distance",
	}, s.handleRetrieve)

	if s.ports.Ask != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question using only passages retrieved from the indexed documents",
		}, s.handleAsk)
	}

	if s.ports.Indexing != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "index_status",
			Description: "Report the vector index backend, record count and last indexing run",
		}, s.handleStatus)
	}
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, RetrieveOutput{}, ErrEmptyQuery
	}

	results, err := s.ports.Retriever.Retrieve(ctx, query, topKOrDefault(input.TopK))
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	return nil, RetrieveOutput{
		Results: passages(results),
		Count:   len(results),
	}, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, AskOutput{}, ErrEmptyQuery
	}

	answer, err := s.ports.Ask.Ask(ctx, question, topKOrDefault(input.TopK))
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:       answer.Generation.Text,
		Model:        answer.Generation.Model,
		InputTokens:  answer.Generation.InputTokens,
		OutputTokens: answer.Generation.OutputTokens,
		Sources:      passages(answer.Sources),
	}, nil
}

// handleStatus handles the index_status tool invocation.
func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	status, err := s.ports.Indexing.Status(ctx)
	if err != nil {
		return nil, StatusOutput{}, err
	}

	out := StatusOutput{
		Backend:    status.Backend,
		Collection: status.Collection,
		Records:    status.Records,
	}
	if len(status.RecentRuns) > 0 {
		out.LastRun = status.RecentRuns[0].StartedAt.UTC().Format(time.RFC3339)
	}
	return nil, out, nil
}

func topKOrDefault(k int) int {
	if k <= 0 {
		return domain.DefaultTopK
	}
	return k
}

func passages(results []domain.SearchResult) []PassageOutput {
	out := make([]PassageOutput, len(results))
	for i, r := range results {
		out[i] = PassageOutput{
			ID:         r.ID,
			Source:     r.Source(),
			ChunkIndex: chunkIndex(r.Metadata),
			Distance:   r.Distance,
			Content:    r.Document,
		}
	}
	return out
}

// chunkIndex reads the chunk position, which backends may decode as any
// numeric type.
func chunkIndex(md map[string]any) int {
	switch v := md[domain.MetadataChunkIndex].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
