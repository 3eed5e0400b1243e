package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rag-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/rag-cli/internal/core/domain"
)

// fakeOllama serves /api/embed with a vector derived from the text length
// and /api/chat with a fixed answer.
func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/embed":
			var req struct {
				Input []string `json:"input"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			embeddings := make([][]float32, len(req.Input))
			for i, text := range req.Input {
				embeddings[i] = []float32{float32(len(text)), 1, 0.5}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"model": "fake-embed", "embeddings": embeddings})
		case "/api/chat":
			_, _ = w.Write([]byte(`{"model":"fake-llm","message":{"role":"assistant","content":"Fourteen days."},` +
				`"done":true,"prompt_eval_count":42,"eval_count":3}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func ollamaSettings(host string) domain.Settings {
	s := domain.DefaultSettings()
	s.EmbeddingModel = "ollama:fake-embed"
	s.LLMModel = "ollama:fake-llm"
	s.OllamaHost = host
	s.Index.Backend = domain.BackendMemory
	s.ChunkSize = 200
	s.ChunkOverlap = 20
	return s
}

func TestBuildServices_IndexOnly(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.Index.Backend = domain.BackendMemory
	settings.EmbeddingModel = "openai:text-embedding-3-small"
	settings.OpenAIAPIKey = ""

	s, closeFn, err := buildServices(context.Background(), settings, cli.NeedIndex)
	require.NoError(t, err)
	defer func() { assert.NoError(t, closeFn()) }()

	require.NotNil(t, s.Indexing)
	assert.Nil(t, s.Retriever)
	assert.Nil(t, s.Loader)
	assert.Nil(t, s.Ask)

	status, err := s.Indexing.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "memory", status.Backend)
	assert.Zero(t, status.Records)
}

func TestBuildServices_MissingEmbeddingKey(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.Index.Backend = domain.BackendMemory
	settings.EmbeddingModel = "openai:text-embedding-3-small"

	_, _, err := buildServices(context.Background(), settings, cli.NeedIndex|cli.NeedEmbedding)

	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)
}

func TestBuildServices_MissingLLMKey(t *testing.T) {
	srv := fakeOllama(t)
	settings := ollamaSettings(srv.URL)
	settings.LLMModel = "anthropic:claude-3-5-sonnet-latest"

	_, _, err := buildServices(context.Background(), settings, cli.NeedIndex|cli.NeedEmbedding|cli.NeedLLM)

	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)
}

func TestBuildServices_IndexRetrieveAsk(t *testing.T) {
	srv := fakeOllama(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "refunds.txt"),
		[]byte("Refunds are issued within fourteen days of purchase."), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shipping.md"),
		[]byte("# Shipping\n\nOrders ship in three to five business days."), 0o600))

	ctx := context.Background()
	s, closeFn, err := buildServices(ctx, ollamaSettings(srv.URL), cli.NeedIndex|cli.NeedEmbedding|cli.NeedLLM)
	require.NoError(t, err)
	defer func() { assert.NoError(t, closeFn()) }()

	docs, err := s.Loader.Load(ctx, dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	opts := domain.IndexOptions{ChunkSize: 200, ChunkOverlap: 20}
	summary, err := s.Indexing.Index(ctx, docs, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.DocumentsProcessed)
	assert.Equal(t, 2, summary.ChunksAdded)

	again, err := s.Indexing.Index(ctx, docs, opts)
	require.NoError(t, err)
	assert.True(t, again.UpToDate())

	results, err := s.Retriever.Retrieve(ctx, "refunds", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	answer, err := s.Ask.Ask(ctx, "How long do refunds take?", 2)
	require.NoError(t, err)
	assert.Equal(t, "Fourteen days.", answer.Generation.Text)
	assert.Equal(t, "fake-llm", answer.Generation.Model)
	assert.Len(t, answer.Sources, 2)

	status, err := s.Indexing.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, status.Records)
	assert.Len(t, status.RecentRuns, 2)
}
