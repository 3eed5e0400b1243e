package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driving"
)

// MockIndexingService implements driving.IndexingService for testing.
type MockIndexingService struct {
	IndexFunc  func(ctx context.Context, docs []domain.Document, opts domain.IndexOptions) (*domain.IndexSummary, error)
	StatusFunc func(ctx context.Context) (*domain.IndexStatus, error)
	ResetErr   error

	LastDocs    []domain.Document
	LastOpts    domain.IndexOptions
	ResetCalled bool
}

func (m *MockIndexingService) Index(
	ctx context.Context, docs []domain.Document, opts domain.IndexOptions,
) (*domain.IndexSummary, error) {
	m.LastDocs = docs
	m.LastOpts = opts
	if m.IndexFunc != nil {
		return m.IndexFunc(ctx, docs, opts)
	}
	return &domain.IndexSummary{
		DocumentsProcessed: len(docs),
		ChunksTotal:        len(docs),
		ChunksAdded:        len(docs),
	}, nil
}

func (m *MockIndexingService) Forget(_ context.Context, _ string) (int, error) {
	return 0, nil
}

func (m *MockIndexingService) Reset(_ context.Context) error {
	m.ResetCalled = true
	return m.ResetErr
}

func (m *MockIndexingService) Status(ctx context.Context) (*domain.IndexStatus, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx)
	}
	return &domain.IndexStatus{Backend: "memory", Collection: domain.DefaultCollection}, nil
}

// MockDocumentLoader implements driving.DocumentLoader for testing.
type MockDocumentLoader struct {
	Docs     []domain.Document
	Err      error
	LastRoot string
}

func (m *MockDocumentLoader) Load(_ context.Context, root string) ([]domain.Document, error) {
	m.LastRoot = root
	return m.Docs, m.Err
}

// MockWatchService implements driving.WatchService for testing. It emits
// Events and returns without blocking.
type MockWatchService struct {
	Events   []driving.WatchEvent
	Err      error
	LastOpts domain.IndexOptions
}

func (m *MockWatchService) Watch(
	_ context.Context, _ string, opts domain.IndexOptions, notify func(driving.WatchEvent),
) error {
	m.LastOpts = opts
	for _, ev := range m.Events {
		notify(ev)
	}
	return m.Err
}

// MockRetriever implements driving.Retriever for testing.
type MockRetriever struct {
	Results   []domain.SearchResult
	Err       error
	LastQuery string
	LastTopK  int
}

func (m *MockRetriever) Retrieve(_ context.Context, query string, topK int) ([]domain.SearchResult, error) {
	m.LastQuery = query
	m.LastTopK = topK
	return m.Results, m.Err
}

// MockAskService implements driving.AskService for testing.
type MockAskService struct {
	Answer       *domain.Answer
	Err          error
	LastQuestion string
	LastTopK     int
}

func (m *MockAskService) Ask(_ context.Context, question string, topK int) (*domain.Answer, error) {
	m.LastQuestion = question
	m.LastTopK = topK
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Answer != nil {
		return m.Answer, nil
	}
	return &domain.Answer{
		Question:   question,
		Generation: domain.Generation{Text: "mock answer", Model: "mock-model", InputTokens: 10, OutputTokens: 3},
	}, nil
}

// testServices holds the mocks injected by setupTestServices.
type testServices struct {
	Indexing  *MockIndexingService
	Loader    *MockDocumentLoader
	Watcher   *MockWatchService
	Retriever *MockRetriever
	Ask       *MockAskService

	// Env is the environment seen by the config loader.
	Env map[string]string

	// Dir holds the config file and .env of the test.
	Dir string
}

// ConfigFile returns the config file path used by the test.
func (s *testServices) ConfigFile() string {
	return filepath.Join(s.Dir, "config.toml")
}

// setupTestServices injects mock services and isolates configuration in
// a temporary directory. Everything is restored when the test ends.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	dir := t.TempDir()
	s := &testServices{
		Indexing:  &MockIndexingService{},
		Loader:    &MockDocumentLoader{},
		Watcher:   &MockWatchService{},
		Retriever: &MockRetriever{},
		Ask:       &MockAskService{},
		Dir:       dir,
	}
	s.Env = map[string]string{ConfigEnv: s.ConfigFile()}

	prevLookup, prevDotEnv, prevFactory := lookupEnv, dotEnvPath, serviceFactory
	lookupEnv = func(key string) (string, bool) {
		v, ok := s.Env[key]
		return v, ok
	}
	dotEnvPath = filepath.Join(dir, ".env")
	serviceFactory = nil
	SetServices(&Services{
		Indexing:  s.Indexing,
		Loader:    s.Loader,
		Watcher:   s.Watcher,
		Retriever: s.Retriever,
		Ask:       s.Ask,
	})

	t.Cleanup(func() {
		lookupEnv, dotEnvPath, serviceFactory = prevLookup, prevDotEnv, prevFactory
		SetServices(nil)
		closeServices()
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		resolved = nil
		configStore = nil
		servicesChecked = false
	})
	return s
}

// resetFlags restores every flag to its default so that values do not
// leak between tests sharing rootCmd.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// executeCommand runs rootCmd with args and returns the combined output.
func executeCommand(args ...string) (string, error) {
	return executeCommandWithInput("", args...)
}

// executeCommandWithInput runs rootCmd with args reading stdin from input.
func executeCommandWithInput(input string, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return buf.String(), err
}

func sampleResults() []domain.SearchResult {
	return []domain.SearchResult{
		{
			ID:       "a1",
			Document: "Refunds are issued within 14 days of purchase.",
			Metadata: map[string]any{domain.MetadataSource: "docs/refunds.md", domain.MetadataChunkIndex: 0},
			Distance: 0.1234,
		},
		{
			ID:       "b2",
			Document: "Shipping takes   three to five\nbusiness days.",
			Metadata: map[string]any{domain.MetadataSource: "docs/shipping.txt", domain.MetadataChunkIndex: 2},
			Distance: 0.4567,
		},
	}
}
