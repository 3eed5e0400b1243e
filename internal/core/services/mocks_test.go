package services

import (
	"context"
	"errors"
	"hash/fnv"
	"sort"
	"sync"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driven"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driving"
)

// mockEmbeddingProvider returns a deterministic 4-dimensional vector per
// text and records every batch it receives.
type mockEmbeddingProvider struct {
	mu      sync.Mutex
	batches [][]string
	err     error
	short   bool
}

func (m *mockEmbeddingProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.batches = append(m.batches, append([]string(nil), texts...))
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = fakeVector(t)
	}
	if m.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *mockEmbeddingProvider) Dimensions() int              { return 4 }
func (m *mockEmbeddingProvider) ModelName() string            { return "mock-embed" }
func (m *mockEmbeddingProvider) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingProvider) Close() error                 { return nil }

func (m *mockEmbeddingProvider) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

func (m *mockEmbeddingProvider) embedded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []string
	for _, b := range m.batches {
		all = append(all, b...)
	}
	return all
}

func fakeVector(text string) []float32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	s := h.Sum32()
	return []float32{float32(s&0xff) + 1, float32((s>>8)&0xff) + 1, float32((s>>16)&0xff) + 1, float32(s>>24) + 1}
}

type mockRecord struct {
	document  string
	metadata  map[string]any
	embedding []float32
}

// mockVectorIndex stores records in a map. Query returns records in id
// order with increasing distance.
type mockVectorIndex struct {
	mu      sync.Mutex
	records map[string]mockRecord
	adds    int
	resets  int
	queries []int

	addErr   error
	countErr error
}

func newMockVectorIndex() *mockVectorIndex {
	return &mockVectorIndex{records: make(map[string]mockRecord)}
}

func (m *mockVectorIndex) Add(
	_ context.Context, ids []string, embeddings [][]float32, documents []string, metadatas []map[string]any,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	if len(ids) != len(embeddings) || len(ids) != len(documents) || len(ids) != len(metadatas) {
		return errors.New("length mismatch")
	}
	m.adds++
	for i, id := range ids {
		m.records[id] = mockRecord{document: documents[i], metadata: metadatas[i], embedding: embeddings[i]}
	}
	return nil
}

func (m *mockVectorIndex) Query(_ context.Context, _ []float32, topK int) ([]domain.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, topK)

	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if topK < len(ids) {
		ids = ids[:topK]
	}
	out := make([]domain.SearchResult, len(ids))
	for i, id := range ids {
		r := m.records[id]
		out[i] = domain.SearchResult{ID: id, Document: r.document, Metadata: r.metadata, Distance: float64(i) / 10}
	}
	return out, nil
}

func (m *mockVectorIndex) ExistingIDs(_ context.Context) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]struct{}, len(m.records))
	for id := range m.records {
		out[id] = struct{}{}
	}
	return out, nil
}

func (m *mockVectorIndex) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.records), nil
}

func (m *mockVectorIndex) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
	m.records = make(map[string]mockRecord)
	return nil
}

func (m *mockVectorIndex) DeleteSource(_ context.Context, source string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, r := range m.records {
		if r.metadata[domain.MetadataSource] == source {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

func (m *mockVectorIndex) Close() error { return nil }

// mockRunStore keeps runs newest first.
type mockRunStore struct {
	mu      sync.Mutex
	runs    []domain.IndexRun
	saveErr error
}

func (m *mockRunStore) SaveRun(_ context.Context, run domain.IndexRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.runs = append([]domain.IndexRun{run}, m.runs...)
	return nil
}

func (m *mockRunStore) ListRuns(_ context.Context, limit int) ([]domain.IndexRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > 0 && limit < len(m.runs) {
		return append([]domain.IndexRun(nil), m.runs[:limit]...), nil
	}
	return append([]domain.IndexRun(nil), m.runs...), nil
}

// mockLLM records the last request.
type mockLLM struct {
	prompt string
	opts   driven.GenerateOptions
	calls  int
	reply  string
	err    error
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (*domain.Generation, error) {
	m.calls++
	m.prompt = prompt
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Generation{Text: m.reply, Model: "mock-llm", InputTokens: 42, OutputTokens: 7}, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// mockRetriever returns canned results.
type mockRetriever struct {
	results []domain.SearchResult
	err     error
	query   string
	topK    int
}

func (m *mockRetriever) Retrieve(_ context.Context, query string, topK int) ([]domain.SearchResult, error) {
	m.query = query
	m.topK = topK
	return m.results, m.err
}

// mockConnector serves canned documents, errors and changes.
type mockConnector struct {
	validateErr error
	docs        []domain.RawDocument
	syncErr     error
	changes     chan domain.RawDocumentChange
	watchErr    error
	closed      bool
}

func (m *mockConnector) Validate(_ context.Context) error { return m.validateErr }

func (m *mockConnector) FullSync(_ context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument, len(m.docs))
	errs := make(chan error, 1)
	for _, d := range m.docs {
		docs <- d
	}
	close(docs)
	if m.syncErr != nil {
		errs <- m.syncErr
	}
	close(errs)
	return docs, errs
}

func (m *mockConnector) Watch(_ context.Context) (<-chan domain.RawDocumentChange, error) {
	if m.watchErr != nil {
		return nil, m.watchErr
	}
	return m.changes, nil
}

func (m *mockConnector) Close() error {
	m.closed = true
	return nil
}

// mockNormaliserRegistry handles text/plain and fails on the "broken" type.
type mockNormaliserRegistry struct{}

func (mockNormaliserRegistry) Register(_ driven.Normaliser) {}

func (mockNormaliserRegistry) SupportedMIMETypes() []string { return []string{"text/plain"} }

func (mockNormaliserRegistry) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	switch raw.MIMEType {
	case "text/plain":
	case "broken":
		return nil, errors.New("cannot parse")
	default:
		return nil, domain.ErrUnsupportedType
	}
	return &domain.Document{Content: string(raw.Content), Source: raw.URI}, nil
}

// mockIndexer records Forget and Index calls made by the watcher.
type mockIndexer struct {
	mu        sync.Mutex
	forgotten []string
	indexed   [][]domain.Document
	opts      []domain.IndexOptions
	forgetErr error
}

var _ driving.IndexingService = (*mockIndexer)(nil)

func (m *mockIndexer) Index(_ context.Context, docs []domain.Document, opts domain.IndexOptions) (*domain.IndexSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexed = append(m.indexed, docs)
	m.opts = append(m.opts, opts)
	return &domain.IndexSummary{DocumentsProcessed: len(docs), ChunksTotal: len(docs), ChunksAdded: len(docs)}, nil
}

func (m *mockIndexer) Forget(_ context.Context, source string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forgetErr != nil {
		return 0, m.forgetErr
	}
	m.forgotten = append(m.forgotten, source)
	return 2, nil
}

func (m *mockIndexer) Reset(_ context.Context) error { return nil }

func (m *mockIndexer) Status(_ context.Context) (*domain.IndexStatus, error) {
	return &domain.IndexStatus{}, nil
}
