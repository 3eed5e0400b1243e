package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driven"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driving"
	"github.com/custodia-labs/rag-cli/internal/logger"
)

// Ensure IndexingPipeline implements the interface.
var _ driving.IndexingService = (*IndexingPipeline)(nil)

// recentRunLimit is the number of runs reported by Status.
const recentRunLimit = 5

// IndexingPipeline incrementally indexes documents: it chunks them,
// skips chunks whose ids are already stored, embeds the rest and stores
// them with a single Add.
type IndexingPipeline struct {
	newChunker driven.ChunkerFactory
	embedder   *Embedder
	index      driven.VectorIndex
	runs       driven.IndexRunStore
	backend    domain.IndexBackend
	collection string
	now        func() time.Time
}

// PipelineOption configures an IndexingPipeline.
type PipelineOption func(*IndexingPipeline)

// WithRunStore records every run in store.
func WithRunStore(store driven.IndexRunStore) PipelineOption {
	return func(p *IndexingPipeline) {
		p.runs = store
	}
}

// WithIndexInfo sets the backend and collection reported by Status.
func WithIndexInfo(backend domain.IndexBackend, collection string) PipelineOption {
	return func(p *IndexingPipeline) {
		p.backend = backend
		p.collection = collection
	}
}

// NewIndexingPipeline creates an indexing pipeline.
func NewIndexingPipeline(
	newChunker driven.ChunkerFactory,
	embedder *Embedder,
	index driven.VectorIndex,
	opts ...PipelineOption,
) *IndexingPipeline {
	p := &IndexingPipeline{
		newChunker: newChunker,
		embedder:   embedder,
		index:      index,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Index chunks docs and stores every chunk not already in the index.
// Nothing is written unless all new chunks embed successfully.
func (p *IndexingPipeline) Index(
	ctx context.Context, docs []domain.Document, opts domain.IndexOptions,
) (*domain.IndexSummary, error) {
	started := p.now()
	run := domain.IndexRun{ID: uuid.NewString(), StartedAt: started, Fresh: opts.Fresh}

	summary, err := p.indexDocuments(ctx, docs, opts, started)
	if err != nil {
		run.Error = err.Error()
	} else {
		run.Summary = *summary
	}
	p.recordRun(ctx, run)
	return summary, err
}

func (p *IndexingPipeline) indexDocuments(
	ctx context.Context, docs []domain.Document, opts domain.IndexOptions, started time.Time,
) (*domain.IndexSummary, error) {
	defer logger.Stage("Indexing")()

	processor, err := p.newChunker(opts.ChunkSize, opts.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	var candidates []domain.Chunk
	for _, doc := range docs {
		candidates = append(candidates, processor.Process(doc)...)
	}
	logger.Debug("Chunked %d documents into %d candidate chunks", len(docs), len(candidates))

	if opts.Fresh {
		logger.Debug("Fresh run, resetting index")
		if err := p.index.Reset(ctx); err != nil {
			return nil, fmt.Errorf("reset index: %w", err)
		}
	}

	existing, err := p.index.ExistingIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list existing ids: %w", err)
	}

	fresh := make([]domain.Chunk, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := existing[c.ID]; !ok {
			fresh = append(fresh, c)
		}
	}
	logger.Debug("%d chunks already indexed, %d new", len(candidates)-len(fresh), len(fresh))

	summary := &domain.IndexSummary{
		DocumentsProcessed: len(docs),
		ChunksTotal:        len(candidates),
	}
	if len(fresh) == 0 {
		summary.Elapsed = p.now().Sub(started)
		logger.Info("Index up to date")
		return summary, nil
	}

	ids := make([]string, len(fresh))
	texts := make([]string, len(fresh))
	metadatas := make([]map[string]any, len(fresh))
	for i, c := range fresh {
		ids[i] = c.ID
		texts[i] = c.Text
		metadatas[i] = c.Metadata()
	}

	embedder := p.embedder
	if opts.Progress != nil {
		embedder = embedder.WithProgress(opts.Progress)
	}
	embeddings, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	if err := p.index.Add(ctx, ids, embeddings, texts, metadatas); err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}

	summary.ChunksAdded = len(fresh)
	summary.Elapsed = p.now().Sub(started)
	logger.Info("Indexed %d new chunks from %d documents in %s",
		summary.ChunksAdded, summary.DocumentsProcessed, summary.Elapsed)
	return summary, nil
}

// Forget removes every stored chunk of source.
func (p *IndexingPipeline) Forget(ctx context.Context, source string) (int, error) {
	n, err := p.index.DeleteSource(ctx, source)
	if err != nil {
		return 0, fmt.Errorf("delete chunks of %s: %w", source, err)
	}
	logger.Debug("Removed %d chunks of %s", n, source)
	return n, nil
}

// Reset deletes every stored record.
func (p *IndexingPipeline) Reset(ctx context.Context) error {
	if err := p.index.Reset(ctx); err != nil {
		return fmt.Errorf("reset index: %w", err)
	}
	return nil
}

// Status reports the record count and the most recent runs.
func (p *IndexingPipeline) Status(ctx context.Context) (*domain.IndexStatus, error) {
	count, err := p.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}

	status := &domain.IndexStatus{
		Backend:    p.backend.String(),
		Collection: p.collection,
		Records:    count,
	}
	if p.runs != nil {
		runs, err := p.runs.ListRuns(ctx, recentRunLimit)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		status.RecentRuns = runs
	}
	return status, nil
}

// recordRun persists run. Failures are logged and never fail the run.
func (p *IndexingPipeline) recordRun(ctx context.Context, run domain.IndexRun) {
	if p.runs == nil {
		return
	}
	if err := p.runs.SaveRun(ctx, run); err != nil {
		logger.Warn("Failed to record index run %s: %v", run.ID, err)
	}
}
