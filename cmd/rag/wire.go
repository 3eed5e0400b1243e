package main

import (
	"context"
	"errors"

	"github.com/custodia-labs/rag-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/rag-cli/internal/adapters/driven/storage"
	"github.com/custodia-labs/rag-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/rag-cli/internal/connectors/filesystem"
	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driven"
	"github.com/custodia-labs/rag-cli/internal/core/services"
	"github.com/custodia-labs/rag-cli/internal/logger"
	"github.com/custodia-labs/rag-cli/internal/normalisers"
	"github.com/custodia-labs/rag-cli/internal/postprocessors/chunker"
)

// newConnector opens the filesystem connector for a directory.
func newConnector(root string) driven.Connector {
	return filesystem.New(root)
}

// buildServices is the composition root. It opens the vector index and
// creates providers only when the command needs them, so commands such as
// status work without API keys.
func buildServices(ctx context.Context, settings domain.Settings, need cli.Need) (*cli.Services, func() error, error) {
	backend, err := storage.Open(ctx, settings.Index)
	if err != nil {
		return nil, nil, err
	}
	fail := func(err error) (*cli.Services, func() error, error) {
		return nil, nil, errors.Join(err, backend.Close())
	}

	var embedder *services.Embedder
	if need.Has(cli.NeedEmbedding) {
		provider, err := ai.CreateEmbeddingProvider(settings)
		if err != nil {
			return fail(err)
		}
		embedder = services.NewEmbedder(provider, settings.EmbeddingBatch)
	}

	pipeline := services.NewIndexingPipeline(
		chunker.NewFactory(),
		embedder,
		backend.Index,
		services.WithRunStore(backend.Runs),
		services.WithIndexInfo(settings.Index.Backend, settings.Index.Collection),
	)
	s := &cli.Services{Indexing: pipeline}

	if embedder != nil {
		loader := services.NewDocumentLoader(newConnector, normalisers.Default())
		retriever := services.NewRetriever(embedder, backend.Index)
		s.Loader = loader
		s.Watcher = services.NewWatcher(newConnector, loader, pipeline)
		s.Retriever = retriever

		if need.Has(cli.NeedLLM) {
			llm, err := ai.CreateLLMService(settings)
			if err != nil {
				return fail(err)
			}
			s.Ask = services.NewAskService(retriever, backend.Index, llm, settings.MaxTokens)
		}
	}

	logger.Debug("services ready (index=%t embedding=%t llm=%t)",
		need.Has(cli.NeedIndex), embedder != nil, s.Ask != nil)
	return s, backend.Close, nil
}
