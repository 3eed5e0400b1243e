// Package storage selects the vector index backend from settings.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/rag-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/rag-cli/internal/adapters/driven/storage/pgvector"
	"github.com/custodia-labs/rag-cli/internal/adapters/driven/storage/qdrant"
	"github.com/custodia-labs/rag-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driven"
	"github.com/custodia-labs/rag-cli/internal/logger"
)

// Backend bundles the index, its run history and their cleanup.
type Backend struct {
	Index driven.VectorIndex
	Runs  driven.IndexRunStore

	closers []func() error
}

// Close releases every resource opened by Open.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open constructs the backend named in settings.
//
// Run history lives next to the index where the backend can hold it. The
// qdrant backend keeps its history in the local SQLite database.
func Open(ctx context.Context, settings domain.IndexSettings) (*Backend, error) {
	collection := settings.Collection
	if collection == "" {
		collection = domain.DefaultCollection
	}
	logger.Debug("opening %s index (collection %s)", settings.Backend, collection)

	switch settings.Backend {
	case domain.BackendSQLite, "":
		store, err := sqlite.NewStore(settings.DataDir)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrVectorIndexUnavailable, err)
		}
		return &Backend{
			Index:   store.VectorIndex(collection),
			Runs:    store.RunStore(collection),
			closers: []func() error{store.Close},
		}, nil

	case domain.BackendMemory:
		return &Backend{
			Index: memory.NewVectorIndex(),
			Runs:  memory.NewRunStore(),
		}, nil

	case domain.BackendPgvector:
		idx, err := pgvector.Open(ctx, settings.DSN, collection)
		if err != nil {
			return nil, err
		}
		runs, err := pgvector.NewRunStore(ctx, idx.DB(), collection)
		if err != nil {
			idx.Close()
			return nil, err
		}
		return &Backend{Index: idx, Runs: runs, closers: []func() error{idx.Close}}, nil

	case domain.BackendQdrant:
		idx, err := qdrant.New(qdrant.Config{URL: settings.URL, APIKey: settings.APIKey, Collection: collection})
		if err != nil {
			return nil, err
		}
		store, err := sqlite.NewStore(settings.DataDir)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrVectorIndexUnavailable, err)
		}
		return &Backend{
			Index:   idx,
			Runs:    store.RunStore(collection),
			closers: []func() error{store.Close, idx.Close},
		}, nil

	default:
		return nil, fmt.Errorf("%w: index backend %q", domain.ErrUnknownProvider, settings.Backend)
	}
}
