// Package storagetest provides a behavioural test suite shared by every
// driven.VectorIndex and driven.IndexRunStore implementation.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driven"
)

// OpenFunc returns a fresh, empty index for one subtest.
type OpenFunc func(t *testing.T) driven.VectorIndex

func md(source string, index int) map[string]any {
	return map[string]any{domain.MetadataSource: source, domain.MetadataChunkIndex: index}
}

// RunVectorIndexTests exercises the VectorIndex contract.
func RunVectorIndexTests(t *testing.T, open OpenFunc) {
	ctx := context.Background()

	t.Run("empty index", func(t *testing.T) {
		idx := open(t)

		n, err := idx.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		ids, err := idx.ExistingIDs(ctx)
		require.NoError(t, err)
		assert.Empty(t, ids)

		results, err := idx.Query(ctx, []float32{1, 0, 0}, 3)
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})

	t.Run("add and query by ascending distance", func(t *testing.T) {
		idx := open(t)
		require.NoError(t, idx.Add(ctx,
			[]string{"paris", "berlin", "cooking"},
			[][]float32{{1, 0.1, 0}, {0.7, 0.7, 0}, {0, 0, 1}},
			[]string{"Paris is the capital of France.", "Berlin is in Germany.", "Boil pasta for ten minutes."},
			[]map[string]any{md("geo.txt", 0), md("geo.txt", 1), md("food.txt", 0)},
		))

		results, err := idx.Query(ctx, []float32{1, 0, 0}, 2)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "paris", results[0].ID)
		assert.Equal(t, "berlin", results[1].ID)
		assert.LessOrEqual(t, results[0].Distance, results[1].Distance)
		assert.Equal(t, "Paris is the capital of France.", results[0].Document)
		assert.Equal(t, "geo.txt", results[0].Source())
	})

	t.Run("fewer records than top k", func(t *testing.T) {
		idx := open(t)
		require.NoError(t, idx.Add(ctx, []string{"a"}, [][]float32{{1, 0}}, []string{"a"}, []map[string]any{md("a", 0)}))

		results, err := idx.Query(ctx, []float32{1, 0}, 10)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("upsert replaces existing id", func(t *testing.T) {
		idx := open(t)
		require.NoError(t, idx.Add(ctx, []string{"a"}, [][]float32{{1, 0}}, []string{"old"}, []map[string]any{md("a", 0)}))
		require.NoError(t, idx.Add(ctx, []string{"a"}, [][]float32{{0, 1}}, []string{"new"}, []map[string]any{md("a", 0)}))

		n, err := idx.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		results, err := idx.Query(ctx, []float32{0, 1}, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "new", results[0].Document)
		assert.InDelta(t, 0.0, results[0].Distance, 1e-4)
	})

	t.Run("missing metadata is tolerated", func(t *testing.T) {
		idx := open(t)
		require.NoError(t, idx.Add(ctx,
			[]string{"a", "b"},
			[][]float32{{1, 0}, {0, 1}},
			[]string{"a", "b"},
			[]map[string]any{nil, {}},
		))

		results, err := idx.Query(ctx, []float32{1, 0}, 2)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Empty(t, results[0].Metadata)
		assert.Equal(t, "unknown", results[0].Source())
	})

	t.Run("mismatched lengths rejected", func(t *testing.T) {
		idx := open(t)
		err := idx.Add(ctx, []string{"a", "b"}, [][]float32{{1, 0}}, []string{"a", "b"}, []map[string]any{nil, nil})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("dimension change rejected until reset", func(t *testing.T) {
		idx := open(t)
		require.NoError(t, idx.Add(ctx, []string{"a"}, [][]float32{{1, 0, 0}}, []string{"a"}, []map[string]any{md("a", 0)}))

		err := idx.Add(ctx, []string{"b"}, [][]float32{{0, 1}}, []string{"b"}, []map[string]any{md("b", 0)})
		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

		n, err := idx.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		require.NoError(t, idx.Reset(ctx))
		require.NoError(t, idx.Add(ctx, []string{"b"}, [][]float32{{0, 1}}, []string{"b"}, []map[string]any{md("b", 0)}))
		results, err := idx.Query(ctx, []float32{0, 1}, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "b", results[0].ID)
	})

	t.Run("existing ids and count", func(t *testing.T) {
		idx := open(t)
		require.NoError(t, idx.Add(ctx,
			[]string{"a", "b", "c"},
			[][]float32{{1, 0}, {0, 1}, {1, 1}},
			[]string{"a", "b", "c"},
			[]map[string]any{md("x", 0), md("x", 1), md("y", 0)},
		))

		ids, err := idx.ExistingIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]struct{}{"a": {}, "b": {}, "c": {}}, ids)

		n, err := idx.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("reset empties the index", func(t *testing.T) {
		idx := open(t)
		require.NoError(t, idx.Add(ctx, []string{"a"}, [][]float32{{1, 0}}, []string{"a"}, []map[string]any{md("a", 0)}))
		require.NoError(t, idx.Reset(ctx))

		n, err := idx.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		ids, err := idx.ExistingIDs(ctx)
		require.NoError(t, err)
		assert.Empty(t, ids)

		results, err := idx.Query(ctx, []float32{1, 0}, 3)
		require.NoError(t, err)
		assert.Empty(t, results)

		// The index stays usable after a reset.
		require.NoError(t, idx.Add(ctx, []string{"b"}, [][]float32{{0, 1}}, []string{"b"}, []map[string]any{md("b", 0)}))
		n, err = idx.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("delete source", func(t *testing.T) {
		idx := open(t)
		require.NoError(t, idx.Add(ctx,
			[]string{"a0", "a1", "b0"},
			[][]float32{{1, 0}, {0, 1}, {1, 1}},
			[]string{"a0", "a1", "b0"},
			[]map[string]any{md("a.txt", 0), md("a.txt", 1), md("b.txt", 0)},
		))

		removed, err := idx.DeleteSource(ctx, "a.txt")
		require.NoError(t, err)
		assert.Equal(t, 2, removed)

		ids, err := idx.ExistingIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]struct{}{"b0": {}}, ids)

		removed, err = idx.DeleteSource(ctx, "missing.txt")
		require.NoError(t, err)
		assert.Zero(t, removed)
	})
}

// RunRunStoreTests exercises the IndexRunStore contract.
func RunRunStoreTests(t *testing.T, store driven.IndexRunStore) {
	ctx := context.Background()
	base := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	runs := []domain.IndexRun{
		{ID: "r1", StartedAt: base, Summary: domain.IndexSummary{DocumentsProcessed: 1, ChunksTotal: 2, ChunksAdded: 2, Elapsed: time.Second}},
		{ID: "r2", StartedAt: base.Add(time.Minute), Fresh: true, Error: "embed chunks: boom"},
		{ID: "r3", StartedAt: base.Add(2 * time.Minute), Summary: domain.IndexSummary{DocumentsProcessed: 1, ChunksTotal: 2}},
	}
	for _, r := range runs {
		require.NoError(t, store.SaveRun(ctx, r))
	}

	got, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "r3", got[0].ID)
	assert.Equal(t, "r2", got[1].ID)
	assert.True(t, got[1].Fresh)
	assert.Equal(t, "embed chunks: boom", got[1].Error)

	all, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, runs[0].Summary, all[2].Summary)
	assert.True(t, all[2].StartedAt.Equal(base))
}
