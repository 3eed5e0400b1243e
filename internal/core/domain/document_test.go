package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunk_Metadata(t *testing.T) {
	c := Chunk{ID: "abc", Text: "hello", Source: "docs/a.md", Index: 3}

	md := c.Metadata()
	assert.Equal(t, "docs/a.md", md[MetadataSource])
	assert.Equal(t, 3, md[MetadataChunkIndex])
	assert.Len(t, md, 2)
}

func TestSearchResult_Source(t *testing.T) {
	assert.Equal(t, "a.txt", SearchResult{Metadata: map[string]any{"source": "a.txt"}}.Source())
	assert.Equal(t, "unknown", SearchResult{}.Source())
	assert.Equal(t, "unknown", SearchResult{Metadata: map[string]any{"source": 5}}.Source())
}

func TestIndexSummary_UpToDate(t *testing.T) {
	assert.True(t, IndexSummary{DocumentsProcessed: 2, ChunksTotal: 4}.UpToDate())
	assert.False(t, IndexSummary{ChunksAdded: 1}.UpToDate())
}

func TestIndexRun_Succeeded(t *testing.T) {
	assert.True(t, IndexRun{ID: "r"}.Succeeded())
	assert.False(t, IndexRun{ID: "r", Error: "boom"}.Succeeded())
}

func TestChangeType_String(t *testing.T) {
	assert.Equal(t, "created", ChangeCreated.String())
	assert.Equal(t, "updated", ChangeUpdated.String())
	assert.Equal(t, "deleted", ChangeDeleted.String())
	assert.Equal(t, "unknown", ChangeType(42).String())
}

func TestChunkID(t *testing.T) {
	t.Run("known digest", func(t *testing.T) {
		id := ChunkID("a.txt", 0)
		assert.Equal(t, "a8bfc47f0ef99d46", id)
		assert.Regexp(t, "^[0-9a-f]{16}$", id)
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, ChunkID("docs/guide.md", 7), ChunkID("docs/guide.md", 7))
	})

	t.Run("depends on source and index", func(t *testing.T) {
		base := ChunkID("docs/guide.md", 1)
		assert.NotEqual(t, base, ChunkID("docs/guide.md", 2))
		assert.NotEqual(t, base, ChunkID("docs/other.md", 1))
	})

	t.Run("no collisions across a corpus", func(t *testing.T) {
		seen := make(map[string]bool)
		for doc := 0; doc < 50; doc++ {
			for i := 0; i < 200; i++ {
				id := ChunkID(fmt.Sprintf("docs/file-%d.txt", doc), i)
				assert.False(t, seen[id], "collision for %d/%d", doc, i)
				seen[id] = true
			}
		}
	})
}
