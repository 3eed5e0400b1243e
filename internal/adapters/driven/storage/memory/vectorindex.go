// Package memory provides in-process implementations of the storage ports.
// Contents are lost when the process exits.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/custodia-labs/rag-cli/internal/adapters/driven/storage/vectors"
	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

type record struct {
	text      string
	metadata  map[string]any
	embedding []float32
	magnitude float32
}

// VectorIndex is an in-memory implementation of driven.VectorIndex using
// brute-force cosine distance.
type VectorIndex struct {
	mu      sync.RWMutex
	records map[string]record
}

// NewVectorIndex creates an empty in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{records: make(map[string]record)}
}

// Add upserts records.
func (v *VectorIndex) Add(
	_ context.Context, ids []string, embeddings [][]float32, documents []string, metadatas []map[string]any,
) error {
	dim, err := vectors.ValidateAdd(ids, embeddings, documents, metadatas)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if stored := v.dimension(); dim != 0 && stored != 0 && stored != dim {
		return fmt.Errorf("%w: index stores %d dimensions, got %d", domain.ErrDimensionMismatch, stored, dim)
	}
	for i, id := range ids {
		emb := make([]float32, len(embeddings[i]))
		copy(emb, embeddings[i])
		var md map[string]any
		if clean := vectors.CleanMetadata(metadatas[i]); clean != nil {
			md = maps.Clone(clean)
		}
		v.records[id] = record{
			text:      documents[i],
			metadata:  md,
			embedding: emb,
			magnitude: vectors.Magnitude(emb),
		}
	}
	return nil
}

// dimension returns the embedding length of the stored records, or 0 when
// the index is empty. Callers hold the lock.
func (v *VectorIndex) dimension() int {
	for _, r := range v.records {
		return len(r.embedding)
	}
	return 0
}

// Query returns up to topK records by ascending cosine distance.
// Ties are broken by id for stable output.
func (v *VectorIndex) Query(_ context.Context, embedding []float32, topK int) ([]domain.SearchResult, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if topK <= 0 || len(v.records) == 0 {
		return []domain.SearchResult{}, nil
	}

	mag := vectors.Magnitude(embedding)
	results := make([]domain.SearchResult, 0, len(v.records))
	for id, r := range v.records {
		results = append(results, domain.SearchResult{
			ID:       id,
			Document: r.text,
			Metadata: maps.Clone(r.metadata),
			Distance: vectors.CosineDistance(embedding, r.embedding, mag, r.magnitude),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// ExistingIDs returns every stored id.
func (v *VectorIndex) ExistingIDs(_ context.Context) (map[string]struct{}, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	ids := make(map[string]struct{}, len(v.records))
	for id := range v.records {
		ids[id] = struct{}{}
	}
	return ids, nil
}

// Count returns the number of stored records.
func (v *VectorIndex) Count(_ context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.records), nil
}

// Reset deletes every record.
func (v *VectorIndex) Reset(_ context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.records = make(map[string]record)
	return nil
}

// DeleteSource deletes the records whose metadata source matches.
func (v *VectorIndex) DeleteSource(_ context.Context, source string) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	removed := 0
	for id, r := range v.records {
		if s, ok := r.metadata[domain.MetadataSource].(string); ok && s == source {
			delete(v.records, id)
			removed++
		}
	}
	return removed, nil
}

// Close is a no-op.
func (v *VectorIndex) Close() error {
	return nil
}
