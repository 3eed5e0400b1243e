package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/rag-cli/internal/adapters/driven/storage/vectors"
	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// Payload keys stored alongside each point.
const (
	payloadID       = "rag_id"
	payloadDocument = "document"
	payloadMetadata = "metadata"
	payloadSource   = "source"
)

const scrollPageSize = 256

// pointNamespace derives stable point UUIDs from chunk ids, since Qdrant only
// accepts integers and UUIDs as point ids.
var pointNamespace = uuid.MustParse("6f1c8f0e-6c55-4b4e-9d0c-6a2f7e3f1a90")

// PointID returns the Qdrant point id for a chunk id.
func PointID(id string) string {
	return uuid.NewSHA1(pointNamespace, []byte(id)).String()
}

// VectorIndex is a driven.VectorIndex backed by a Qdrant collection.
type VectorIndex struct {
	c *client

	mu        sync.Mutex
	dimension int // 0 while unknown
}

// New returns an index for cfg.Collection. No request is made until use.
func New(cfg Config) (*VectorIndex, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("%w: qdrant collection is required", domain.ErrInvalidConfig)
	}
	return &VectorIndex{c: newClient(cfg)}, nil
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type scoredPoint struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// collectionDimension returns the vector size of the collection, or 0 if it
// does not exist.
func (v *VectorIndex) collectionDimension(ctx context.Context) (int, error) {
	var info struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size json.Number `json:"size"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	}
	err := v.c.do(ctx, "GET", v.c.collectionURL(""), nil, &info)
	if errors.Is(err, errCollectionMissing) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	size, _ := info.Config.Params.Vectors.Size.Int64()
	return int(size), nil
}

func (v *VectorIndex) ensureCollection(ctx context.Context, dim int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.dimension == 0 {
		existing, err := v.collectionDimension(ctx)
		if err != nil {
			return err
		}
		v.dimension = existing
	}
	if v.dimension != 0 {
		if v.dimension != dim {
			return fmt.Errorf("%w: collection %s stores %d dimensions, got %d",
				domain.ErrDimensionMismatch, v.c.collection, v.dimension, dim)
		}
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{"size": dim, "distance": "Cosine"},
	}
	if err := v.c.do(ctx, "PUT", v.c.collectionURL(""), body, nil); err != nil {
		return err
	}
	index := map[string]any{"field_name": payloadSource, "field_schema": "keyword"}
	if err := v.c.do(ctx, "PUT", v.c.collectionURL("/index?wait=true"), index, nil); err != nil {
		return err
	}
	v.dimension = dim
	return nil
}

// Add upserts points in a single request.
func (v *VectorIndex) Add(
	ctx context.Context, ids []string, embeddings [][]float32, documents []string, metadatas []map[string]any,
) error {
	dim, err := vectors.ValidateAdd(ids, embeddings, documents, metadatas)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := v.ensureCollection(ctx, dim); err != nil {
		return err
	}

	points := make([]point, len(ids))
	for i, id := range ids {
		payload := map[string]any{
			payloadID:       id,
			payloadDocument: documents[i],
		}
		if md := vectors.CleanMetadata(metadatas[i]); md != nil {
			payload[payloadMetadata] = md
			if s, ok := md[domain.MetadataSource].(string); ok {
				payload[payloadSource] = s
			}
		}
		points[i] = point{ID: PointID(id), Vector: embeddings[i], Payload: payload}
	}
	return v.c.do(ctx, "PUT", v.c.collectionURL("/points?wait=true"), map[string]any{"points": points}, nil)
}

// Query returns up to topK points. Qdrant reports cosine similarity, so
// distance is 1 - score.
func (v *VectorIndex) Query(ctx context.Context, embedding []float32, topK int) ([]domain.SearchResult, error) {
	results := []domain.SearchResult{}
	if topK <= 0 {
		return results, nil
	}

	var hits []scoredPoint
	req := map[string]any{"vector": embedding, "limit": topK, "with_payload": true}
	err := v.c.do(ctx, "POST", v.c.collectionURL("/points/search"), req, &hits)
	if errors.Is(err, errCollectionMissing) {
		return results, nil
	}
	if err != nil {
		return nil, err
	}

	for _, h := range hits {
		r := domain.SearchResult{Distance: 1 - h.Score}
		r.ID, _ = h.Payload[payloadID].(string)
		r.Document, _ = h.Payload[payloadDocument].(string)
		if md, ok := h.Payload[payloadMetadata].(map[string]any); ok {
			r.Metadata = vectors.NormaliseNumbers(md)
		}
		results = append(results, r)
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})
	return results, nil
}

// ExistingIDs scrolls the whole collection.
func (v *VectorIndex) ExistingIDs(ctx context.Context) (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	var offset any
	for {
		req := map[string]any{
			"limit":        scrollPageSize,
			"with_payload": []string{payloadID},
			"with_vector":  false,
		}
		if offset != nil {
			req["offset"] = offset
		}
		var page struct {
			Points []struct {
				Payload map[string]any `json:"payload"`
			} `json:"points"`
			NextPageOffset any `json:"next_page_offset"`
		}
		err := v.c.do(ctx, "POST", v.c.collectionURL("/points/scroll"), req, &page)
		if errors.Is(err, errCollectionMissing) {
			return ids, nil
		}
		if err != nil {
			return nil, err
		}
		for _, p := range page.Points {
			if id, ok := p.Payload[payloadID].(string); ok {
				ids[id] = struct{}{}
			}
		}
		if page.NextPageOffset == nil {
			return ids, nil
		}
		offset = page.NextPageOffset
	}
}

// Count returns the exact number of points.
func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	return v.count(ctx, nil)
}

func (v *VectorIndex) count(ctx context.Context, filter map[string]any) (int, error) {
	req := map[string]any{"exact": true}
	if filter != nil {
		req["filter"] = filter
	}
	var out struct {
		Count json.Number `json:"count"`
	}
	err := v.c.do(ctx, "POST", v.c.collectionURL("/points/count"), req, &out)
	if errors.Is(err, errCollectionMissing) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, _ := out.Count.Int64()
	return int(n), nil
}

// Reset drops the collection.
func (v *VectorIndex) Reset(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	err := v.c.do(ctx, "DELETE", v.c.collectionURL(""), nil, nil)
	if err != nil && !errors.Is(err, errCollectionMissing) {
		return err
	}
	v.dimension = 0
	return nil
}

// DeleteSource deletes every point whose source payload matches.
func (v *VectorIndex) DeleteSource(ctx context.Context, source string) (int, error) {
	filter := map[string]any{
		"must": []any{
			map[string]any{"key": payloadSource, "match": map[string]any{"value": source}},
		},
	}
	n, err := v.count(ctx, filter)
	if err != nil || n == 0 {
		return 0, err
	}
	err = v.c.do(ctx, "POST", v.c.collectionURL("/points/delete?wait=true"), map[string]any{"filter": filter}, nil)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Close releases idle connections.
func (v *VectorIndex) Close() error {
	v.c.http.CloseIdleConnections()
	return nil
}
