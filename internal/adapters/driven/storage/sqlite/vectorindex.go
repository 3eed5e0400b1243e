package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/rag-cli/internal/adapters/driven/storage/vectors"
	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex stores records for one collection in the records table.
type VectorIndex struct {
	store      *Store
	collection string
	// owned is set when Close should close the underlying store.
	owned bool
}

// NewVectorIndex opens the database in dataDir and returns the index for
// collection. Closing the index closes the database.
func NewVectorIndex(dataDir, collection string) (*VectorIndex, error) {
	s, err := NewStore(dataDir)
	if err != nil {
		return nil, err
	}
	idx := s.VectorIndex(collection)
	idx.owned = true
	return idx, nil
}

// Add upserts records in a single transaction. Either every record is
// written or none is.
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

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", domain.ErrVectorIndexUnavailable, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var stored int
	err = tx.QueryRowContext(ctx,
		`SELECT dimensions FROM records WHERE collection = ? LIMIT 1`, v.collection,
	).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("%w: read dimensions: %v", domain.ErrVectorIndexUnavailable, err)
	case stored != dim:
		return fmt.Errorf("%w: collection %s stores %d dimensions, got %d",
			domain.ErrDimensionMismatch, v.collection, stored, dim)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (collection, id, document, metadata, source, embedding, magnitude, dimensions, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			document = excluded.document,
			metadata = excluded.metadata,
			source = excluded.source,
			embedding = excluded.embedding,
			magnitude = excluded.magnitude,
			dimensions = excluded.dimensions,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %v", domain.ErrVectorIndexUnavailable, err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for i, id := range ids {
		md, err := vectors.EncodeMetadata(metadatas[i])
		if err != nil {
			return err
		}
		var source sql.NullString
		if s, ok := metadatas[i][domain.MetadataSource].(string); ok {
			source = sql.NullString{String: s, Valid: true}
		}
		var mdValue any
		if md != nil {
			mdValue = string(md)
		}
		_, err = stmt.ExecContext(ctx,
			v.collection, id, documents[i], mdValue, source,
			vectors.Encode(embeddings[i]), float64(vectors.Magnitude(embeddings[i])), len(embeddings[i]), now,
		)
		if err != nil {
			return fmt.Errorf("%w: insert %s: %v", domain.ErrVectorIndexUnavailable, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrVectorIndexUnavailable, err)
	}
	return nil
}

// Query returns up to topK records by ascending cosine distance.
func (v *VectorIndex) Query(ctx context.Context, embedding []float32, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		return []domain.SearchResult{}, nil
	}

	rows, err := v.store.db.QueryContext(ctx, `
		SELECT id, document, metadata, `+distanceFunction+`(embedding, magnitude, ?, ?) AS distance
		FROM records
		WHERE collection = ?
		ORDER BY distance, id
		LIMIT ?
	`, vectors.Encode(embedding), float64(vectors.Magnitude(embedding)), v.collection, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", domain.ErrVectorIndexUnavailable, err)
	}
	defer rows.Close()

	results := []domain.SearchResult{}
	for rows.Next() {
		var (
			r        domain.SearchResult
			metadata sql.NullString
			distance sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.Document, &metadata, &distance); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", domain.ErrVectorIndexUnavailable, err)
		}
		if metadata.Valid {
			if r.Metadata, err = vectors.DecodeMetadata([]byte(metadata.String)); err != nil {
				return nil, err
			}
		}
		r.Distance = 1
		if distance.Valid {
			r.Distance = distance.Float64
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate: %v", domain.ErrVectorIndexUnavailable, err)
	}
	return results, nil
}

// ExistingIDs returns every id in the collection.
func (v *VectorIndex) ExistingIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := v.store.db.QueryContext(ctx, "SELECT id FROM records WHERE collection = ?", v.collection)
	if err != nil {
		return nil, fmt.Errorf("%w: list ids: %v", domain.ErrVectorIndexUnavailable, err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scan id: %v", domain.ErrVectorIndexUnavailable, err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// Count returns the number of records in the collection.
func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	err := v.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records WHERE collection = ?", v.collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", domain.ErrVectorIndexUnavailable, err)
	}
	return n, nil
}

// Reset deletes every record in the collection.
func (v *VectorIndex) Reset(ctx context.Context) error {
	if _, err := v.store.db.ExecContext(ctx, "DELETE FROM records WHERE collection = ?", v.collection); err != nil {
		return fmt.Errorf("%w: reset: %v", domain.ErrVectorIndexUnavailable, err)
	}
	return nil
}

// DeleteSource deletes the records produced from source.
func (v *VectorIndex) DeleteSource(ctx context.Context, source string) (int, error) {
	res, err := v.store.db.ExecContext(ctx,
		"DELETE FROM records WHERE collection = ? AND source = ?", v.collection, source)
	if err != nil {
		return 0, fmt.Errorf("%w: delete source: %v", domain.ErrVectorIndexUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Close closes the database if this index opened it.
func (v *VectorIndex) Close() error {
	if v.owned {
		return v.store.Close()
	}
	return nil
}
