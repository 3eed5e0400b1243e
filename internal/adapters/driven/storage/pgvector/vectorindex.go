// Package pgvector stores the index in PostgreSQL using the pgvector
// extension. Each collection gets its own table whose embedding column is
// sized on the first Add.
package pgvector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/rag-cli/internal/adapters/driven/storage/vectors"
	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

var collectionPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,50}$`)

// VectorIndex is a driven.VectorIndex backed by a pgvector table.
type VectorIndex struct {
	db         *sql.DB
	collection string
	table      string

	mu        sync.Mutex
	dimension int // 0 until the table exists
}

// Open connects to PostgreSQL and returns the index for collection.
func Open(ctx context.Context, dsn, collection string) (*VectorIndex, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: pgvector backend requires a DSN", domain.ErrInvalidConfig)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVectorIndexUnavailable, err)
	}
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	idx, err := NewFromDB(ctx, db, collection)
	if err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

// NewFromDB reuses an existing connection pool.
func NewFromDB(ctx context.Context, db *sql.DB, collection string) (*VectorIndex, error) {
	if !collectionPattern.MatchString(collection) {
		return nil, fmt.Errorf("%w: collection %q is not a valid table name", domain.ErrInvalidConfig, collection)
	}
	v := &VectorIndex{db: db, collection: collection, table: TableName(collection)}

	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return nil, fmt.Errorf("%w: enable pgvector: %v", domain.ErrVectorIndexUnavailable, err)
	}
	dim, err := v.tableDimension(ctx)
	if err != nil {
		return nil, err
	}
	v.dimension = dim
	return v, nil
}

// TableName returns the quoted table that holds collection.
func TableName(collection string) string {
	return pq.QuoteIdentifier("rag_" + collection)
}

// tableDimension reports the embedding width of an existing table, or 0.
func (v *VectorIndex) tableDimension(ctx context.Context) (int, error) {
	var dim sql.NullInt64
	err := v.db.QueryRowContext(ctx, `
		SELECT a.atttypmod
		FROM pg_attribute a
		WHERE a.attrelid = to_regclass($1) AND a.attname = 'embedding'
	`, v.table).Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: inspect table: %v", domain.ErrVectorIndexUnavailable, err)
	}
	return int(dim.Int64), nil
}

func (v *VectorIndex) ensureTable(ctx context.Context, dim int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.dimension != 0 {
		if v.dimension != dim {
			return fmt.Errorf("%w: collection %s stores %d dimensions, got %d",
				domain.ErrDimensionMismatch, v.collection, v.dimension, dim)
		}
		return nil
	}

	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
  id         text PRIMARY KEY,
  document   text NOT NULL,
  metadata   jsonb,
  source     text,
  embedding  vector(%[2]d) NOT NULL,
  updated_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS %[3]s ON %[1]s (source);
`, v.table, dim, pq.QuoteIdentifier("rag_"+v.collection+"_source_idx"))
	if _, err := v.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("%w: create table: %v", domain.ErrVectorIndexUnavailable, err)
	}
	v.dimension = dim
	return nil
}

func (v *VectorIndex) exists() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dimension != 0
}

// Add upserts records in one transaction.
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
	if err := v.ensureTable(ctx, dim); err != nil {
		return err
	}

	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrVectorIndexUnavailable, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt := fmt.Sprintf(`
INSERT INTO %s (id, document, metadata, source, embedding, updated_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (id) DO UPDATE SET
  document = EXCLUDED.document,
  metadata = EXCLUDED.metadata,
  source = EXCLUDED.source,
  embedding = EXCLUDED.embedding,
  updated_at = now()
`, v.table)

	for i, id := range ids {
		md, err := vectors.EncodeMetadata(metadatas[i])
		if err != nil {
			return err
		}
		var mdValue any
		if md != nil {
			mdValue = string(md)
		}
		var source sql.NullString
		if s, ok := metadatas[i][domain.MetadataSource].(string); ok {
			source = sql.NullString{String: s, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, stmt, id, documents[i], mdValue, source, pgvector.NewVector(embeddings[i])); err != nil {
			return fmt.Errorf("%w: upsert %s: %v", domain.ErrVectorIndexUnavailable, id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrVectorIndexUnavailable, err)
	}
	return nil
}

// Query returns up to topK records ordered by pgvector cosine distance.
func (v *VectorIndex) Query(ctx context.Context, embedding []float32, topK int) ([]domain.SearchResult, error) {
	results := []domain.SearchResult{}
	if topK <= 0 || !v.exists() {
		return results, nil
	}

	query := fmt.Sprintf(`
SELECT id, document, metadata, embedding <=> $1 AS distance
FROM %s
ORDER BY distance, id
LIMIT $2
`, v.table)
	rows, err := v.db.QueryContext(ctx, query, pgvector.NewVector(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", domain.ErrVectorIndexUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r        domain.SearchResult
			metadata []byte
			distance sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.Document, &metadata, &distance); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", domain.ErrVectorIndexUnavailable, err)
		}
		if r.Metadata, err = vectors.DecodeMetadata(metadata); err != nil {
			return nil, err
		}
		// pgvector yields NULL for zero-magnitude vectors.
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

// ExistingIDs returns every stored id.
func (v *VectorIndex) ExistingIDs(ctx context.Context) (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	if !v.exists() {
		return ids, nil
	}
	rows, err := v.db.QueryContext(ctx, fmt.Sprintf("SELECT id FROM %s", v.table))
	if err != nil {
		return nil, fmt.Errorf("%w: list ids: %v", domain.ErrVectorIndexUnavailable, err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scan id: %v", domain.ErrVectorIndexUnavailable, err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// Count returns the number of stored records.
func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	if !v.exists() {
		return 0, nil
	}
	var n int
	if err := v.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", v.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count: %v", domain.ErrVectorIndexUnavailable, err)
	}
	return n, nil
}

// Reset drops the collection table. The next Add recreates it, possibly
// with a different dimension.
func (v *VectorIndex) Reset(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, err := v.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", v.table)); err != nil {
		return fmt.Errorf("%w: reset: %v", domain.ErrVectorIndexUnavailable, err)
	}
	v.dimension = 0
	return nil
}

// DeleteSource deletes the records produced from source.
func (v *VectorIndex) DeleteSource(ctx context.Context, source string) (int, error) {
	if !v.exists() {
		return 0, nil
	}
	res, err := v.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE source = $1", v.table), source)
	if err != nil {
		return 0, fmt.Errorf("%w: delete source: %v", domain.ErrVectorIndexUnavailable, err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Close closes the connection pool.
func (v *VectorIndex) Close() error {
	return v.db.Close()
}

// DB exposes the pool so the run store can share it.
func (v *VectorIndex) DB() *sql.DB {
	return v.db
}
