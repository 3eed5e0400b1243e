package pgvector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.IndexRunStore = (*RunStore)(nil)

// RunStore keeps index run history in rag_index_runs.
type RunStore struct {
	db         *sql.DB
	collection string
}

// NewRunStore creates the history table if needed.
func NewRunStore(ctx context.Context, db *sql.DB, collection string) (*RunStore, error) {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS rag_index_runs (
  id           text PRIMARY KEY,
  collection   text NOT NULL,
  started_at   timestamptz NOT NULL,
  fresh        boolean NOT NULL DEFAULT false,
  documents    integer NOT NULL DEFAULT 0,
  chunks_total integer NOT NULL DEFAULT 0,
  chunks_added integer NOT NULL DEFAULT 0,
  elapsed_ns   bigint NOT NULL DEFAULT 0,
  error        text
);
CREATE INDEX IF NOT EXISTS rag_index_runs_started_idx ON rag_index_runs (collection, started_at DESC);
`)
	if err != nil {
		return nil, fmt.Errorf("%w: create run table: %v", domain.ErrVectorIndexUnavailable, err)
	}
	return &RunStore{db: db, collection: collection}, nil
}

// SaveRun inserts or replaces a run.
func (r *RunStore) SaveRun(ctx context.Context, run domain.IndexRun) error {
	var runErr sql.NullString
	if run.Error != "" {
		runErr = sql.NullString{String: run.Error, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO rag_index_runs (id, collection, started_at, fresh, documents, chunks_total, chunks_added, elapsed_ns, error)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
  started_at = EXCLUDED.started_at,
  fresh = EXCLUDED.fresh,
  documents = EXCLUDED.documents,
  chunks_total = EXCLUDED.chunks_total,
  chunks_added = EXCLUDED.chunks_added,
  elapsed_ns = EXCLUDED.elapsed_ns,
  error = EXCLUDED.error
`, run.ID, r.collection, run.StartedAt.UTC(), run.Fresh,
		run.Summary.DocumentsProcessed, run.Summary.ChunksTotal, run.Summary.ChunksAdded,
		int64(run.Summary.Elapsed), runErr)
	if err != nil {
		return fmt.Errorf("saving index run: %w", err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first; limit <= 0 returns all.
func (r *RunStore) ListRuns(ctx context.Context, limit int) ([]domain.IndexRun, error) {
	query := `
SELECT id, started_at, fresh, documents, chunks_total, chunks_added, elapsed_ns, error
FROM rag_index_runs
WHERE collection = $1
ORDER BY started_at DESC`
	args := []any{r.collection}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing index runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.IndexRun
	for rows.Next() {
		var (
			run     domain.IndexRun
			elapsed int64
			runErr  sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.Fresh,
			&run.Summary.DocumentsProcessed, &run.Summary.ChunksTotal, &run.Summary.ChunksAdded,
			&elapsed, &runErr); err != nil {
			return nil, fmt.Errorf("scanning index run: %w", err)
		}
		run.Summary.Elapsed = time.Duration(elapsed)
		run.Error = runErr.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
