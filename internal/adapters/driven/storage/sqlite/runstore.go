package sqlite

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

// RunStore persists index run history in the index_runs table.
type RunStore struct {
	store      *Store
	collection string
}

// SaveRun inserts or replaces a run.
func (r *RunStore) SaveRun(ctx context.Context, run domain.IndexRun) error {
	var runErr sql.NullString
	if run.Error != "" {
		runErr = sql.NullString{String: run.Error, Valid: true}
	}
	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO index_runs (id, collection, started_at, fresh, documents, chunks_total, chunks_added, elapsed_ns, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			collection = excluded.collection,
			started_at = excluded.started_at,
			fresh = excluded.fresh,
			documents = excluded.documents,
			chunks_total = excluded.chunks_total,
			chunks_added = excluded.chunks_added,
			elapsed_ns = excluded.elapsed_ns,
			error = excluded.error
	`,
		run.ID, r.collection, run.StartedAt.UnixNano(), boolToInt(run.Fresh),
		run.Summary.DocumentsProcessed, run.Summary.ChunksTotal, run.Summary.ChunksAdded,
		int64(run.Summary.Elapsed), runErr,
	)
	if err != nil {
		return fmt.Errorf("saving index run: %w", err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (r *RunStore) ListRuns(ctx context.Context, limit int) ([]domain.IndexRun, error) {
	query := `
		SELECT id, started_at, fresh, documents, chunks_total, chunks_added, elapsed_ns, error
		FROM index_runs
		WHERE collection = ?
		ORDER BY started_at DESC
	`
	args := []any{r.collection}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing index runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.IndexRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(rows *sql.Rows) (domain.IndexRun, error) {
	var (
		run       domain.IndexRun
		startedAt int64
		fresh     int
		elapsed   int64
		runErr    sql.NullString
	)
	err := rows.Scan(&run.ID, &startedAt, &fresh,
		&run.Summary.DocumentsProcessed, &run.Summary.ChunksTotal, &run.Summary.ChunksAdded,
		&elapsed, &runErr)
	if err != nil {
		return run, fmt.Errorf("scanning index run: %w", err)
	}
	run.StartedAt = time.Unix(0, startedAt)
	run.Fresh = fresh != 0
	run.Summary.Elapsed = time.Duration(elapsed)
	run.Error = runErr.String
	return run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
