package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rag-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/rag-cli/internal/adapters/driven/storage/qdrant"
	"github.com/custodia-labs/rag-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/rag-cli/internal/core/domain"
)

func TestOpen_SQLite(t *testing.T) {
	dir := t.TempDir()
	b, err := Open(context.Background(), domain.IndexSettings{Backend: domain.BackendSQLite, DataDir: dir})
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &sqlite.VectorIndex{}, b.Index)
	assert.IsType(t, &sqlite.RunStore{}, b.Runs)
	assert.FileExists(t, filepath.Join(dir, sqlite.DatabaseFile))
}

func TestOpen_Memory(t *testing.T) {
	b, err := Open(context.Background(), domain.IndexSettings{Backend: domain.BackendMemory})
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &memory.VectorIndex{}, b.Index)
	assert.IsType(t, &memory.RunStore{}, b.Runs)
}

func TestOpen_Qdrant(t *testing.T) {
	b, err := Open(context.Background(), domain.IndexSettings{
		Backend: domain.BackendQdrant, DataDir: t.TempDir(), URL: "http://localhost:6333",
	})
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &qdrant.VectorIndex{}, b.Index)
	assert.IsType(t, &sqlite.RunStore{}, b.Runs)
}

func TestOpen_PgvectorRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), domain.IndexSettings{Backend: domain.BackendPgvector})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), domain.IndexSettings{Backend: "faiss"})
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
}
