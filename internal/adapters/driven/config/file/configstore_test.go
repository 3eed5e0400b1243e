package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(filepath.Join(t.TempDir(), ".rag-cli", FileName))
	require.NoError(t, err)
	return store
}

func TestNewConfigStore_MissingFileIsEmpty(t *testing.T) {
	store := newTestStore(t)

	assert.Empty(t, store.Keys())
	_, err := os.Stat(store.Path())
	assert.True(t, os.IsNotExist(err), "file must not be created until Set")
}

func TestNewConfigStore_DefaultPath(t *testing.T) {
	assert.Equal(t, filepath.Join(".rag-cli", "config.toml"), DefaultPath())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("llm.model", "openai:gpt-4o"))
	require.NoError(t, store.Set("chunk.size", 800))
	require.NoError(t, store.Set("retry.rate_limit", 2.5))
	require.NoError(t, store.Set("debug", true))

	assert.Equal(t, "openai:gpt-4o", store.GetString("llm.model"))
	assert.Equal(t, 800, store.GetInt("chunk.size"))
	assert.Equal(t, 2.5, store.GetFloat("retry.rate_limit"))
	assert.Equal(t, 800.0, store.GetFloat("chunk.size"))
	assert.True(t, store.GetBool("debug"))

	// Missing keys and wrong types give zero values.
	assert.Empty(t, store.GetString("chunk.size"))
	assert.Zero(t, store.GetInt("llm.model"))
	assert.Zero(t, store.GetFloat("missing"))
	assert.False(t, store.GetBool("llm.model"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_PersistsAsNestedTables(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("chunk.size", 800))
	require.NoError(t, store.Set("chunk.overlap", 100))
	require.NoError(t, store.Set("index.backend", "memory"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[chunk]")
	assert.Contains(t, string(data), "[index]")

	reloaded, err := NewConfigStore(store.Path())
	require.NoError(t, err)
	assert.Equal(t, 800, reloaded.GetInt("chunk.size"))
	assert.Equal(t, 100, reloaded.GetInt("chunk.overlap"))
	assert.Equal(t, "memory", reloaded.GetString("index.backend"))
	assert.Equal(t, []string{"chunk.overlap", "chunk.size", "index.backend"}, reloaded.Keys())
}

func TestConfigStore_ReadsHandWrittenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	content := `
[llm]
model = "ollama:llama3.2"

[retrieval]
top_k = 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	store, err := NewConfigStore(path)
	require.NoError(t, err)
	assert.Equal(t, "ollama:llama3.2", store.GetString("llm.model"))
	assert.Equal(t, 5, store.GetInt("retrieval.top_k"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("openai.api_key", "sk-secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, nil, 0600))

	store, err := NewConfigStore(path)
	require.NoError(t, err)
	assert.Empty(t, store.Keys())
}

func TestConfigStore_CorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("this is not valid TOML {{{[["), 0600))

	store, err := NewConfigStore(path)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Nil(t, store)
}

func TestConfigStore_KeyConflict(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("chunk.size", 800))

	err := store.Set("chunk", "flat")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestConfigStore_WriteError(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("test", "value"))

	// Replace the file with a directory to cause write error
	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, os.Mkdir(store.Path(), 0700))

	assert.Error(t, store.Set("another", "value"))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := newTestStore(t)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := "worker.k" + string(rune('0'+i))
			_ = store.Set(key, i)
			_ = store.GetInt(key)
			_ = store.Keys()
		}()
	}
	wg.Wait()
	assert.Len(t, store.Keys(), 10)
}
