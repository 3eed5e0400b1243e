package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
)

func TestRetrieveCmd_Use(t *testing.T) {
	assert.Equal(t, "retrieve QUERY", retrieveCmd.Use)
}

func TestRetrieveCmd_FormatFlag(t *testing.T) {
	flag := retrieveCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "f", flag.Shorthand)
	assert.Equal(t, "text", flag.DefValue)
}

func TestRetrieveCmd_Text(t *testing.T) {
	s := setupTestServices(t)
	s.Retriever.Results = sampleResults()

	out, err := executeCommand("retrieve", "refund", "policy")

	require.NoError(t, err)
	assert.Equal(t, "refund policy", s.Retriever.LastQuery)
	assert.Equal(t, domain.DefaultTopK, s.Retriever.LastTopK)
	assert.Contains(t, out, "[1] docs/refunds.md (distance 0.1234)")
	assert.Contains(t, out, "chunk 0, id a1")
	assert.Contains(t, out, "[2] docs/shipping.txt (distance 0.4567)")
	assert.Contains(t, out, "chunk 2, id b2")
}

func TestRetrieveCmd_NoResults(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand("retrieve", "nothing")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestRetrieveCmd_JSON(t *testing.T) {
	s := setupTestServices(t)
	s.Retriever.Results = sampleResults()

	out, err := executeCommand("retrieve", "--format", "json", "-k", "2", "refund")

	require.NoError(t, err)
	assert.Equal(t, 2, s.Retriever.LastTopK)

	var got []domain.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "a1", got[0].ID)
	assert.InDelta(t, 0.1234, got[0].Distance, 1e-9)
}

func TestRetrieveCmd_JSONEmptyIsArray(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand("retrieve", "-f", "json", "nothing")

	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestRetrieveCmd_YAML(t *testing.T) {
	s := setupTestServices(t)
	s.Retriever.Results = sampleResults()

	out, err := executeCommand("retrieve", "-f", "yaml", "refund")

	require.NoError(t, err)
	var got []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "b2", got[1]["id"])
}

func TestRetrieveCmd_UnknownFormat(t *testing.T) {
	s := setupTestServices(t)

	_, err := executeCommand("retrieve", "-f", "xml", "refund")

	require.ErrorIs(t, err, ErrInvalidFlag)
	assert.Empty(t, s.Retriever.LastQuery)
}

func TestRetrieveCmd_Error(t *testing.T) {
	s := setupTestServices(t)
	s.Retriever.Err = errors.New("index unavailable")

	_, err := executeCommand("retrieve", "refund")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieve failed: index unavailable")
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		name string
		text string
		n    int
		want string
	}{
		{"short", "hello world", 20, "hello world"},
		{"collapses whitespace", "a  b\n\tc", 20, "a b c"},
		{"truncates", "abcdefghij", 4, "abcd..."},
		{"counts runes", "ééééé", 3, "ééé..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, snippet(tt.text, tt.n))
		})
	}
}
