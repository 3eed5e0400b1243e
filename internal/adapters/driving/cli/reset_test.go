package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
)

func TestResetCmd_YesFlag(t *testing.T) {
	s := setupTestServices(t)
	s.Indexing.StatusFunc = func(_ context.Context) (*domain.IndexStatus, error) {
		return &domain.IndexStatus{Backend: "memory", Collection: "docs", Records: 8}, nil
	}

	out, err := executeCommand("reset", "--yes")

	require.NoError(t, err)
	assert.True(t, s.Indexing.ResetCalled)
	assert.Contains(t, out, "Deleted 8 records.")
	assert.NotContains(t, out, "[y/N]")
}

func TestResetCmd_ConfirmYes(t *testing.T) {
	s := setupTestServices(t)

	out, err := executeCommandWithInput("yes\n", "reset")

	require.NoError(t, err)
	assert.True(t, s.Indexing.ResetCalled)
	assert.Contains(t, out, `Delete 0 records from collection "rag_cli_docs"? [y/N]:`)
}

func TestResetCmd_ConfirmNo(t *testing.T) {
	s := setupTestServices(t)

	_, err := executeCommandWithInput("n\n", "reset")

	require.ErrorIs(t, err, ErrResetAborted)
	assert.False(t, s.Indexing.ResetCalled)
}

func TestResetCmd_EmptyAnswerAborts(t *testing.T) {
	s := setupTestServices(t)

	_, err := executeCommandWithInput("", "reset")

	require.ErrorIs(t, err, ErrResetAborted)
	assert.False(t, s.Indexing.ResetCalled)
}

func TestResetCmd_ResetError(t *testing.T) {
	s := setupTestServices(t)
	s.Indexing.ResetErr = errors.New("read-only database")

	_, err := executeCommand("reset", "-y")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reset failed: read-only database")
}

func TestConfirm_NonInteractiveFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer f.Close()

	rootCmd.SetOut(io.Discard)
	defer rootCmd.SetOut(nil)

	ok, err := confirm(f, newConsole(rootCmd), "continue? ")

	require.ErrorIs(t, err, ErrConfirmationRequired)
	assert.False(t, ok)
}
