package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rag-cli/internal/adapters/driving/tui"
)

func stubRunApp(t *testing.T, fn func(app *tui.App) error) {
	t.Helper()
	prev := runApp
	runApp = fn
	t.Cleanup(func() { runApp = prev })
}

func TestChatCmd_Use(t *testing.T) {
	assert.Equal(t, "chat", chatCmd.Use)
	assert.Contains(t, chatCmd.Long, "Tab")
}

func TestChatCmd_StartsApp(t *testing.T) {
	setupTestServices(t)
	var started *tui.App
	stubRunApp(t, func(app *tui.App) error {
		started = app
		return nil
	})

	_, err := executeCommand("chat")

	require.NoError(t, err)
	require.NotNil(t, started)
	assert.NotNil(t, started.Chat())
}

func TestChatCmd_AppError(t *testing.T) {
	setupTestServices(t)
	stubRunApp(t, func(_ *tui.App) error {
		return errors.New("no tty")
	})

	_, err := executeCommand("chat")

	require.Error(t, err)
	assert.Equal(t, "TUI error: no tty", err.Error())
}

func TestChatCmd_InvalidTopK(t *testing.T) {
	setupTestServices(t)
	stubRunApp(t, func(_ *tui.App) error {
		t.Fatal("app must not start")
		return nil
	})

	_, err := executeCommand("chat", "--top-k", "0")

	require.ErrorIs(t, err, ErrInvalidFlag)
}

func TestChatCmd_NotConfigured(t *testing.T) {
	setupTestServices(t)
	askService = nil

	_, err := executeCommand("chat")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ask service not configured")
}
