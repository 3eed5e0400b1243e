package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rag-cli/internal/adapters/driving/tui"
	"github.com/custodia-labs/rag-cli/internal/core/domain"
)

// runApp starts the TUI. Tests replace it to avoid taking over the terminal.
var runApp = func(app *tui.App) error {
	return app.Run()
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions in an interactive terminal UI",
	Long: `Opens an interactive session for asking questions about the indexed
documents. Each answer keeps the passages it was generated from.

Controls:
  Enter     - Ask the typed question
  Tab       - Show or hide sources of the last answer
  ↑/↓       - Select a source
  PgUp/PgDn - Scroll the conversation
  Ctrl+L    - Clear the conversation
  Esc       - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().IntP("top-k", "k", domain.DefaultTopK, "number of passages used as context")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	topK, err := cmd.Flags().GetInt("top-k")
	if err != nil {
		return fmt.Errorf("getting top-k flag: %w", err)
	}
	if topK < 1 {
		return fmt.Errorf("%w: --top-k must be at least 1", ErrInvalidFlag)
	}

	if err := openServices(cmd, NeedIndex|NeedEmbedding|NeedLLM); err != nil {
		return err
	}
	if askService == nil {
		return errors.New("ask service not configured")
	}

	app, err := tui.NewApp(tui.NewPorts(askService, indexingService))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(commandContext(cmd)).WithTopK(topK)

	if err := runApp(app); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
