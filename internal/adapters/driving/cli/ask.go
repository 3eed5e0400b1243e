package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rag-cli/internal/adapters/driven/config"
	"github.com/custodia-labs/rag-cli/internal/core/domain"
)

var askShowSources bool

var askCmd = &cobra.Command{
	Use:   "ask QUESTION",
	Short: "Ask a question about the indexed documents",
	Long: `Retrieves the passages most similar to QUESTION and asks the LLM to
answer using only those passages. When they do not contain the answer
the model says so instead of guessing.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntP("top-k", "k", domain.DefaultTopK, "number of passages to retrieve")
	askCmd.Flags().BoolVarP(&askShowSources, "show-sources", "s", false, "print the retrieved passages")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	if err := overrideInt(cmd, "top-k", config.KeyTopK); err != nil {
		return err
	}
	if err := openServices(cmd, NeedIndex|NeedEmbedding|NeedLLM); err != nil {
		return err
	}
	if askService == nil {
		return errors.New("ask service not configured")
	}

	answer, err := askService.Ask(commandContext(cmd), question, currentSettings().TopK)
	if err != nil {
		return describeQueryError(err)
	}

	c := newConsole(cmd)
	c.title("Answer")
	c.println(strings.TrimSpace(answer.Generation.Text))

	if askShowSources {
		c.println()
		printSources(c, answer.Sources)
	}

	c.println()
	c.muted(fmt.Sprintf("%s | %d input tokens, %d output tokens",
		answer.Generation.Model, answer.Generation.InputTokens, answer.Generation.OutputTokens))
	return nil
}

func printSources(c *console, sources []domain.SearchResult) {
	c.title("Sources")
	for i, r := range sources {
		c.printf("%s %s %s\n",
			c.styles.Source.Render(fmt.Sprintf("[Source %d]", i+1)),
			r.Source(),
			c.styles.Muted.Render(fmt.Sprintf("(distance %.4f)", r.Distance)))
		c.printf("    %s\n", snippet(r.Document, snippetLength))
	}
}

// describeQueryError replaces data errors with guidance for the user.
func describeQueryError(err error) error {
	switch {
	case errors.Is(err, domain.ErrIndexEmpty):
		return fmt.Errorf("%w: no index found. Run 'rag index' first", err)
	case errors.Is(err, domain.ErrNoResults):
		return fmt.Errorf("%w for this question", err)
	default:
		return fmt.Errorf("ask failed: %w", err)
	}
}
