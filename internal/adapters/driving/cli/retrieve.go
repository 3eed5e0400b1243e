package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/rag-cli/internal/adapters/driven/config"
	"github.com/custodia-labs/rag-cli/internal/core/domain"
)

// snippetLength is the number of characters shown per passage in text output.
const snippetLength = 200

// Output formats accepted by --format.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var retrieveFormat string

var retrieveCmd = &cobra.Command{
	Use:   "retrieve QUERY",
	Short: "Show the passages most similar to a query",
	Long: `Embeds QUERY and prints the closest chunks in the vector index without
calling the LLM. Lower distance means more similar.

Use --format json or --format yaml for machine-readable output.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntP("top-k", "k", domain.DefaultTopK, "number of passages to return")
	retrieveCmd.Flags().StringVarP(&retrieveFormat, "format", "f", formatText, "output format: text, json or yaml")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	switch retrieveFormat {
	case formatText, formatJSON, formatYAML:
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidFlag, retrieveFormat)
	}
	if err := overrideInt(cmd, "top-k", config.KeyTopK); err != nil {
		return err
	}
	if err := openServices(cmd, NeedIndex|NeedEmbedding); err != nil {
		return err
	}
	if retriever == nil {
		return errors.New("retriever not configured")
	}

	results, err := retriever.Retrieve(commandContext(cmd), query, currentSettings().TopK)
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}
	if results == nil {
		results = []domain.SearchResult{}
	}

	switch retrieveFormat {
	case formatJSON:
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	case formatYAML:
		data, err := yaml.Marshal(results)
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
	default:
		outputResultsText(newConsole(cmd), results)
	}
	return nil
}

func outputResultsText(c *console, results []domain.SearchResult) {
	if len(results) == 0 {
		c.println("No results found.")
		return
	}

	for i, r := range results {
		c.printf("%s %s %s\n",
			c.styles.Source.Render(fmt.Sprintf("[%d]", i+1)),
			r.Source(),
			c.styles.Muted.Render(fmt.Sprintf("(distance %.4f)", r.Distance)))
		if idx, ok := r.Metadata[domain.MetadataChunkIndex]; ok {
			c.muted(fmt.Sprintf("    chunk %v, id %s", idx, r.ID))
		}
		c.printf("    %s\n\n", snippet(r.Document, snippetLength))
	}
}

// snippet collapses whitespace and truncates text to at most n runes.
func snippet(text string, n int) string {
	s := strings.Join(strings.Fields(text), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
