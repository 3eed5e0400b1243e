package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the vector index status",
	Long:  `Shows the index backend, the number of stored chunks and the most recent indexing runs.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output status as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if err := openServices(cmd, NeedIndex); err != nil {
		return err
	}
	if indexingService == nil {
		return errors.New("indexing service not configured")
	}

	status, err := indexingService.Status(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	if statusJSON {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	c := newConsole(cmd)
	c.title("Index")
	c.printf("  Backend:    %s\n", status.Backend)
	c.printf("  Collection: %s\n", status.Collection)
	c.printf("  Records:    %d\n", status.Records)
	if status.Records == 0 {
		c.println()
		c.muted("The index is empty. Run 'rag index PATH' to add documents.")
	}

	if len(status.RecentRuns) > 0 {
		c.println()
		c.title("Recent runs")
		for _, run := range status.RecentRuns {
			c.printf("  %s  %s\n", run.StartedAt.Local().Format(time.DateTime), describeRun(c, run))
		}
	}
	return nil
}

func describeRun(c *console, run domain.IndexRun) string {
	if !run.Succeeded() {
		return c.styles.Error.Render("failed: " + run.Error)
	}
	s := run.Summary
	desc := fmt.Sprintf("%d documents, %d of %d chunks added in %s",
		s.DocumentsProcessed, s.ChunksAdded, s.ChunksTotal, s.Elapsed.Round(time.Millisecond))
	if run.Fresh {
		desc += " (fresh)"
	}
	return desc
}
