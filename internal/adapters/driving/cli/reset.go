package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every record in the vector index",
	Long: `Removes every stored chunk from the configured collection. Run history
is kept. You are asked to confirm unless --yes is given.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, _ []string) error {
	if err := openServices(cmd, NeedIndex); err != nil {
		return err
	}
	if indexingService == nil {
		return errors.New("indexing service not configured")
	}
	ctx := commandContext(cmd)

	status, err := indexingService.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	c := newConsole(cmd)
	if !resetYes {
		prompt := fmt.Sprintf("Delete %d records from collection %q? [y/N]: ", status.Records, status.Collection)
		ok, err := confirm(cmd.InOrStdin(), c, prompt)
		if err != nil {
			return err
		}
		if !ok {
			return ErrResetAborted
		}
	}

	if err := indexingService.Reset(ctx); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	c.success(fmt.Sprintf("Deleted %d records.", status.Records))
	return nil
}

// confirm asks a yes/no question. Non-interactive stdin cannot answer.
func confirm(in io.Reader, c *console, prompt string) (bool, error) {
	if f, ok := in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		return false, ErrConfirmationRequired
	}

	c.printf("%s", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
