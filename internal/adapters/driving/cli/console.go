package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/rag-cli/internal/adapters/driving/tui/styles"
)

// progressWidth is the width of the embedding progress bar in cells.
const progressWidth = 40

// console writes styled command output. Colour is only emitted when the
// output is a terminal.
type console struct {
	out    io.Writer
	styles *styles.Styles
	tty    bool
}

func newConsole(cmd *cobra.Command) *console {
	out := cmd.OutOrStdout()
	return &console{
		out:    out,
		styles: styles.NewRendererStyles(lipgloss.NewRenderer(out), nil),
		tty:    isTerminal(out),
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (c *console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *console) println(args ...any) {
	fmt.Fprintln(c.out, args...)
}

func (c *console) title(s string) {
	c.println(c.styles.Title.Render(s))
}

func (c *console) success(s string) {
	c.println(c.styles.Success.Render(s))
}

func (c *console) warn(s string) {
	c.println(c.styles.Warning.Render(s))
}

func (c *console) muted(s string) {
	c.println(c.styles.Muted.Render(s))
}

// progressReporter draws an embedding progress bar on terminals and
// stays silent otherwise.
type progressReporter struct {
	c     *console
	bar   progress.Model
	drawn bool
}

func newProgressReporter(c *console) *progressReporter {
	return &progressReporter{
		c:   c,
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(progressWidth)),
	}
}

// Report matches services.ProgressFunc.
func (p *progressReporter) Report(done, total int) {
	if !p.c.tty || total <= 0 {
		return
	}
	p.drawn = true
	p.c.printf("\r%s %d/%d chunks", p.bar.ViewAs(float64(done)/float64(total)), done, total)
}

// Finish ends the progress line if one was drawn.
func (p *progressReporter) Finish() {
	if p.drawn {
		p.c.println()
		p.drawn = false
	}
}
