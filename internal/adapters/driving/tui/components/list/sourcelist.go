// Package list provides the sources panel of the chat TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/rag-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/rag-cli/internal/core/domain"
)

// linesPerSource is the number of rows one source occupies.
const linesPerSource = 2

// SourceList displays the passages an answer was grounded on, numbered
// as they were cited in the prompt.
type SourceList struct {
	sources  []domain.SearchResult
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewSourceList creates a new source list component.
func NewSourceList(s *styles.Styles) *SourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &SourceList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the source list.
func (r *SourceList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *SourceList) Update(msg tea.Msg) (*SourceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		//nolint:exhaustive // handling only relevant key types
		switch msg.Type {
		case tea.KeyUp:
			r.MoveUp()
		case tea.KeyDown:
			r.MoveDown()
		default:
		}
	}
	return r, nil
}

// View renders the source list.
func (r *SourceList) View() string {
	if len(r.sources) == 0 {
		return r.styles.Muted.Render("No sources")
	}

	lines := make([]string, 0, len(r.sources)*linesPerSource+2)
	lines = append(lines, r.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(r.sources))), "")

	visible := (r.height - 2) / linesPerSource
	if visible < 1 {
		visible = 1
	}
	start := 0
	if r.selected >= visible {
		start = r.selected - visible + 1
	}
	end := start + visible
	if end > len(r.sources) {
		end = len(r.sources)
	}

	for i := start; i < end; i++ {
		lines = append(lines, r.renderSource(i, &r.sources[i]))
	}
	return strings.Join(lines, "\n")
}

// renderSource formats one source and a preview of its text.
func (r *SourceList) renderSource(index int, result *domain.SearchResult) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	label := r.styles.Source.Render(fmt.Sprintf("[Source %d]", index+1))
	name := truncate(result.Source(), r.width-30)
	distance := r.styles.Muted.Render(fmt.Sprintf("%.4f", result.Distance))
	head := fmt.Sprintf("%s%s %s  %s", indicator, label, name, distance)
	if index == r.selected {
		head = fmt.Sprintf("%s%s %s  %s", indicator, label, r.styles.Title.Render(name), distance)
	}

	preview := truncate(strings.Join(strings.Fields(result.Document), " "), r.width-6)
	return head + "\n" + r.styles.Muted.Render("    "+preview)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if n < 10 {
		n = 10
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// SetSources replaces the listed sources and selects the first.
func (r *SourceList) SetSources(sources []domain.SearchResult) {
	r.sources = sources
	r.selected = 0
}

// Sources returns the listed sources.
func (r *SourceList) Sources() []domain.SearchResult {
	return r.sources
}

// Selected returns the index of the selected source.
func (r *SourceList) Selected() int {
	return r.selected
}

// SelectedSource returns the selected source, or nil if none.
func (r *SourceList) SelectedSource() *domain.SearchResult {
	if r.selected < 0 || r.selected >= len(r.sources) {
		return nil
	}
	return &r.sources[r.selected]
}

// MoveUp moves selection up.
func (r *SourceList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *SourceList) MoveDown() {
	if r.selected < len(r.sources)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *SourceList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of sources.
func (r *SourceList) Count() int {
	return len(r.sources)
}
