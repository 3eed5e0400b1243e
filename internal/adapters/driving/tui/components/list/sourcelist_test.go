package list

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rag-cli/internal/core/domain"
)

func sampleSources() []domain.SearchResult {
	return []domain.SearchResult{
		{ID: "1", Document: "Refunds are issued\nwithin 14 days.", Distance: 0.1,
			Metadata: map[string]any{domain.MetadataSource: "policy.md"}},
		{ID: "2", Document: "Shipping takes a week.", Distance: 0.2,
			Metadata: map[string]any{domain.MetadataSource: "shipping.txt"}},
		{ID: "3", Document: "No metadata here.", Distance: 0.3},
	}
}

func TestNewSourceList(t *testing.T) {
	l := NewSourceList(nil)

	require.NotNil(t, l)
	assert.NotNil(t, l.styles)
	assert.Zero(t, l.Count())
	assert.Nil(t, l.SelectedSource())
	assert.Nil(t, l.Init())
}

func TestSourceList_ViewEmpty(t *testing.T) {
	assert.Contains(t, NewSourceList(nil).View(), "No sources")
}

func TestSourceList_View(t *testing.T) {
	l := NewSourceList(nil)
	l.SetSources(sampleSources())

	view := l.View()

	assert.Contains(t, view, "Sources (3)")
	assert.Contains(t, view, "[Source 1]")
	assert.Contains(t, view, "policy.md")
	assert.Contains(t, view, "Refunds are issued within 14 days.")
	assert.Contains(t, view, "unknown")
}

func TestSourceList_Navigation(t *testing.T) {
	l := NewSourceList(nil)
	l.SetSources(sampleSources())

	l.MoveUp()
	assert.Equal(t, 0, l.Selected(), "cannot move above the first source")

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyDown})
	l.MoveDown()
	l.MoveDown()
	assert.Equal(t, 2, l.Selected(), "cannot move past the last source")

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyUp})
	require.NotNil(t, l.SelectedSource())
	assert.Equal(t, "2", l.SelectedSource().ID)
}

func TestSourceList_SetSourcesResetsSelection(t *testing.T) {
	l := NewSourceList(nil)
	l.SetSources(sampleSources())
	l.MoveDown()

	l.SetSources(sampleSources()[:1])

	assert.Equal(t, 0, l.Selected())
	assert.Len(t, l.Sources(), 1)
}

func TestSourceList_ScrollsToSelection(t *testing.T) {
	l := NewSourceList(nil)
	l.SetDimensions(80, 4) // room for one source
	l.SetSources(sampleSources())
	l.MoveDown()
	l.MoveDown()

	view := l.View()

	assert.Contains(t, view, "[Source 3]")
	assert.NotContains(t, view, "[Source 1]")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 20))
	long := strings.Repeat("x", 50)
	got := truncate(long, 20)
	assert.Len(t, []rune(got), 20)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Len(t, []rune(truncate(long, 2)), 10, "width never drops below ten")
}
