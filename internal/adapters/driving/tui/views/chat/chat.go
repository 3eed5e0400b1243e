// Package chat provides the question and answer view of the TUI.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/rag-cli/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/rag-cli/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/rag-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/rag-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/rag-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/rag-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/rag-cli/internal/core/domain"
	"github.com/custodia-labs/rag-cli/internal/core/ports/driving"
)

// chromeHeight is the number of rows used by the header, input and status bar.
const chromeHeight = 7

// turn is one question with its answer or failure.
type turn struct {
	question string
	answer   *domain.Answer
	err      error
}

// View is the chat view: a transcript, a question input, an optional
// sources panel and a status bar.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.QuestionInput
	sources    *list.SourceList
	statusbar  *status.Bar
	spinner    spinner.Model
	transcript viewport.Model

	askService driving.AskService
	ctx        context.Context
	topK       int

	turns       []turn
	width       int
	height      int
	ready       bool
	thinking    bool
	showSources bool
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, askService driving.AskService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		sources:    list.NewSourceList(s),
		statusbar:  status.NewBar(s, km),
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Muted)),
		transcript: viewport.New(80, 24-chromeHeight),
		askService: askService,
		ctx:        context.Background(),
		topK:       domain.DefaultTopK,
		width:      80,
		height:     24,
	}
	v.refreshTranscript()
	return v
}

// WithContext sets the context used for ask requests.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithTopK sets how many passages each question retrieves.
func (v *View) WithTopK(k int) *View {
	if k > 0 {
		v.topK = k
	}
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.StatusLoaded:
		if msg.Err == nil && msg.Status != nil {
			v.statusbar.SetIndex(msg.Status.Backend, msg.Status.Records)
		}
		return v, nil

	case messages.ErrorOccurred:
		v.thinking = false
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil

	case spinner.TickMsg:
		if !v.thinking {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Quit):
		return v, func() tea.Msg { return messages.Quit{} }

	case key.Matches(msg, v.keymap.ToggleSources):
		v.toggleSources()
		return v, nil

	case key.Matches(msg, v.keymap.ScrollUp), key.Matches(msg, v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd

	case key.Matches(msg, v.keymap.Clear):
		v.turns = nil
		v.sources.SetSources(nil)
		v.showSources = false
		v.statusbar.Clear()
		v.refreshTranscript()
		return v, nil
	}

	if v.showSources {
		v.sources, _ = v.sources.Update(msg)
		return v, nil
	}

	if key.Matches(msg, v.keymap.Submit) {
		return v.submit()
	}

	if v.thinking {
		return v, nil
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit sends the typed question unless one is already in flight.
func (v *View) submit() (*View, tea.Cmd) {
	question := v.input.Question()
	if question == "" || v.thinking {
		return v, nil
	}

	v.thinking = true
	v.input.Reset()
	v.statusbar.Clear()
	v.statusbar.SetState(status.StateThinking)
	return v, tea.Batch(v.spinner.Tick, v.ask(question))
}

// ask runs the question against the ask service.
func (v *View) ask(question string) tea.Cmd {
	svc, ctx, topK := v.askService, v.ctx, v.topK
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoAskService}
		}
		answer, err := svc.Ask(ctx, question, topK)
		return messages.AnswerReceived{Question: question, Answer: answer, Err: err}
	}
}

// handleAnswer records the answer and shows its sources.
func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.thinking = false
	v.turns = append(v.turns, turn{question: msg.Question, answer: msg.Answer, err: msg.Err})

	if msg.Err != nil {
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
	} else {
		v.statusbar.SetState(status.StateReady)
		v.statusbar.SetMessage("")
		if msg.Answer != nil {
			v.sources.SetSources(msg.Answer.Sources)
		}
	}
	if v.showSources && v.sources.Count() == 0 {
		v.showSources = false
	}

	v.refreshTranscript()
	v.transcript.GotoBottom()
}

func (v *View) toggleSources() {
	if !v.showSources && v.sources.Count() == 0 {
		v.statusbar.SetMessage("No sources yet")
		return
	}
	v.showSources = !v.showSources
	v.statusbar.SetMessage("")
	if v.showSources {
		v.statusbar.SetState(status.StateSources)
	} else if v.statusbar.State() == status.StateSources {
		v.statusbar.SetState(status.StateReady)
	}
}

// refreshTranscript re-renders every turn into the viewport.
func (v *View) refreshTranscript() {
	if len(v.turns) == 0 {
		v.transcript.SetContent(v.styles.Muted.Render(
			"Ask a question about your indexed documents."))
		return
	}

	wrap := lipgloss.NewStyle().Width(v.transcript.Width)
	blocks := make([]string, 0, len(v.turns))
	for _, t := range v.turns {
		var b strings.Builder
		b.WriteString(v.styles.Question.Render("> " + t.question))
		b.WriteString("\n")
		switch {
		case t.err != nil:
			b.WriteString(v.styles.Error.Render("Error: " + t.err.Error()))
		case t.answer != nil:
			b.WriteString(wrap.Render(t.answer.Generation.Text))
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%s | %d sources",
				t.answer.Generation.Model, len(t.answer.Sources))))
		}
		blocks = append(blocks, b.String())
	}
	v.transcript.SetContent(strings.Join(blocks, "\n\n"))
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	sections = append(sections, v.styles.Title.Render("rag chat"), "")

	if v.showSources {
		sections = append(sections, v.sources.View())
	} else {
		sections = append(sections, v.transcript.View())
	}
	sections = append(sections, "")

	if v.thinking {
		sections = append(sections, v.spinner.View()+" "+v.styles.Muted.Render("Thinking..."))
	} else {
		sections = append(sections, v.input.View())
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	body := height - chromeHeight
	if body < 3 {
		body = 3
	}
	v.transcript.Width = width
	v.transcript.Height = body
	v.sources.SetDimensions(width, body)
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.refreshTranscript()
}

// Thinking reports whether a question is awaiting its answer.
func (v *View) Thinking() bool {
	return v.thinking
}

// ShowingSources reports whether the sources panel is open.
func (v *View) ShowingSources() bool {
	return v.showSources
}

// Turns returns the number of answered questions.
func (v *View) Turns() int {
	return len(v.turns)
}

// Input returns the question input component.
func (v *View) Input() *input.QuestionInput {
	return v.input
}

// Sources returns the sources panel component.
func (v *View) Sources() *list.SourceList {
	return v.sources
}

// StatusBar returns the status bar component.
func (v *View) StatusBar() *status.Bar {
	return v.statusbar
}
