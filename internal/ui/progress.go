// Package ui renders pipeline progress for non-interactive evaluation.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"surgepad/internal/compile"
)

type evalModel struct {
	title      string
	events     <-chan compile.Event
	spinner    spinner.Model
	prog       progress.Model
	stageLabel string
	lastErr    error
	width      int
	done       bool
}

type eventMsg compile.Event
type doneMsg struct{}

// NewEvalModel returns a Bubble Tea model that renders the compile and
// run stages of one snippet evaluation.
func NewEvalModel(title string, events <-chan compile.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	return &evalModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		width:   80,
	}
}

func (m *evalModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *evalModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		evt := compile.Event(msg)
		cmd := m.applyEvent(evt)
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *evalModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := truncate(m.title, m.width-16)
	if m.stageLabel != "" {
		header = fmt.Sprintf("%s (%s)", header, m.stageLabel)
	}
	switch {
	case m.lastErr != nil:
		header = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render("failed: ") + header
	case m.done:
		header = fmt.Sprintf("done: %s", header)
	default:
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *evalModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(evt)
	}
}

func (m *evalModel) applyEvent(evt compile.Event) tea.Cmd {
	if label := statusLabel(evt.Stage, evt.Status); label != "" {
		m.stageLabel = label
	}
	if evt.Status == compile.StatusError {
		m.lastErr = evt.Err
	}
	return m.prog.SetPercent(progressFromStage(evt.Stage, evt.Status))
}

func progressFromStage(stage compile.Stage, status compile.Status) float64 {
	base := 0.0
	switch stage {
	case compile.StageWrite:
		base = 0.1
	case compile.StageCompile:
		base = 0.5
	case compile.StageLink:
		base = 0.7
	case compile.StageRun:
		base = 0.9
	}
	if status == compile.StatusDone || status == compile.StatusError {
		base += 0.1
	}
	if base > 1.0 {
		base = 1.0
	}
	return base
}

func statusLabel(stage compile.Stage, status compile.Status) string {
	switch status {
	case compile.StatusQueued:
		return "queued"
	case compile.StatusDone:
		return "done"
	case compile.StatusError:
		return "error"
	case compile.StatusWorking:
		return stageLabel(stage)
	default:
		return ""
	}
}

func stageLabel(stage compile.Stage) string {
	switch stage {
	case compile.StageWrite:
		return "writing"
	case compile.StageCompile:
		return "compiling"
	case compile.StageLink:
		return "linking"
	case compile.StageRun:
		return "running"
	default:
		return ""
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
