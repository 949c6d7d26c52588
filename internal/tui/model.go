// Package tui renders a live view of a navigation batch.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/vburojevic/simnav/internal/domain"
	"github.com/vburojevic/simnav/internal/output"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

type eventMsg struct{ v any }

type feedClosedMsg struct{}

// Model is the bubbletea model for a running batch
type Model struct {
	events  <-chan any
	spinner spinner.Model

	mode     *domain.ModeSelected
	current  *domain.RunStart
	lastStep *domain.StepEvent
	finished []*domain.RunEnd
	summary  *domain.BatchSummary
	errors   []string
	done     bool
	quitting bool
}

// New creates a model reading from events
func New(events <-chan any) Model {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = titleStyle
	return Model{events: events, spinner: s}
}

func waitForEvent(events <-chan any) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-events
		if !ok {
			return feedClosedMsg{}
		}
		return eventMsg{v: v}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case eventMsg:
		m.apply(msg.v)
		return m, waitForEvent(m.events)
	case feedClosedMsg:
		m.done = true
		m.current = nil
	}
	return m, nil
}

func (m *Model) apply(v any) {
	switch ev := v.(type) {
	case *domain.ModeSelected:
		m.mode = ev
	case *domain.RunStart:
		m.current = ev
		m.lastStep = nil
	case *domain.StepEvent:
		m.lastStep = ev
	case *domain.RunEnd:
		m.finished = append(m.finished, ev)
		m.current = nil
	case *domain.BatchSummary:
		m.summary = ev
	case *output.ErrorOutput:
		m.errors = append(m.errors, fmt.Sprintf("[%s] %s", ev.Code, ev.Message))
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("simnav"))
	if m.mode != nil {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  mode=%s (%s)", m.mode.Mode, m.mode.Reason)))
	}
	b.WriteString("\n\n")

	for _, end := range m.finished {
		b.WriteString(runLine(end))
		b.WriteString("\n")
	}

	if m.current != nil {
		fmt.Fprintf(&b, "%s run %d/%d → %s (%s)\n", m.spinner.View(), m.current.Index, m.current.Total, m.current.Corner, m.current.Mode)
		if s := m.lastStep; s != nil {
			b.WriteString(dimStyle.Render(fmt.Sprintf("   step %d %s heading=%.0f° stuck=%d collisions=%d",
				s.Step, s.Action, s.Heading, s.Stuck, s.Collisions)))
			b.WriteString("\n")
		}
	}

	if m.summary != nil {
		fmt.Fprintf(&b, "\nreached %d/%d  mean collisions %.2f  vision used %t\n",
			m.summary.Succeeded, m.summary.Attempted, m.summary.MeanCollisions, m.summary.VisionUsed)
	}
	for _, e := range m.errors {
		b.WriteString(failStyle.Render(e))
		b.WriteString("\n")
	}

	if m.done {
		b.WriteString(dimStyle.Render("\nbatch finished, press q to exit"))
	} else {
		b.WriteString(dimStyle.Render("\nq to quit"))
	}
	b.WriteString("\n")
	return b.String()
}

func runLine(end *domain.RunEnd) string {
	switch {
	case end.Failed:
		return failStyle.Render(fmt.Sprintf("✗ %s failed: %s", end.Corner, end.Error))
	case end.Reached:
		return okStyle.Render(fmt.Sprintf("✓ %s reached, %d collisions, %d steps", end.Corner, end.Collisions, end.Steps))
	default:
		return warnStyle.Render(fmt.Sprintf("… %s timed out, %d collisions, %d steps", end.Corner, end.Collisions, end.Steps))
	}
}
