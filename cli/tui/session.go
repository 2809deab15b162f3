package tui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/scanwatch/cli/reader"
)

// SessionModel is a Bubble Tea model for a session report.
type SessionModel struct {
	data     any
	width    int
	height   int
	quitting bool
}

// NewSessionModel creates a session model. data should be a
// *reader.SessionStats; anything else renders an error line.
func NewSessionModel(data any) SessionModel {
	return SessionModel{data: data}
}

// Init implements tea.Model.
func (m SessionModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}
	help := helpStyle.Render("Press q or Ctrl+C to quit")
	return m.renderSession() + "\n" + help
}

func (m SessionModel) renderSession() string {
	s, ok := m.data.(*reader.SessionStats)
	if !ok || s == nil {
		return errorStyle.Render("Invalid data type for " + ViewSession)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Session " + s.SessionID))
	b.WriteString("\n")

	field := func(label, value string, color lipgloss.TerminalColor) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Foreground(color).Render(value))
		b.WriteString("\n")
	}
	field("Source:", s.Source, text)
	field("Backend:", s.Backend, text)
	field("Started:", s.StartedAt, text)
	field("Duration:", (time.Duration(s.DurationMS) * time.Millisecond).String(), text)
	field("Stopped by:", s.Reason, reasonColor(s.Reason))
	field("Hit rate:", fmt.Sprintf("%.1f%%", s.HitRate()*100), text)
	b.WriteString("\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		renderStatBox("Frames", s.FramesRead, info),
		renderStatBox("Attempts", s.Attempts, info),
		renderStatBox("Emitted", s.Emitted, good),
	))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		renderStatBox("Suppressed", s.Suppressed, caution),
		renderStatBox("Misses", s.Misses, dim),
		renderStatBox("Faults", s.Faults(), bad),
	))

	if len(s.EmittedBySymbology) > 0 {
		b.WriteString("\n\n")
		b.WriteString(titleStyle.Render("By symbology"))
		b.WriteString("\n")
		names := make([]string, 0, len(s.EmittedBySymbology))
		for name := range s.EmittedBySymbology {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			field(name, fmt.Sprintf("%d", s.EmittedBySymbology[name]), text)
		}
	}

	return b.String()
}

func renderStatBox(label string, value int64, color lipgloss.TerminalColor) string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		counterValue.Foreground(color).Render(fmt.Sprintf("%d", value)),
		counterLabel.Render(label),
	)
	return counterBox.BorderForeground(color).Render(content)
}

// RenderStatic renders the session view without starting a program.
func RenderStatic(data any) string {
	model := NewSessionModel(data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
