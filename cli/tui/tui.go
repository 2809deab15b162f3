// Package tui provides Bubble Tea views for the scanwatch CLI.
//
// TUI mode is opt-in (--tui) and read-only. It renders the same payloads
// as the json, table, and yaml formats and never shows data they lack.
package tui

import (
	"fmt"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
)

// ViewSession renders one stored session report.
const ViewSession = "stats_session"

var supportedViews = []string{ViewSession}

// Run starts the TUI for viewType.
func Run(viewType string, data any) error {
	if !IsTUISupported(viewType) {
		return fmt.Errorf("TUI mode is not supported for %s", viewType)
	}
	p := tea.NewProgram(NewSessionModel(data), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// IsTUISupported returns true if the view type supports TUI mode.
func IsTUISupported(viewType string) bool {
	return slices.Contains(supportedViews, viewType)
}

// SupportedTUIViews returns the view types that support TUI mode.
func SupportedTUIViews() []string {
	return slices.Clone(supportedViews)
}
