package tui

import "github.com/charmbracelet/lipgloss"

// Palette. Each color has a light and a dark terminal variant.
var (
	accent  = lipgloss.AdaptiveColor{Light: "#5B21B6", Dark: "#A78BFA"}
	good    = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}
	caution = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	bad     = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	dim     = lipgloss.AdaptiveColor{Light: "#4B5563", Dark: "#9CA3AF"}
	info    = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	text    = lipgloss.AdaptiveColor{Light: "#111827", Dark: "#F9FAFB"}
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1)
	labelStyle = lipgloss.NewStyle().Foreground(dim).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(text)
	helpStyle  = lipgloss.NewStyle().Foreground(dim).Italic(true).MarginTop(1)
	errorStyle = lipgloss.NewStyle().Foreground(bad).Bold(true)

	counterBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(14).
			Align(lipgloss.Center)
	counterValue = lipgloss.NewStyle().Bold(true)
	counterLabel = lipgloss.NewStyle().Foreground(dim)
)

// reasonColor maps a session stop reason to its color. Stops the operator
// asked for are good, a source swap is a caution and a lost source is bad.
func reasonColor(reason string) lipgloss.TerminalColor {
	switch reason {
	case "disabled", "stop requested", "engine closed", "source detached":
		return good
	case "source changed":
		return caution
	case "source lost":
		return bad
	default:
		return text
	}
}
