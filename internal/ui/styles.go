package ui

import (
	"botdash/internal/dashboard"

	"github.com/charmbracelet/lipgloss"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// LabelStyle for stat labels.
	LabelStyle = lipgloss.NewStyle().Faint(true)

	// RunningStyle marks a running bot or a profitable trade.
	RunningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3fb950"))

	// StoppedStyle marks a stopped bot or a losing trade.
	StoppedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f85149"))

	// PaneStyle frames the terminal pane.
	PaneStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#30363d"))
)

// StatusStyle returns the style for a bot status class.
func StatusStyle(c dashboard.StatusClass) lipgloss.Style {
	if c == dashboard.StatusRunning {
		return RunningStyle
	}
	return StoppedStyle
}

// PnLStyle returns the style for a trade's pnl class.
func PnLStyle(c dashboard.PnLClass) lipgloss.Style {
	switch c {
	case dashboard.PnLProfit:
		return RunningStyle
	case dashboard.PnLLoss:
		return StoppedStyle
	default:
		return lipgloss.NewStyle()
	}
}
