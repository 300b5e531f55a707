package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary = lipgloss.Color("#7D56F4")
	ColorMuted   = lipgloss.Color("#6C6C6C")
	ColorSuccess = lipgloss.Color("#04B575")
	ColorDanger  = lipgloss.Color("#FF5F87")

	TitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	HighlightStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	SubtleStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
	SuccessStyle   = lipgloss.NewStyle().Foreground(ColorSuccess)
	ErrorStyle     = lipgloss.NewStyle().Foreground(ColorDanger)
	BorderStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2)
)
