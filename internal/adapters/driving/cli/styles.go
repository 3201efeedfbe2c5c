package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Colours follow the docflow terminal palette.
var (
	colourPrimary = lipgloss.Color("#7C3AED") // Purple
	colourAccent  = lipgloss.Color("#06B6D4") // Cyan
	colourMuted   = lipgloss.Color("#6C7086") // Medium gray
	colourSuccess = lipgloss.Color("#A6E3A1") // Green
	colourError   = lipgloss.Color("#F38BA8") // Red
)

// Pre-configured styles for command output. lipgloss drops the colours when
// stdout is not a terminal.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colourPrimary)

	labelStyle = lipgloss.NewStyle().
			Foreground(colourAccent)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colourMuted)

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colourSuccess)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colourError)
)

// statusLabel renders a success flag.
func statusLabel(ok bool) string {
	if ok {
		return successStyle.Render("OK")
	}
	return errorStyle.Render("FAILED")
}
