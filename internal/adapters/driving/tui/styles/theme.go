// Package styles holds the colour palette and lipgloss styles of the browser.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docflow/internal/core/domain"
)

// Theme is the colour palette.
type Theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Error     lipgloss.Color
	Border    lipgloss.Color
	BarBG     lipgloss.Color

	// Intents colours the intent tag of each entry. Intents missing from
	// the map use Muted.
	Intents map[domain.Intent]lipgloss.Color
}

// DefaultTheme returns the dark palette.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:   lipgloss.Color("#2563EB"),
		Secondary: lipgloss.Color("#06B6D4"),
		Text:      lipgloss.Color("#CDD6F4"),
		Muted:     lipgloss.Color("#6C7086"),
		Error:     lipgloss.Color("#F38BA8"),
		Border:    lipgloss.Color("#45475A"),
		BarBG:     lipgloss.Color("#181825"),
		Intents: map[domain.Intent]lipgloss.Color{
			domain.IntentInvoice:    lipgloss.Color("#A6E3A1"),
			domain.IntentRFQ:        lipgloss.Color("#06B6D4"),
			domain.IntentComplaint:  lipgloss.Color("#F38BA8"),
			domain.IntentRegulation: lipgloss.Color("#F9E2AF"),
		},
	}
}

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	theme *Theme

	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Selected   lipgloss.Style
	Error      lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Help       lipgloss.Style

	// Label pads field names in the entry view to a fixed column.
	Label lipgloss.Style
}

// NewStyles derives styles from theme. A nil theme means DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	return &Styles{
		theme:    theme,
		Title:    lipgloss.NewStyle().Bold(true).Foreground(theme.Primary),
		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary),
		Normal:   lipgloss.NewStyle().Foreground(theme.Text),
		Muted:    lipgloss.NewStyle().Foreground(theme.Muted),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(theme.Text).Background(theme.Primary),
		Error:    lipgloss.NewStyle().Foreground(theme.Error),
		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
		StatusBar: lipgloss.NewStyle().Foreground(theme.Muted).Background(theme.BarBG).Padding(0, 1),
		Help:      lipgloss.NewStyle().Foreground(theme.Muted),
		Label:     lipgloss.NewStyle().Foreground(theme.Secondary).Width(14),
	}
}

// DefaultStyles returns styles for the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

func (s *Styles) Theme() *Theme {
	return s.theme
}

// Intent returns the bold style used to tag an entry's intent.
func (s *Styles) Intent(intent domain.Intent) lipgloss.Style {
	color, ok := s.theme.Intents[intent]
	if !ok {
		color = s.theme.Muted
	}
	return lipgloss.NewStyle().Bold(true).Foreground(color)
}
