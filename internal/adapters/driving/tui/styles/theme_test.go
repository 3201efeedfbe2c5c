package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docflow/internal/core/domain"
)

func TestNewStyles_NilTheme(t *testing.T) {
	s := NewStyles(nil)

	require.NotNil(t, s)
	assert.Equal(t, DefaultTheme(), s.Theme())
}

func TestDefaultStyles(t *testing.T) {
	s := DefaultStyles()

	assert.True(t, s.Title.GetBold())
	assert.True(t, s.Selected.GetBold())
	assert.Equal(t, s.Theme().Primary, s.Selected.GetBackground())
	assert.Equal(t, 14, s.Label.GetWidth())
}

func TestStyles_Intent(t *testing.T) {
	s := DefaultStyles()
	theme := s.Theme()

	tests := []struct {
		intent   domain.Intent
		expected lipgloss.TerminalColor
	}{
		{domain.IntentInvoice, theme.Intents[domain.IntentInvoice]},
		{domain.IntentRFQ, theme.Secondary},
		{domain.IntentComplaint, theme.Error},
		{domain.IntentRegulation, theme.Intents[domain.IntentRegulation]},
		{domain.IntentGeneral, theme.Muted},
		{domain.Intent("unknown"), theme.Muted},
	}

	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			style := s.Intent(tt.intent)
			assert.Equal(t, tt.expected, style.GetForeground())
			assert.True(t, style.GetBold())
		})
	}
}

func TestStyles_CustomTheme(t *testing.T) {
	theme := DefaultTheme()
	theme.Intents = nil
	theme.Primary = lipgloss.Color("#000000")

	s := NewStyles(theme)

	assert.Equal(t, lipgloss.Color("#000000"), s.Title.GetForeground())
	assert.Equal(t, theme.Muted, s.Intent(domain.IntentInvoice).GetForeground())
}
