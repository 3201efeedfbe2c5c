// Package menu is the landing screen of the audit-trail browser.
package menu

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/styles"
)

// Item is one destination on the landing screen.
type Item struct {
	Label string
	Hint  string
	View  messages.ViewType
	Quit  bool
}

// View lists the browser's destinations. Items can be picked with the
// cursor or by their 1-based number.
type View struct {
	styles   *styles.Styles
	keys     *keymap.KeyMap
	items    []Item
	selected int
	width    int
	height   int
	ready    bool
}

// NewView builds the landing screen. A nil styles value uses the defaults.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		keys:   keymap.DefaultKeyMap(),
		items: []Item{
			{Label: "Recent entries", Hint: "newest processed documents", View: messages.ViewHistory},
			{Label: "Find thread", Hint: "entries sharing a thread id", View: messages.ViewThreadLookup},
			{Label: "Help", Hint: "keys and commands", View: messages.ViewHelp},
			{Label: "Quit", Quit: true},
		},
		width:  80,
		height: 24,
	}
}

// Init implements tea.Model.
func (v *View) Init() tea.Cmd { return nil }

// Update moves the cursor or opens a destination.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		return v, v.handleKey(msg)
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Up):
		v.move(-1)
	case key.Matches(msg, v.keys.Down):
		v.move(1)
	case key.Matches(msg, v.keys.Select):
		return v.open(v.selected)
	case key.Matches(msg, v.keys.Quit):
		return tea.Quit
	default:
		if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 && n <= len(v.items) {
			v.selected = n - 1
			return v.open(v.selected)
		}
	}
	return nil
}

func (v *View) move(delta int) {
	next := v.selected + delta
	if next < 0 || next >= len(v.items) {
		return
	}
	v.selected = next
}

func (v *View) open(index int) tea.Cmd {
	item := v.items[index]
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg { return messages.ViewChanged{View: item.View} }
}

// View renders the destinations with the cursor on the selected one.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("docflow"))
	b.WriteString("\n")
	b.WriteString(v.styles.Subtitle.Render("Document processing audit trail"))
	b.WriteString("\n\n")

	for i, item := range v.items {
		cursor, style := "  ", v.styles.Normal
		if i == v.selected {
			cursor, style = "> ", v.styles.Selected
		}
		line := fmt.Sprintf("%s%d. %s", cursor, i+1, style.Render(item.Label))
		if item.Hint != "" && v.width >= 60 {
			line += "  " + v.styles.Muted.Render(item.Hint)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render(fmt.Sprintf("[j/k] Navigate  [1-%d] Jump  [Enter] Select  [q] Quit", len(v.items))))
	return b.String()
}

// SetDimensions records the terminal size and marks the view ready.
func (v *View) SetDimensions(width, height int) {
	v.width, v.height = width, height
	v.ready = true
}

// Selected returns the cursor index.
func (v *View) Selected() int { return v.selected }

// Items returns the destinations in display order.
func (v *View) Items() []Item { return v.items }
