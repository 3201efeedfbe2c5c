// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

// timeLayout is how entry timestamps are shown in the list.
const timeLayout = "2006-01-02 15:04:05"

// EntryList displays history rows in a navigable list.
type EntryList struct {
	items    []driving.HistoryItem
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewEntryList creates a new entry list component.
func NewEntryList(s *styles.Styles) *EntryList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &EntryList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the entry list.
func (l *EntryList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *EntryList) Update(msg tea.Msg) (*EntryList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the entry list.
func (l *EntryList) View() string {
	if len(l.items) == 0 {
		return l.styles.Muted.Render("No entries")
	}

	lines := make([]string, 0, len(l.items)*2)

	// Each row takes two lines: header and summary
	visibleCount := (l.height - 2) / 2
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if l.selected >= visibleCount {
		start = l.selected - visibleCount + 1
	}
	end := start + visibleCount
	if end > len(l.items) {
		end = len(l.items)
	}

	for i := start; i < end; i++ {
		lines = append(lines, l.renderItem(i, &l.items[i]))
	}

	return strings.Join(lines, "\n")
}

// renderItem formats one history row with its summary underneath.
func (l *EntryList) renderItem(index int, item *driving.HistoryItem) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	header := fmt.Sprintf("%s%s  %-13s %-6s",
		indicator, item.Timestamp.Local().Format(timeLayout), item.Source, item.DocumentType)

	var headerLine string
	if index == l.selected {
		headerLine = l.styles.Selected.Render(header) + " " + l.styles.Intent(item.Intent).Render(item.Intent.String())
	} else {
		headerLine = l.styles.Normal.Render(header) + " " + l.styles.Intent(item.Intent).Render(item.Intent.String())
	}

	summary := item.Summary
	maxSummaryLen := l.width - 6
	if maxSummaryLen < 20 {
		maxSummaryLen = 20
	}
	if len(summary) > maxSummaryLen {
		summary = summary[:maxSummaryLen-3] + "..."
	}

	return headerLine + "\n" + l.styles.Muted.Render("    "+summary)
}

// SetItems replaces the list contents and resets the selection.
func (l *EntryList) SetItems(items []driving.HistoryItem) {
	l.items = items
	l.selected = 0
}

// Items returns the current rows.
func (l *EntryList) Items() []driving.HistoryItem {
	return l.items
}

// Selected returns the index of the selected row.
func (l *EntryList) Selected() int {
	return l.selected
}

// SetSelected sets the selected index.
func (l *EntryList) SetSelected(index int) {
	if index >= 0 && index < len(l.items) {
		l.selected = index
	}
}

// SelectedItem returns the currently selected row, or nil if none.
func (l *EntryList) SelectedItem() *driving.HistoryItem {
	if len(l.items) == 0 || l.selected < 0 || l.selected >= len(l.items) {
		return nil
	}
	return &l.items[l.selected]
}

// MoveUp moves selection up.
func (l *EntryList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *EntryList) MoveDown() {
	if l.selected < len(l.items)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *EntryList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of rows.
func (l *EntryList) Count() int {
	return len(l.items)
}

// IsEmpty returns whether the list is empty.
func (l *EntryList) IsEmpty() bool {
	return len(l.items) == 0
}
