// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewHistory lists recent entries or the entries of one thread.
	ViewHistory
	// ViewThreadLookup asks for a thread id.
	ViewThreadLookup
	// ViewEntry shows a single entry.
	ViewEntry
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewHistory:
		return "history"
	case ViewThreadLookup:
		return "thread_lookup"
	case ViewEntry:
		return "entry"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// HistoryLoaded carries a page of history rows. ThreadID is empty for the
// recent-entries list.
type HistoryLoaded struct {
	ThreadID string
	Items    []driving.HistoryItem
	Err      error
}

// ThreadRequested asks for the entries of a thread.
type ThreadRequested struct {
	ThreadID string
}

// EntrySelected signals an entry was picked from a list.
type EntrySelected struct {
	ID string
}

// EntryLoaded carries a single entry.
type EntryLoaded struct {
	ID    string
	Entry *domain.Entry
	Err   error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
