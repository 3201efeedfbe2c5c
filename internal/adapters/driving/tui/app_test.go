package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

// mockPipeline implements driving.PipelineService for testing.
type mockPipeline struct {
	history driving.HistoryResult
	thread  driving.HistoryResult
	entry   driving.EntryResult

	lastLimit  int
	lastThread string
	lastEntry  string
}

func (m *mockPipeline) Process(_ context.Context, _ driving.ProcessRequest) driving.ProcessResult {
	return driving.ProcessResult{}
}

func (m *mockPipeline) Classify(_ context.Context, _ driving.ClassifyRequest) driving.ClassifyResult {
	return driving.ClassifyResult{}
}

func (m *mockPipeline) History(_ context.Context, limit int) driving.HistoryResult {
	m.lastLimit = limit
	return m.history
}

func (m *mockPipeline) Thread(_ context.Context, threadID string) driving.HistoryResult {
	m.lastThread = threadID
	return m.thread
}

func (m *mockPipeline) Browse(_ context.Context, _ driving.HistoryFilter) driving.HistoryResult {
	return driving.HistoryResult{}
}

func (m *mockPipeline) GetEntry(_ context.Context, id string) driving.EntryResult {
	m.lastEntry = id
	return m.entry
}

func (m *mockPipeline) Health(_ context.Context) driving.HealthReport {
	return driving.HealthReport{System: driving.StatusHealthy}
}

func newTestApp(t *testing.T) (*App, *mockPipeline) {
	t.Helper()
	thread := "t-1"
	pipeline := &mockPipeline{
		history: driving.HistoryResult{
			Success: true,
			History: []driving.HistoryItem{{
				ID:           "e-1",
				Source:       domain.SourceEmailHandler,
				DocumentType: domain.FormatEmail,
				Intent:       domain.IntentComplaint,
				Timestamp:    time.Now(),
				Summary:      "Email from a@b.c with high urgency: late delivery",
			}},
			TotalEntries: 1,
		},
		thread: driving.HistoryResult{Success: true},
		entry: driving.EntryResult{Success: true, Entry: &domain.Entry{
			ID:       "e-1",
			Source:   domain.SourceEmailHandler,
			ThreadID: &thread,
		}},
	}
	app, err := NewApp(&Ports{Pipeline: pipeline}, 20)
	require.NoError(t, err)
	app.SetDimensions(100, 40)
	return app, pipeline
}

// run applies msg and feeds the resulting command's message back once.
func run(app *App, msg tea.Msg) tea.Msg {
	_, cmd := app.Update(msg)
	if cmd == nil {
		return nil
	}
	next := cmd()
	app.Update(next)
	return next
}

func TestNewApp_MissingPipeline(t *testing.T) {
	app, err := NewApp(&Ports{}, 0)

	assert.Nil(t, app)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingPipelineService)
}

func TestNewApp_StartsAtMenu(t *testing.T) {
	app, err := NewApp(&Ports{Pipeline: &mockPipeline{}}, 0)

	require.NoError(t, err)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
}

func TestApp_WindowSize(t *testing.T) {
	app, err := NewApp(&Ports{Pipeline: &mockPipeline{}}, 0)
	require.NoError(t, err)

	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "Recent entries")
}

func TestApp_CtrlCQuits(t *testing.T) {
	app, _ := newTestApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_OpenHistory(t *testing.T) {
	app, pipeline := newTestApp(t)

	msg := run(app, messages.ViewChanged{View: messages.ViewHistory})

	assert.IsType(t, messages.HistoryLoaded{}, msg)
	assert.Equal(t, messages.ViewHistory, app.CurrentView())
	assert.Equal(t, 20, pipeline.lastLimit)
	assert.Contains(t, app.View(), "late delivery")
}

func TestApp_SelectEntryAndReturn(t *testing.T) {
	app, pipeline := newTestApp(t)
	run(app, messages.ViewChanged{View: messages.ViewHistory})

	msg := run(app, messages.EntrySelected{ID: "e-1"})

	assert.IsType(t, messages.EntryLoaded{}, msg)
	assert.Equal(t, "e-1", pipeline.lastEntry)
	assert.Equal(t, messages.ViewEntry, app.CurrentView())
	assert.Contains(t, app.View(), "email-handler")

	// esc goes back to the list without reloading it
	pipeline.lastLimit = 0
	run(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewHistory, app.CurrentView())
	assert.Equal(t, 0, pipeline.lastLimit)
}

func TestApp_ThreadRequested(t *testing.T) {
	app, pipeline := newTestApp(t)

	run(app, messages.ThreadRequested{ThreadID: "t-1"})

	assert.Equal(t, messages.ViewHistory, app.CurrentView())
	assert.Equal(t, "t-1", pipeline.lastThread)
	assert.Contains(t, app.View(), "Thread t-1")
}

func TestApp_EntryThreadKey(t *testing.T) {
	app, pipeline := newTestApp(t)
	run(app, messages.EntrySelected{ID: "e-1"})

	msg := run(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})

	assert.Equal(t, messages.ThreadRequested{ThreadID: "t-1"}, msg)
	run(app, msg)
	assert.Equal(t, "t-1", pipeline.lastThread)
}

func TestApp_HistoryFailureRecordsError(t *testing.T) {
	app, pipeline := newTestApp(t)
	pipeline.history = driving.HistoryResult{Error: "Failed to retrieve history: store down"}

	run(app, messages.ViewChanged{View: messages.ViewHistory})

	require.Error(t, app.Err())
	assert.Contains(t, app.View(), "store down")
}

func TestApp_HelpView(t *testing.T) {
	app, _ := newTestApp(t)

	app.Update(messages.ViewChanged{View: messages.ViewHelp})
	assert.Contains(t, app.View(), "Open entry")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_ThreadLookupView(t *testing.T) {
	app, _ := newTestApp(t)

	app.Update(messages.ViewChanged{View: messages.ViewThreadLookup})

	assert.Equal(t, messages.ViewThreadLookup, app.CurrentView())
	assert.Contains(t, app.View(), "Find thread")
}

func TestApp_QuitMessage(t *testing.T) {
	app, _ := newTestApp(t)

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
