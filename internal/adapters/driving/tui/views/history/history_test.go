package history

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
	history    driving.HistoryResult
	thread     driving.HistoryResult
	lastLimit  int
	lastThread string
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

func (m *mockPipeline) GetEntry(_ context.Context, _ string) driving.EntryResult {
	return driving.EntryResult{}
}

func (m *mockPipeline) Health(_ context.Context) driving.HealthReport {
	return driving.HealthReport{}
}

func item(id, summary string) driving.HistoryItem {
	return driving.HistoryItem{
		ID:           id,
		Source:       domain.SourceClassifier,
		DocumentType: domain.FormatPDF,
		Intent:       domain.IntentRegulation,
		Timestamp:    time.Now(),
		Summary:      summary,
	}
}

func TestNewView_DefaultLimit(t *testing.T) {
	view := NewView(nil, &mockPipeline{}, 0)

	require.NotNil(t, view)
	assert.Equal(t, DefaultLimit, view.limit)
	assert.Nil(t, view.Init())
}

func TestView_ShowRecent(t *testing.T) {
	pipeline := &mockPipeline{history: driving.HistoryResult{
		Success: true,
		History: []driving.HistoryItem{item("e-1", "Classified as pdf format with regulation intent")},
	}}
	view := NewView(nil, pipeline, 25)

	cmd := view.ShowRecent()
	assert.True(t, view.Loading())
	require.NotNil(t, cmd)

	msg := cmd()
	assert.Equal(t, 25, pipeline.lastLimit)
	view.Update(msg)

	assert.False(t, view.Loading())
	assert.NoError(t, view.Err())
	assert.Len(t, view.Items(), 1)
	assert.Equal(t, "Recent entries", view.Title())
	assert.Contains(t, view.View(), "regulation intent")
}

func TestView_ShowThread(t *testing.T) {
	pipeline := &mockPipeline{thread: driving.HistoryResult{
		Success: true,
		History: []driving.HistoryItem{item("e-1", "first"), item("e-2", "second")},
	}}
	view := NewView(nil, pipeline, 10)

	msg := view.ShowThread("t-9")()
	view.Update(msg)

	assert.Equal(t, "t-9", pipeline.lastThread)
	assert.Equal(t, "t-9", view.ThreadID())
	assert.Equal(t, "Thread t-9", view.Title())
	assert.Len(t, view.Items(), 2)
}

func TestView_FailedLoad(t *testing.T) {
	pipeline := &mockPipeline{history: driving.HistoryResult{Error: "Failed to retrieve history: boom"}}
	view := NewView(nil, pipeline, 10)

	view.Update(view.ShowRecent()())

	require.Error(t, view.Err())
	assert.Contains(t, view.View(), "Error: Failed to retrieve history: boom")
}

func TestView_NilPipeline(t *testing.T) {
	view := NewView(nil, nil, 10)

	msg := view.ShowRecent()()

	loaded, ok := msg.(messages.HistoryLoaded)
	require.True(t, ok)
	assert.Error(t, loaded.Err)
}

func TestView_StaleResultsIgnored(t *testing.T) {
	view := NewView(nil, &mockPipeline{}, 10)
	view.ShowThread("t-2")

	view.Update(messages.HistoryLoaded{ThreadID: "", Items: []driving.HistoryItem{item("e-1", "old")}})

	assert.True(t, view.Loading())
	assert.Empty(t, view.Items())
}

func TestView_EnterSelectsEntry(t *testing.T) {
	view := NewView(nil, &mockPipeline{}, 10)
	view.Update(messages.HistoryLoaded{Items: []driving.HistoryItem{item("e-1", "a"), item("e-2", "b")}})

	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.EntrySelected{ID: "e-2"}, cmd())
}

func TestView_EnterOnEmptyList(t *testing.T) {
	view := NewView(nil, &mockPipeline{}, 10)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
}

func TestView_RefreshReloads(t *testing.T) {
	pipeline := &mockPipeline{history: driving.HistoryResult{Success: true}}
	view := NewView(nil, pipeline, 10)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})

	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, 10, pipeline.lastLimit)
}

func TestView_EscReturnsToMenu(t *testing.T) {
	view := NewView(nil, &mockPipeline{}, 10)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_LoadingView(t *testing.T) {
	view := NewView(nil, &mockPipeline{}, 10)
	view.ShowRecent()

	assert.Contains(t, view.View(), "Loading entries...")
}
