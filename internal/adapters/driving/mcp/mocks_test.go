package mcp

import (
	"context"

	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

// mockPipelineService is a mock implementation of driving.PipelineService.
type mockPipelineService struct {
	processResult  driving.ProcessResult
	classifyResult driving.ClassifyResult
	historyResult  driving.HistoryResult
	threadResult   driving.HistoryResult
	browseResult   driving.HistoryResult
	entryResult    driving.EntryResult

	lastProcess  driving.ProcessRequest
	lastClassify driving.ClassifyRequest
	lastLimit    int
	lastFilter   driving.HistoryFilter
	lastThread   string
	lastEntryID  string
}

func (m *mockPipelineService) Process(_ context.Context, req driving.ProcessRequest) driving.ProcessResult {
	m.lastProcess = req
	return m.processResult
}

func (m *mockPipelineService) Classify(_ context.Context, req driving.ClassifyRequest) driving.ClassifyResult {
	m.lastClassify = req
	return m.classifyResult
}

func (m *mockPipelineService) History(_ context.Context, limit int) driving.HistoryResult {
	m.lastLimit = limit
	return m.historyResult
}

func (m *mockPipelineService) Thread(_ context.Context, threadID string) driving.HistoryResult {
	m.lastThread = threadID
	return m.threadResult
}

func (m *mockPipelineService) Browse(_ context.Context, filter driving.HistoryFilter) driving.HistoryResult {
	m.lastFilter = filter
	return m.browseResult
}

func (m *mockPipelineService) GetEntry(_ context.Context, id string) driving.EntryResult {
	m.lastEntryID = id
	return m.entryResult
}

func (m *mockPipelineService) Health(_ context.Context) driving.HealthReport {
	return driving.HealthReport{System: driving.StatusHealthy}
}
