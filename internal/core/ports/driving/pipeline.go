package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/docflow/internal/core/domain"
)

// PipelineService is the processing entry point exposed to the HTTP, MCP and CLI shims.
// Every method returns a tagged result and never an error or a panic.
type PipelineService interface {
	// Process classifies content, dispatches it to a handler and records both stages.
	Process(ctx context.Context, req ProcessRequest) ProcessResult

	// Classify runs classification only and records one classifier entry.
	Classify(ctx context.Context, req ClassifyRequest) ClassifyResult

	// History summarises the most recent entries, newest first.
	History(ctx context.Context, limit int) HistoryResult

	// Thread summarises the entries of one thread, oldest first.
	Thread(ctx context.Context, threadID string) HistoryResult

	// Browse summarises the entries matching a filter.
	Browse(ctx context.Context, filter HistoryFilter) HistoryResult

	// GetEntry looks up a single entry.
	GetEntry(ctx context.Context, id string) EntryResult

	// Health reports component status.
	Health(ctx context.Context) HealthReport
}

// ProcessRequest is the input to PipelineService.Process.
type ProcessRequest struct {
	// Content is the document text.
	Content string

	// ContentType is a format hint from the front door ("auto" for raw text).
	ContentType string

	// Metadata is caller context merged over the classification context.
	// thread_id and conversation_id tag every entry the request writes.
	Metadata map[string]any

	// ModelID optionally selects a model; empty uses the default.
	ModelID string
}

// ClassifyRequest is the input to PipelineService.Classify.
type ClassifyRequest struct {
	Content  string
	Metadata map[string]any
	ModelID  string
}

// ProcessData bundles the outputs of a successful pipeline run.
type ProcessData struct {
	Classification   domain.Classification `json:"classification"`
	ProcessingResult domain.Values         `json:"processing_result"`
	RoutingTarget    domain.RoutingTarget  `json:"routing_target"`
}

// ProcessResult is the response of PipelineService.Process.
type ProcessResult struct {
	Success  bool         `json:"success"`
	Message  string       `json:"message"`
	Data     *ProcessData `json:"data,omitempty"`
	MemoryID string       `json:"memory_id,omitempty"`
}

// ClassifyResult is the response of the classifier stage.
// RoutingTarget is always one of the known handler tags, even on failure.
type ClassifyResult struct {
	Success        bool                   `json:"success"`
	Classification *domain.Classification `json:"classification,omitempty"`
	RoutingTarget  domain.RoutingTarget   `json:"routing_target"`
	MemoryID       string                 `json:"memory_id,omitempty"`
	Error          string                 `json:"error,omitempty"`
}

// HistoryItem is one summarised entry.
type HistoryItem struct {
	ID           string                `json:"id"`
	Source       domain.EntrySource    `json:"source"`
	DocumentType domain.DocumentFormat `json:"document_type"`
	Intent       domain.Intent         `json:"intent"`
	Timestamp    time.Time             `json:"timestamp"`
	Summary      string                `json:"summary"`
}

// HistoryFilter narrows Browse. A conversation is listed oldest first; type
// and intent selections are newest first. Set fields combine as an
// intersection. Limit caps the result; zero or less means no cap, except for
// an empty filter, which behaves like History.
type HistoryFilter struct {
	DocumentType   domain.DocumentFormat
	Intent         domain.Intent
	ConversationID string
	Limit          int
}

// IsEmpty reports whether no selection field is set.
func (f HistoryFilter) IsEmpty() bool {
	return f.DocumentType == "" && f.Intent == "" && f.ConversationID == ""
}

// HistoryResult is the response of PipelineService.History, Thread and Browse.
type HistoryResult struct {
	Success      bool          `json:"success"`
	History      []HistoryItem `json:"history"`
	TotalEntries int           `json:"total_entries"`
	Error        string        `json:"error,omitempty"`
}

// EntryResult is the response of PipelineService.GetEntry.
type EntryResult struct {
	Success bool          `json:"success"`
	Entry   *domain.Entry `json:"entry,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// Component status values reported by Health.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthReport describes the state of the pipeline and its store.
type HealthReport struct {
	System     string            `json:"system"`
	Components map[string]string `json:"components"`
}
