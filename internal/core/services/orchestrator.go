package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
	"github.com/custodia-labs/docflow/internal/logger"
)

// Ensure Orchestrator implements the interface.
var _ driving.PipelineService = (*Orchestrator)(nil)

// DefaultHistoryLimit is used when a history request asks for zero or fewer entries.
const DefaultHistoryLimit = 10

// Orchestrator sequences classification and dispatch for each request:
// START -> CLASSIFY -> DISPATCH -> DONE, failing out at either stage.
// It is the last line of defence; no error or panic escapes its methods.
type Orchestrator struct {
	classifier *Classifier
	handlers   map[domain.RoutingTarget]Handler
	entries    driving.EntryService
	store      driven.KVStore
}

// NewOrchestrator creates an orchestrator. store is used for health checks only
// and may be nil. Handlers are registered under their own routing target.
func NewOrchestrator(
	classifier *Classifier,
	entries driving.EntryService,
	store driven.KVStore,
	handlers ...Handler,
) *Orchestrator {
	o := &Orchestrator{
		classifier: classifier,
		handlers:   make(map[domain.RoutingTarget]Handler, len(handlers)),
		entries:    entries,
		store:      store,
	}
	for _, h := range handlers {
		o.handlers[h.Target()] = h
	}
	return o
}

// Process runs the full pipeline for one document.
func (o *Orchestrator) Process(ctx context.Context, req driving.ProcessRequest) (result driving.ProcessResult) {
	corr := domain.CorrelationFrom(req.Metadata)

	defer func() {
		if r := recover(); r != nil {
			result = o.systemFailure(ctx, req.Content, corr, fmt.Errorf("panic: %v", r))
		}
	}()

	logger.Section("Process")

	cls, err := o.classifier.Classify(ctx, ClassifyInput{
		Content:     req.Content,
		ModelID:     req.ModelID,
		Correlation: corr,
	})
	if err != nil {
		return o.systemFailure(ctx, req.Content, corr, err)
	}
	if !cls.Success || cls.Classification == nil {
		return driving.ProcessResult{
			Success:  false,
			Message:  cls.Error,
			MemoryID: cls.MemoryID,
		}
	}

	handler, ok := o.handlers[cls.RoutingTarget]
	if !ok {
		logger.Warn("orchestrator: %v: %s", domain.ErrNoHandler, cls.RoutingTarget)
		return driving.ProcessResult{
			Success:  false,
			Message:  fmt.Sprintf("No handler available for routing target: %s", cls.RoutingTarget),
			MemoryID: cls.MemoryID,
		}
	}

	hctx := HandlerContext{
		"intent":                   cls.Classification.Intent.String(),
		"format":                   cls.Classification.Format.String(),
		"confidence":               cls.Classification.Confidence,
		"classification_memory_id": cls.MemoryID,
	}
	for k, v := range req.Metadata {
		hctx[k] = v
	}

	logger.Debug("orchestrator: dispatching to %s", cls.RoutingTarget)
	hres, err := handler.Process(ctx, HandlerInput{
		Content:     req.Content,
		ContentType: req.ContentType,
		ModelID:     req.ModelID,
	}, hctx)
	if err != nil {
		return o.systemFailure(ctx, req.Content, corr, err)
	}
	if !hres.Success {
		return driving.ProcessResult{
			Success:  false,
			Message:  fmt.Sprintf("Handler processing failed: %s", hres.Error),
			MemoryID: hres.MemoryID,
		}
	}

	return driving.ProcessResult{
		Success: true,
		Message: fmt.Sprintf("Document successfully processed by %s", cls.RoutingTarget),
		Data: &driving.ProcessData{
			Classification:   *cls.Classification,
			ProcessingResult: hres.Analysis,
			RoutingTarget:    cls.RoutingTarget,
		},
		MemoryID: hres.MemoryID,
	}
}

// Classify runs classification only.
func (o *Orchestrator) Classify(ctx context.Context, req driving.ClassifyRequest) (result driving.ClassifyResult) {
	corr := domain.CorrelationFrom(req.Metadata)

	defer func() {
		if r := recover(); r != nil {
			failed := o.systemFailure(ctx, req.Content, corr, fmt.Errorf("panic: %v", r))
			result = driving.ClassifyResult{
				Success:       false,
				Error:         failed.Message,
				RoutingTarget: domain.RouteEmailAgent,
				MemoryID:      failed.MemoryID,
			}
		}
	}()

	cls, err := o.classifier.Classify(ctx, ClassifyInput{
		Content:     req.Content,
		ModelID:     req.ModelID,
		Correlation: corr,
	})
	if err != nil {
		failed := o.systemFailure(ctx, req.Content, corr, err)
		cls.Success = false
		cls.Classification = nil
		cls.Error = failed.Message
		cls.MemoryID = failed.MemoryID
		cls.RoutingTarget = domain.RouteEmailAgent
	}
	if cls.RoutingTarget != domain.RouteJSONAgent {
		cls.RoutingTarget = domain.RouteEmailAgent
	}
	return cls
}

// History summarises the most recent entries, newest first.
func (o *Orchestrator) History(ctx context.Context, limit int) (result driving.HistoryResult) {
	defer func() {
		if r := recover(); r != nil {
			result = driving.HistoryResult{Error: fmt.Sprintf("Failed to retrieve history: %v", r)}
		}
	}()

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	entries, err := o.entries.ListRecent(ctx, limit)
	if err != nil {
		return driving.HistoryResult{Error: fmt.Sprintf("Failed to retrieve history: %v", err)}
	}
	items := historyItems(entries)
	return driving.HistoryResult{
		Success:      true,
		History:      items,
		TotalEntries: len(items),
	}
}

// Thread summarises the entries tagged with threadID, oldest first.
func (o *Orchestrator) Thread(ctx context.Context, threadID string) (result driving.HistoryResult) {
	defer func() {
		if r := recover(); r != nil {
			result = driving.HistoryResult{Error: fmt.Sprintf("Failed to retrieve thread: %v", r)}
		}
	}()

	entries, err := o.entries.ListByThread(ctx, threadID)
	if err != nil {
		return driving.HistoryResult{Error: fmt.Sprintf("Failed to retrieve thread: %v", err)}
	}
	items := historyItems(entries)
	return driving.HistoryResult{
		Success:      true,
		History:      items,
		TotalEntries: len(items),
	}
}

// Browse summarises the entries selected by filter.
func (o *Orchestrator) Browse(ctx context.Context, filter driving.HistoryFilter) (result driving.HistoryResult) {
	defer func() {
		if r := recover(); r != nil {
			result = driving.HistoryResult{Error: fmt.Sprintf("Failed to retrieve history: %v", r)}
		}
	}()

	if filter.IsEmpty() {
		return o.History(ctx, filter.Limit)
	}

	entries, err := o.selectEntries(ctx, filter)
	if err != nil {
		return driving.HistoryResult{Error: fmt.Sprintf("Failed to retrieve history: %v", err)}
	}
	if filter.Limit > 0 && len(entries) > filter.Limit {
		entries = entries[:filter.Limit]
	}
	items := historyItems(entries)
	return driving.HistoryResult{
		Success:      true,
		History:      items,
		TotalEntries: len(items),
	}
}

// selectEntries reads the narrowest index the filter names and drops entries
// that fail the remaining fields.
func (o *Orchestrator) selectEntries(ctx context.Context, f driving.HistoryFilter) ([]domain.Entry, error) {
	var (
		entries []domain.Entry
		err     error
	)
	switch {
	case f.ConversationID != "":
		entries, err = o.entries.ListByConversation(ctx, f.ConversationID)
	case f.DocumentType != "":
		entries, err = o.entries.ListByType(ctx, f.DocumentType)
	default:
		entries, err = o.entries.ListByIntent(ctx, f.Intent)
	}
	if err != nil {
		return nil, err
	}

	kept := entries[:0]
	for _, e := range entries {
		if f.DocumentType != "" && e.DocumentType != f.DocumentType {
			continue
		}
		if f.Intent != "" && e.Intent != f.Intent {
			continue
		}
		kept = append(kept, e)
	}
	return kept, nil
}

// GetEntry looks up a single entry. Unknown ids yield a not-found failure.
func (o *Orchestrator) GetEntry(ctx context.Context, id string) (result driving.EntryResult) {
	defer func() {
		if r := recover(); r != nil {
			result = driving.EntryResult{Error: fmt.Sprintf("Failed to retrieve memory entry: %v", r)}
		}
	}()

	entry, err := o.entries.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return driving.EntryResult{Error: "Memory entry not found"}
	}
	if err != nil {
		return driving.EntryResult{Error: fmt.Sprintf("Failed to retrieve memory entry: %v", err)}
	}
	return driving.EntryResult{Success: true, Entry: entry}
}

// Health reports the orchestrator as healthy and the store by ping.
func (o *Orchestrator) Health(ctx context.Context) driving.HealthReport {
	report := driving.HealthReport{
		System: driving.StatusHealthy,
		Components: map[string]string{
			"orchestrator": driving.StatusHealthy,
			"store":        driving.StatusHealthy,
		},
	}
	if o.store == nil {
		return report
	}
	if err := o.store.Ping(ctx); err != nil {
		logger.Warn("health: store ping failed: %v", err)
		report.System = driving.StatusDegraded
		report.Components["store"] = driving.StatusUnhealthy
	}
	return report
}

// systemFailure records an orchestrator error entry and builds the FAILED response.
// Recording is best effort and survives a cancelled request context.
func (o *Orchestrator) systemFailure(
	ctx context.Context,
	content string,
	corr domain.Correlation,
	cause error,
) driving.ProcessResult {
	logger.Error("orchestrator: %v", cause)

	id := o.recordFailure(context.WithoutCancel(ctx), content, corr, cause)
	return driving.ProcessResult{
		Success:  false,
		Message:  fmt.Sprintf("System error: %v", cause),
		MemoryID: id,
	}
}

func (o *Orchestrator) recordFailure(ctx context.Context, content string, corr domain.Correlation, cause error) (id string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("orchestrator: recording failure panicked: %v", r)
			id = ""
		}
	}()

	if o.entries == nil {
		return ""
	}
	id, err := o.entries.Store(ctx, domain.EntryInput{
		Source:       domain.SourceOrchestrator,
		DocumentType: domain.FormatEmail,
		Intent:       domain.IntentGeneral,
		ExtractedValues: domain.Values{
			"error":           "Orchestration error",
			"error_details":   cause.Error(),
			"content_preview": truncate(content, contentPreviewLimit),
		},
		ThreadID:       corr.ThreadID,
		ConversationID: corr.ConversationID,
	})
	if err != nil {
		logger.Error("orchestrator: recording failure: %v", err)
		return ""
	}
	return id
}
