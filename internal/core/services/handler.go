package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
	"github.com/custodia-labs/docflow/internal/logger"
)

// HandlerInput is the document handed to a handler stage.
type HandlerInput struct {
	Content     string
	ContentType string
	ModelID     string
}

// HandlerContext carries classification context and caller metadata.
// Known keys: intent, format, confidence, classification_memory_id,
// thread_id, conversation_id.
type HandlerContext map[string]any

// HandlerResult is the outcome of a handler stage.
type HandlerResult struct {
	Success  bool
	Analysis domain.Values
	MemoryID string
	Error    string
}

// Handler performs domain-specific analysis of a classified document.
type Handler interface {
	// Target returns the routing target this handler serves.
	Target() domain.RoutingTarget

	// Process analyses the document and writes exactly one entry.
	// Malformed model output yields a fallback analysis and Success true.
	// A failed model call yields Success false with an error entry.
	// The returned error is set only when no entry could be written.
	Process(ctx context.Context, in HandlerInput, hctx HandlerContext) (HandlerResult, error)
}

// analysisStage is the shared body of the JSON and email handlers.
type analysisStage struct {
	llm     driven.LLMRouter
	entries driving.EntryService
	prompts driven.PromptStore

	target       domain.RoutingTarget
	source       domain.EntrySource
	format       domain.DocumentFormat
	promptName   string
	contentLabel string
	failureLabel string
	parsePrefix  string
	fallback     func(parseErr string) domain.Values
	refine       func(analysis domain.Values) domain.Values
}

func (s *analysisStage) Target() domain.RoutingTarget {
	return s.target
}

func (s *analysisStage) Process(ctx context.Context, in HandlerInput, hctx HandlerContext) (HandlerResult, error) {
	intent := intentFrom(hctx)
	corr := domain.CorrelationFrom(hctx)

	reply, err := s.ask(ctx, in, intent)
	if err != nil {
		logger.Debug("%s: model call failed: %v", s.source, err)
		id, storeErr := s.entries.Store(ctx, domain.EntryInput{
			Source:       s.source,
			DocumentType: s.format,
			Intent:       domain.IntentGeneral,
			ExtractedValues: domain.Values{
				"error":           s.failureLabel,
				"error_details":   err.Error(),
				"content_preview": truncate(in.Content, contentPreviewLimit),
			},
			ThreadID:       corr.ThreadID,
			ConversationID: corr.ConversationID,
		})
		result := HandlerResult{
			Success:  false,
			Error:    fmt.Sprintf("%s: %v", s.failureLabel, err),
			MemoryID: id,
		}
		if storeErr != nil {
			return result, fmt.Errorf("record %s failure: %w", s.source, storeErr)
		}
		return result, nil
	}

	var analysis domain.Values
	if obj, err := DecodeModelJSON(reply); err != nil {
		logger.Debug("%s: using fallback analysis: %v", s.source, err)
		analysis = s.fallback(s.parsePrefix + parseErrorDetail(err))
	} else {
		analysis = domain.Values(obj)
		if s.refine != nil {
			analysis = s.refine(analysis)
		}
	}

	values := domain.Values{
		"analysis":         analysis,
		"original_content": truncate(in.Content, originalContentLimit),
	}
	if in.ContentType != "" {
		values["content_type"] = in.ContentType
	}

	id, err := s.entries.Store(ctx, domain.EntryInput{
		Source:          s.source,
		DocumentType:    s.format,
		Intent:          intent,
		ExtractedValues: values,
		ThreadID:        corr.ThreadID,
		ConversationID:  corr.ConversationID,
	})
	if err != nil {
		return HandlerResult{
			Success: false,
			Error:   fmt.Sprintf("%s: %v", s.failureLabel, err),
		}, fmt.Errorf("record %s analysis: %w", s.source, err)
	}

	return HandlerResult{
		Success:  true,
		Analysis: analysis,
		MemoryID: id,
	}, nil
}

func (s *analysisStage) ask(ctx context.Context, in HandlerInput, intent domain.Intent) (string, error) {
	if s.llm == nil {
		return "", domain.ErrLLMUnavailable
	}
	llm, err := s.llm.Resolve(in.ModelID)
	if err != nil {
		return "", err
	}

	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: loadPrompt(s.prompts, s.promptName)},
		{Role: driven.RoleUser, Content: fmt.Sprintf("Intent: %s\n\n%s:\n%s",
			intent, s.contentLabel, truncate(in.Content, handlerInputLimit))},
	}
	return llm.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   stageMaxTokens,
		Temperature: stageTemperature,
		JSON:        true,
	})
}

// intentFrom reads the intent from handler context, defaulting to general.
func intentFrom(hctx HandlerContext) domain.Intent {
	switch v := hctx["intent"].(type) {
	case domain.Intent:
		return domain.IntentOrGeneral(v.String())
	case string:
		return domain.IntentOrGeneral(v)
	default:
		return domain.IntentGeneral
	}
}
