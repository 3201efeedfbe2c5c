package services

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
	"github.com/custodia-labs/docflow/internal/logger"
)

// Character limits applied to content.
const (
	classifierInputLimit = 2000
	handlerInputLimit    = 3000
	contentPreviewLimit  = 500
	originalContentLimit = 1000
)

// stageTemperature keeps model output close to deterministic.
const stageTemperature = 0.1

// stageMaxTokens bounds the reply of every stage.
const stageMaxTokens = 2048

// ClassifyInput is the input to the classifier stage.
type ClassifyInput struct {
	Content     string
	ModelID     string
	Correlation domain.Correlation
}

// Classifier determines format, intent and routing target of raw content.
// Every call writes exactly one classifier entry.
type Classifier struct {
	llm     driven.LLMRouter
	entries driving.EntryService
	prompts driven.PromptStore
}

// NewClassifier creates a classifier stage.
func NewClassifier(llm driven.LLMRouter, entries driving.EntryService, prompts driven.PromptStore) *Classifier {
	return &Classifier{
		llm:     llm,
		entries: entries,
		prompts: prompts,
	}
}

// Classify runs the classifier stage.
//
// Malformed model output falls back to an email/general classification and still
// reports success. A failed model call reports failure but always carries the
// email_agent routing target. The returned error is set only when the audit
// entry itself cannot be written.
func (c *Classifier) Classify(ctx context.Context, in ClassifyInput) (driving.ClassifyResult, error) {
	preview := truncate(in.Content, contentPreviewLimit)

	reply, err := c.ask(ctx, in)
	if err != nil {
		logger.Debug("classifier: model call failed: %v", err)
		id, storeErr := c.entries.Store(ctx, domain.EntryInput{
			Source:       domain.SourceClassifier,
			DocumentType: domain.FormatEmail,
			Intent:       domain.IntentGeneral,
			ExtractedValues: domain.Values{
				"error":           "Classification failed",
				"error_details":   err.Error(),
				"content_preview": preview,
			},
			ThreadID:       in.Correlation.ThreadID,
			ConversationID: in.Correlation.ConversationID,
		})
		result := driving.ClassifyResult{
			Success:       false,
			Error:         fmt.Sprintf("Classification failed: %v", err),
			RoutingTarget: domain.RouteEmailAgent,
			MemoryID:      id,
		}
		if storeErr != nil {
			return result, fmt.Errorf("record classifier failure: %w", storeErr)
		}
		return result, nil
	}

	classification := classificationFromReply(reply)
	logger.Debug("classifier: routed to %s (format=%s intent=%s confidence=%.2f)",
		classification.RoutingTarget, classification.Format, classification.Intent, classification.Confidence)

	id, err := c.entries.Store(ctx, domain.EntryInput{
		Source:       domain.SourceClassifier,
		DocumentType: classification.Format,
		Intent:       classification.Intent,
		ExtractedValues: domain.Values{
			"classification":  classification.Values(),
			"content_preview": preview,
		},
		ThreadID:       in.Correlation.ThreadID,
		ConversationID: in.Correlation.ConversationID,
	})
	if err != nil {
		return driving.ClassifyResult{
			Success:       false,
			Error:         fmt.Sprintf("Classification failed: %v", err),
			RoutingTarget: classification.RoutingTarget,
		}, fmt.Errorf("record classification: %w", err)
	}

	return driving.ClassifyResult{
		Success:        true,
		Classification: &classification,
		RoutingTarget:  classification.RoutingTarget,
		MemoryID:       id,
	}, nil
}

// ask sends the truncated content to the resolved model.
func (c *Classifier) ask(ctx context.Context, in ClassifyInput) (string, error) {
	if c.llm == nil {
		return "", domain.ErrLLMUnavailable
	}
	llm, err := c.llm.Resolve(in.ModelID)
	if err != nil {
		return "", err
	}

	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: loadPrompt(c.prompts, driven.PromptClassifier)},
		{Role: driven.RoleUser, Content: "Analyze this content and classify it:\n\n" +
			truncate(in.Content, classifierInputLimit)},
	}
	return llm.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   stageMaxTokens,
		Temperature: stageTemperature,
		JSON:        true,
	})
}

// classificationFromReply decodes the model reply, substituting the fixed
// fallback classification when no JSON object can be recovered.
func classificationFromReply(reply string) domain.Classification {
	obj, err := DecodeModelJSON(reply)
	if err != nil {
		return domain.FallbackClassification("Failed to parse LLM response as JSON: " + parseErrorDetail(err))
	}
	return domain.NewClassification(
		stringField(obj, "format"),
		stringField(obj, "intent"),
		floatField(obj, "confidence", 0.5),
		stringField(obj, "reasoning"),
	)
}

// stringField reads a string value, returning "" for missing or non-string values.
func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

// floatField reads a numeric value that models sometimes send as a string.
func floatField(obj map[string]any, key string, def float64) float64 {
	switch v := obj[key].(type) {
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) {
			return f
		}
	}
	return def
}
