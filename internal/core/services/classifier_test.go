package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docflow/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
)

const invoiceClassification = `{"format": "json", "intent": "invoice", "confidence": 0.92, ` +
	`"reasoning": "Has amount and vendor", "routing_target": "email_agent"}`

func TestClassifier_Classify_Success(t *testing.T) {
	entries, _ := newTestEntries(t)
	llm := newMockLLM(mockResponse{reply: "```json\n" + invoiceClassification + "\n```"})
	classifier := NewClassifier(&mockRouter{llm: llm}, entries, nil)
	ctx := context.Background()

	result, err := classifier.Classify(ctx, ClassifyInput{
		Content:     `{"invoice_number": "INV-1", "amount": 1200}`,
		Correlation: domain.Correlation{ThreadID: ptr("t-9")},
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.NotNil(t, result.Classification)
	assert.Equal(t, domain.FormatJSON, result.Classification.Format)
	assert.Equal(t, domain.IntentInvoice, result.Classification.Intent)
	assert.InDelta(t, 0.92, result.Classification.Confidence, 1e-9)
	assert.Equal(t, "Has amount and vendor", result.Classification.Reasoning)
	// Routing follows the format, not the model's suggestion
	assert.Equal(t, domain.RouteJSONAgent, result.RoutingTarget)
	assert.Equal(t, domain.RouteJSONAgent, result.Classification.RoutingTarget)

	entry, err := entries.Get(ctx, result.MemoryID)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceClassifier, entry.Source)
	assert.Equal(t, domain.FormatJSON, entry.DocumentType)
	assert.Equal(t, domain.IntentInvoice, entry.Intent)
	require.NotNil(t, entry.ThreadID)
	assert.Equal(t, "t-9", *entry.ThreadID)
	assert.Equal(t, `{"invoice_number": "INV-1", "amount": 1200}`, entry.ExtractedValues["content_preview"])

	cls := asMap(entry.ExtractedValues["classification"])
	assert.Equal(t, "json", cls["format"])
	assert.Equal(t, "json_agent", cls["routing_target"])
}

func TestClassifier_Classify_Request(t *testing.T) {
	entries, _ := newTestEntries(t)
	llm := newMockLLM(mockResponse{reply: invoiceClassification})
	router := &mockRouter{llm: llm}
	prompts := &stubPrompts{prompts: map[string]string{driven.PromptClassifier: "CUSTOM CLASSIFIER"}}
	classifier := NewClassifier(router, entries, prompts)

	content := strings.Repeat("a", 5000)
	_, err := classifier.Classify(context.Background(), ClassifyInput{Content: content, ModelID: "gpt-4o"})
	require.NoError(t, err)

	assert.Equal(t, []string{"gpt-4o"}, router.requested)
	require.Equal(t, 1, llm.callCount())
	msgs := llm.call(0)
	require.Len(t, msgs, 2)
	assert.Equal(t, driven.RoleSystem, msgs[0].Role)
	assert.Equal(t, "CUSTOM CLASSIFIER", msgs[0].Content)
	assert.Equal(t, driven.RoleUser, msgs[1].Role)
	assert.Equal(t, "Analyze this content and classify it:\n\n"+strings.Repeat("a", 2000), msgs[1].Content)
	assert.InDelta(t, 0.1, llm.opts[0].Temperature, 1e-9)
	assert.True(t, llm.opts[0].JSON)
}

func TestClassifier_Classify_DefaultPrompt(t *testing.T) {
	tests := []struct {
		name    string
		prompts driven.PromptStore
	}{
		{name: "no store", prompts: nil},
		{name: "store error", prompts: &stubPrompts{err: errors.New("permission denied")}},
		{name: "empty prompt", prompts: &stubPrompts{prompts: map[string]string{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, _ := newTestEntries(t)
			llm := newMockLLM(mockResponse{reply: invoiceClassification})
			classifier := NewClassifier(&mockRouter{llm: llm}, entries, tt.prompts)

			_, err := classifier.Classify(context.Background(), ClassifyInput{Content: "hello"})
			require.NoError(t, err)
			assert.Equal(t, DefaultPrompts()[driven.PromptClassifier], llm.call(0)[0].Content)
		})
	}
}

func TestClassifier_Classify_MalformedOutput(t *testing.T) {
	entries, _ := newTestEntries(t)
	llm := newMockLLM(mockResponse{reply: "not json at all"})
	classifier := NewClassifier(&mockRouter{llm: llm}, entries, nil)
	ctx := context.Background()

	result, err := classifier.Classify(ctx, ClassifyInput{Content: "From: a@b.com\nSubject: hi"})
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.NotNil(t, result.Classification)
	assert.Equal(t, domain.FormatEmail, result.Classification.Format)
	assert.Equal(t, domain.IntentGeneral, result.Classification.Intent)
	assert.InDelta(t, 0.5, result.Classification.Confidence, 1e-9)
	assert.True(t, strings.HasPrefix(result.Classification.Reasoning, "Failed to parse LLM response as JSON: "))
	assert.Equal(t, domain.RouteEmailAgent, result.RoutingTarget)

	entry, err := entries.Get(ctx, result.MemoryID)
	require.NoError(t, err)
	assert.Equal(t, domain.FormatEmail, entry.DocumentType)
}

func TestClassifier_Classify_LooseFields(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		format     domain.DocumentFormat
		intent     domain.Intent
		confidence float64
	}{
		{
			name:       "upper case values",
			reply:      `{"format": "PDF", "intent": "RFQ", "confidence": 0.7}`,
			format:     domain.FormatPDF,
			intent:     domain.IntentRFQ,
			confidence: 0.7,
		},
		{
			name:       "unknown values degrade",
			reply:      `{"format": "xml", "intent": "spam", "confidence": 1.7}`,
			format:     domain.FormatEmail,
			intent:     domain.IntentGeneral,
			confidence: 1,
		},
		{
			name:       "confidence as string",
			reply:      `{"format": "email", "intent": "complaint", "confidence": "0.8"}`,
			format:     domain.FormatEmail,
			intent:     domain.IntentComplaint,
			confidence: 0.8,
		},
		{
			name:       "not-a-number confidence",
			reply:      `{"format": "email", "intent": "general", "confidence": "NaN", "reasoning": "x"}`,
			format:     domain.FormatEmail,
			intent:     domain.IntentGeneral,
			confidence: 0.5,
		},
		{
			name:       "missing confidence",
			reply:      `{"format": "json", "intent": "regulation"}`,
			format:     domain.FormatJSON,
			intent:     domain.IntentRegulation,
			confidence: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, _ := newTestEntries(t)
			classifier := NewClassifier(&mockRouter{llm: newMockLLM(mockResponse{reply: tt.reply})}, entries, nil)

			ctx := context.Background()
			result, err := classifier.Classify(ctx, ClassifyInput{Content: "x"})
			require.NoError(t, err)
			assert.True(t, result.Success)
			require.NotNil(t, result.Classification)
			assert.Equal(t, tt.format, result.Classification.Format)
			assert.Equal(t, tt.intent, result.Classification.Intent)
			assert.InDelta(t, tt.confidence, result.Classification.Confidence, 1e-9)
			assert.Equal(t, domain.RouteFor(tt.format), result.RoutingTarget)

			entry, err := entries.Get(ctx, result.MemoryID)
			require.NoError(t, err)
			assert.Equal(t, domain.SourceClassifier, entry.Source)
		})
	}
}

func TestClassifier_Classify_ModelFailure(t *testing.T) {
	tests := []struct {
		name   string
		router driven.LLMRouter
	}{
		{name: "chat error", router: &mockRouter{llm: newMockLLM(mockResponse{err: errors.New("upstream 503")})}},
		{name: "resolve error", router: &mockRouter{err: errors.New("unknown model")}},
		{name: "no router", router: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, _ := newTestEntries(t)
			classifier := NewClassifier(tt.router, entries, nil)
			ctx := context.Background()

			result, err := classifier.Classify(ctx, ClassifyInput{
				Content:     "some content",
				Correlation: domain.Correlation{ConversationID: ptr("conv-1")},
			})
			require.NoError(t, err)

			assert.False(t, result.Success)
			assert.Nil(t, result.Classification)
			assert.True(t, strings.HasPrefix(result.Error, "Classification failed: "))
			assert.Equal(t, domain.RouteEmailAgent, result.RoutingTarget)
			require.NotEmpty(t, result.MemoryID)

			entry, err := entries.Get(ctx, result.MemoryID)
			require.NoError(t, err)
			assert.Equal(t, domain.SourceClassifier, entry.Source)
			assert.Equal(t, domain.FormatEmail, entry.DocumentType)
			assert.Equal(t, domain.IntentGeneral, entry.Intent)
			assert.Equal(t, "Classification failed", entry.ExtractedValues["error"])
			assert.NotEmpty(t, entry.ExtractedValues["error_details"])
			assert.Equal(t, "some content", entry.ExtractedValues["content_preview"])
			require.NotNil(t, entry.ConversationID)
			assert.Equal(t, "conv-1", *entry.ConversationID)
		})
	}
}

func TestClassifier_Classify_StoreFailure(t *testing.T) {
	kv := &failingKV{KVStore: memory.NewKVStore(), setHashErr: errors.New("read-only")}
	entries := NewEntryService(kv)
	classifier := NewClassifier(&mockRouter{llm: newMockLLM(mockResponse{reply: invoiceClassification})}, entries, nil)

	result, err := classifier.Classify(context.Background(), ClassifyInput{Content: "x"})

	require.Error(t, err)
	assert.False(t, result.Success)
	assert.Empty(t, result.MemoryID)
}
