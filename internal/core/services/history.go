package services

import (
	"fmt"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

const noSummary = "No summary available"

// errorDetailLimit bounds the error text quoted in a fallback summary.
const errorDetailLimit = 100

// Summarise renders a one-line human-readable summary of an entry using a
// per-source template, falling back to its error detail.
func Summarise(e *domain.Entry) string {
	summary := noSummary

	switch e.Source {
	case domain.SourceClassifier:
		if c := asMap(e.ExtractedValues["classification"]); len(c) > 0 {
			summary = fmt.Sprintf("Classified as %s format with %s intent (confidence: %.2f)",
				stringOr(c, "format", "unknown"),
				stringOr(c, "intent", "unknown"),
				floatField(c, "confidence", 0))
		}

	case domain.SourceEmailHandler:
		if a := asMap(e.ExtractedValues["analysis"]); len(a) > 0 {
			summary = fmt.Sprintf("Email from %s with %s urgency: %s",
				stringOr(a, "sender", "unknown"),
				stringOr(a, "urgency", "unknown"),
				stringOr(a, "crm_summary", "No summary"))
		}

	case domain.SourceJSONHandler:
		if a := asMap(e.ExtractedValues["analysis"]); len(a) > 0 {
			validation := "invalid"
			if passed, _ := a["validation_passed"].(bool); passed {
				validation = "valid"
			}
			summary = fmt.Sprintf("JSON document (%s): %s", validation, stringOr(a, "summary", "No summary"))
		}
	}

	if summary == noSummary {
		if details, ok := e.ExtractedValues["error_details"].(string); ok {
			summary = "Error: " + truncate(details, errorDetailLimit) + "..."
		}
	}

	return summary
}

// historyItems converts entries into summarised history rows, keeping their order.
func historyItems(entries []domain.Entry) []driving.HistoryItem {
	items := make([]driving.HistoryItem, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		items = append(items, driving.HistoryItem{
			ID:           e.ID,
			Source:       e.Source,
			DocumentType: e.DocumentType,
			Intent:       e.Intent,
			Timestamp:    e.Timestamp,
			Summary:      Summarise(e),
		})
	}
	return items
}

func asMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case domain.Values:
		return m
	default:
		return nil
	}
}

func stringOr(m map[string]any, key, def string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return def
}
