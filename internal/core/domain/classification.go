package domain

import (
	"math"
	"strings"
)

// RoutingTarget is the handler tag selected by classification.
type RoutingTarget string

// Known routing targets.
const (
	RouteJSONAgent  RoutingTarget = "json_agent"
	RouteEmailAgent RoutingTarget = "email_agent"
)

// String returns the string representation.
func (r RoutingTarget) String() string {
	return string(r)
}

// RouteFor applies the fixed routing rule: json goes to the JSON handler,
// everything else (email, pdf) to the email handler.
func RouteFor(f DocumentFormat) RoutingTarget {
	if f == FormatJSON {
		return RouteJSONAgent
	}
	return RouteEmailAgent
}

// Classification is the format, intent and routing decision for a document.
type Classification struct {
	Format        DocumentFormat `json:"format"`
	Intent        Intent         `json:"intent"`
	Confidence    float64        `json:"confidence"`
	Reasoning     string         `json:"reasoning"`
	RoutingTarget RoutingTarget  `json:"routing_target"`
}

// FallbackClassification is used verbatim when the model output cannot be parsed.
// It always routes to the email handler.
func FallbackClassification(reason string) Classification {
	return Classification{
		Format:        FormatEmail,
		Intent:        IntentGeneral,
		Confidence:    0.5,
		Reasoning:     reason,
		RoutingTarget: RouteEmailAgent,
	}
}

// NewClassification builds a classification from loosely typed model fields.
// Unknown formats degrade to email, unknown intents to general, the confidence
// is clamped to [0, 1] and the routing target always follows RouteFor.
func NewClassification(format, intent string, confidence float64, reasoning string) Classification {
	f, ok := ParseDocumentFormat(format)
	if !ok {
		f = FormatEmail
	}
	switch {
	case math.IsNaN(confidence):
		confidence = 0.5
	case confidence < 0:
		confidence = 0
	case confidence > 1:
		confidence = 1
	}
	return Classification{
		Format:        f,
		Intent:        IntentOrGeneral(intent),
		Confidence:    confidence,
		Reasoning:     strings.TrimSpace(reasoning),
		RoutingTarget: RouteFor(f),
	}
}

// Values converts the classification into an entry payload.
func (c Classification) Values() Values {
	return Values{
		"format":         c.Format.String(),
		"intent":         c.Intent.String(),
		"confidence":     c.Confidence,
		"reasoning":      c.Reasoning,
		"routing_target": c.RoutingTarget.String(),
	}
}
