package domain

import "strings"

// Urgency is the priority assigned to an email by the email handler.
type Urgency string

// Urgency levels, highest first.
const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
)

// IsValid returns true if the urgency is recognised.
func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyCritical, UrgencyHigh, UrgencyMedium, UrgencyLow:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (u Urgency) String() string {
	return string(u)
}

// ParseUrgency parses an urgency case-insensitively.
func ParseUrgency(s string) (Urgency, bool) {
	u := Urgency(strings.ToLower(strings.TrimSpace(s)))
	return u, u.IsValid()
}

// RequiredFields returns the fields a JSON document of the given intent is
// expected to carry. General documents have no required fields.
func RequiredFields(intent Intent) []string {
	switch intent {
	case IntentInvoice:
		return []string{"amount", "vendor", "date", "items"}
	case IntentRFQ:
		return []string{"requirements", "deadline", "contact"}
	case IntentComplaint:
		return []string{"issue_description", "severity"}
	case IntentRegulation:
		return []string{"compliance_requirements"}
	default:
		return nil
	}
}

// JSONAnalysisFallback is the degraded payload used when the JSON handler
// cannot parse the model output.
func JSONAnalysisFallback(parseErr string) Values {
	return Values{
		"validation_passed": false,
		"missing_fields":    []any{},
		"anomalies":         []any{parseErr},
		"reformatted_data":  map[string]any{},
		"summary":           "Processing failed",
		"key_insights":      []any{},
	}
}

// EmailAnalysisFallback is the degraded payload used when the email handler
// cannot parse the model output.
func EmailAnalysisFallback(parseErr string) Values {
	return Values{
		"sender":                 "unknown@example.com",
		"subject":                "Processing failed",
		"urgency":                UrgencyMedium.String(),
		"sentiment":              "neutral",
		"key_points":             []any{parseErr},
		"crm_summary":            "Email processing error",
		"follow_up_required":     false,
		"contact_info_extracted": map[string]any{},
	}
}
