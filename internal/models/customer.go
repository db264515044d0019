package models

import "strings"

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ParseConfidence maps free-form model output onto the three levels.
// Anything unrecognised is low.
func ParseConfidence(s string) Confidence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return ConfidenceHigh
	case "medium":
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func (c Confidence) Valid() bool {
	return c == ConfidenceHigh || c == ConfidenceMedium || c == ConfidenceLow
}

type CustomerProfile struct {
	CompanyName    string     `json:"companyName"`
	Region         string     `json:"region"`
	Industry       string     `json:"industry"`
	Confidence     Confidence `json:"confidence"`
	AdditionalInfo string     `json:"additionalInfo"`
	Suggestions    string     `json:"suggestions,omitempty"`
}

// Complete reports whether the identifying fields are all present.
func (p CustomerProfile) Complete() bool {
	return strings.TrimSpace(p.CompanyName) != "" &&
		strings.TrimSpace(p.Region) != "" &&
		strings.TrimSpace(p.Industry) != ""
}
