package models

import (
	"strings"
)

type Category string

const (
	CategoryPlatform Category = "Platform Use Case"
	CategoryBusiness Category = "Business Use Case"
)

// ParseCategory accepts the display names as well as the short forms
// ("platform", "PlatformUseCase"). Unknown values are returned as given.
func ParseCategory(s string) Category {
	norm := strings.ToLower(strings.Join(strings.Fields(s), ""))
	switch {
	case strings.HasPrefix(norm, "platform"):
		return CategoryPlatform
	case strings.HasPrefix(norm, "business"):
		return CategoryBusiness
	default:
		return Category(strings.TrimSpace(s))
	}
}

func (c Category) IsPlatform() bool {
	return strings.Contains(strings.ToLower(string(c)), "platform")
}

type IdentifiedUseCase struct {
	Category    Category   `json:"category"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Confidence  Confidence `json:"confidence"`
}

func (u IdentifiedUseCase) Key() UseCaseKey {
	return NewUseCaseKey(u.Name, u.Category)
}

type UseCaseAnalysis struct {
	IdentifiedUseCases []IdentifiedUseCase `json:"identifiedUseCases"`
	Summary            string              `json:"summary"`
}

// UseCaseKey indexes all per-use-case state. Format: "<name>-<category>".
type UseCaseKey string

func NewUseCaseKey(name string, category Category) UseCaseKey {
	return UseCaseKey(strings.TrimSpace(name) + "-" + strings.TrimSpace(string(category)))
}

// Name recovers the use case name from the key. Names may contain '-',
// categories do not.
func (k UseCaseKey) Name() string {
	s := string(k)
	i := strings.LastIndex(s, "-")
	if i <= 0 {
		return ""
	}
	return s[:i]
}

func (k UseCaseKey) String() string { return string(k) }
