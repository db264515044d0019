// Package export flattens finished use cases into records and sends them
// to the external document-generation script.
package export

import (
	"errors"
	"strings"

	"github.com/BerylCAtieno/storycraft-agent/internal/models"
)

const (
	unknownCustomer   = "Unknown Customer"
	unknownUseCase    = "Unknown Use Case"
	noRecommendations = "No specific AI recommendations provided."
	noSources         = "No additional research sources used."
)

var ErrNoStories = errors.New("story generation results are required")

// Format builds one record per story result. A key with no generated
// content still yields a record, with empty content fields.
func Format(
	stories []models.StoryResult,
	customer models.CustomerProfile,
	contents map[models.UseCaseKey]models.GeneratedContent,
	findings map[models.UseCaseKey][]string,
) ([]models.ExportRecord, error) {
	if len(stories) == 0 {
		return nil, ErrNoStories
	}

	customerName := strings.TrimSpace(customer.CompanyName)
	if customerName == "" {
		customerName = unknownCustomer
	}

	records := make([]models.ExportRecord, 0, len(stories))
	for _, s := range stories {
		content := contents[s.UseCaseKey]

		description := s.UseCaseKey.Name()
		if description == "" {
			description = unknownUseCase
		}

		var is1, is2 string
		impact := models.SplitImpact(content.Impact)
		if len(impact) > 0 {
			is1 = impact[0]
		}
		if len(impact) > 1 {
			is2 = impact[1]
		}

		notes := noRecommendations
		if suggestions := content.AllSuggestions(); len(suggestions) > 0 {
			notes = "AI Recommendations: " + strings.Join(suggestions, "; ")
		}

		sources := noSources
		if f := nonBlank(findings[s.UseCaseKey]); len(f) > 0 {
			sources = strings.Join(f, "; ")
		}

		records = append(records, models.ExportRecord{
			CustomerName:   customerName,
			Description:    description,
			DatabricksRole: s.StoryContent.Summary,
			Challenge:      content.ProblemStatement,
			Solution:       content.DatabricksSolution,
			IS1:            is1,
			IS2:            is2,
			Notes:          notes,
			Story:          s.StoryContent.DetailedStory,
			Sources:        sources,
		})
	}
	return records, nil
}

func nonBlank(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
