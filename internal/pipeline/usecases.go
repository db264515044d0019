package pipeline

import (
	"context"

	"github.com/BerylCAtieno/storycraft-agent/internal/jsonextract"
	"github.com/BerylCAtieno/storycraft-agent/internal/models"
)

func (p *Pipeline) AnalyzeUseCasesRaw(ctx context.Context, customerContent, industry string) (string, error) {
	if blank(customerContent) {
		return "", invalid("customer content is required")
	}
	return p.Complete(ctx, StepAnalyzeUseCases, UseCasePrompt(customerContent, industry))
}

func (p *Pipeline) AnalyzeUseCases(ctx context.Context, customerContent, industry string) (Outcome[models.UseCaseAnalysis], error) {
	text, err := p.AnalyzeUseCasesRaw(ctx, customerContent, industry)
	if err != nil {
		return Outcome[models.UseCaseAnalysis]{}, err
	}
	out := ParseUseCaseAnalysis(text)
	if out.IsFallback() {
		p.log.Warn("use case analysis fell back to placeholder", "reason", out.Reason)
	}
	return out, nil
}

func ParseUseCaseAnalysis(text string) Outcome[models.UseCaseAnalysis] {
	obj, err := jsonextract.Extract(text)
	if err != nil {
		return Fallback(placeholderAnalysis(text), err.Error())
	}
	raw, ok := obj["identifiedUseCases"].([]any)
	if !ok {
		return Fallback(placeholderAnalysis(text), "invalid analysis response structure")
	}

	analysis := models.UseCaseAnalysis{
		IdentifiedUseCases: make([]models.IdentifiedUseCase, 0, len(raw)),
		Summary:            stringField(obj, "summary"),
	}
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		uc := models.IdentifiedUseCase{
			Category:    models.ParseCategory(stringField(m, "category")),
			Name:        stringField(m, "name"),
			Description: stringField(m, "description"),
			Confidence:  models.Confidence(stringField(m, "confidence")),
		}
		if uc.Name == "" || uc.Description == "" || uc.Confidence == "" {
			continue
		}
		if uc.Category != models.CategoryPlatform && uc.Category != models.CategoryBusiness {
			continue
		}
		uc.Confidence = models.ParseConfidence(string(uc.Confidence))
		analysis.IdentifiedUseCases = append(analysis.IdentifiedUseCases, uc)
	}
	return Parsed(analysis)
}

func placeholderAnalysis(text string) models.UseCaseAnalysis {
	return models.UseCaseAnalysis{
		IdentifiedUseCases: []models.IdentifiedUseCase{{
			Category:    models.CategoryPlatform,
			Name:        "Data Analytics",
			Description: "General data analytics and processing needs identified",
			Confidence:  models.ConfidenceLow,
		}},
		Summary: "Unable to parse detailed analysis. Raw response: " + truncate(text, 200),
	}
}
