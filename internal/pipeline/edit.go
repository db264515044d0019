package pipeline

import (
	"context"
	"strings"

	"github.com/BerylCAtieno/storycraft-agent/internal/jsonextract"
	"github.com/BerylCAtieno/storycraft-agent/internal/models"
)

const editParseFailure = "Unable to parse structured response from AI edit request"

type EditRequest struct {
	Section         models.Section
	CurrentContent  string
	Feedback        []string
	UseCaseName     string
	UseCaseCategory models.Category
}

func (r EditRequest) validate() error {
	if _, err := models.ParseSection(string(r.Section)); err != nil {
		return invalid("%v", err)
	}
	if blank(r.CurrentContent) || blank(r.UseCaseName) || blank(string(r.UseCaseCategory)) {
		return invalid("all fields are required and feedback must be a non-empty array")
	}
	for _, f := range r.Feedback {
		if !blank(f) {
			return nil
		}
	}
	return invalid("all fields are required and feedback must be a non-empty array")
}

func (p *Pipeline) EditRaw(ctx context.Context, r EditRequest) (string, error) {
	if err := r.validate(); err != nil {
		return "", err
	}
	return p.Complete(ctx, StepAIEdit, EditPrompt(r.Section, r.CurrentContent, r.Feedback, r.UseCaseName, r.UseCaseCategory))
}

func (p *Pipeline) Edit(ctx context.Context, r EditRequest) (Outcome[models.EditResult], error) {
	text, err := p.EditRaw(ctx, r)
	if err != nil {
		return Outcome[models.EditResult]{}, err
	}
	out := ParseEditResult(text, r.CurrentContent)
	if out.IsFallback() {
		p.log.Warn("AI edit fell back to current content", "section", r.Section, "reason", out.Reason)
	}
	return out, nil
}

// ParseEditResult reads the edit response. On parse failure the current
// content is echoed back unchanged.
func ParseEditResult(text, currentContent string) Outcome[models.EditResult] {
	obj, err := jsonextract.Extract(text)
	if err != nil {
		return Fallback(models.EditResult{
			ImprovedContent:  strings.TrimSpace(currentContent),
			ResearchFindings: editParseFailure,
			PlaceholdersUsed: []string{},
		}, err.Error())
	}
	res := models.EditResult{
		ImprovedContent:  stringField(obj, "improvedContent"),
		ResearchFindings: findingsField(obj),
		PlaceholdersUsed: stringListField(obj, "placeholdersUsed"),
	}
	if res.ImprovedContent == "" {
		res.ImprovedContent = strings.TrimSpace(currentContent)
	}
	return Parsed(res)
}

// findingsField accepts the requested "A | B" string or a JSON array.
func findingsField(m map[string]any) string {
	if l, ok := m["researchFindings"].([]any); ok {
		return strings.Join(stringList(l), " | ")
	}
	return stringField(m, "researchFindings")
}
