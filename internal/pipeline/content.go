package pipeline

import (
	"context"
	"strings"

	"github.com/BerylCAtieno/storycraft-agent/internal/jsonextract"
	"github.com/BerylCAtieno/storycraft-agent/internal/models"
)

// Filtered is the output of the filter stage and the only input the typed
// generate stage accepts. It can only be built by Filter.
type Filtered struct {
	useCase models.IdentifiedUseCase
	text    string
}

func (f Filtered) UseCase() models.IdentifiedUseCase { return f.useCase }
func (f Filtered) Text() string                      { return f.text }

// Found reports whether the filter found anything relevant in the notes.
func (f Filtered) Found() bool {
	return !strings.EqualFold(strings.Trim(f.text, ` ."`), strings.Trim(NoContentFound, ` ."`))
}

func (p *Pipeline) FilterRaw(ctx context.Context, useCaseName, customerNotes string) (string, error) {
	if blank(useCaseName) || blank(customerNotes) {
		return "", invalid("use case name and customer notes are required")
	}
	text, err := p.Complete(ctx, StepFilterContent, FilterPrompt(useCaseName, customerNotes))
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		text = NoContentFound
	}
	return text, nil
}

func (p *Pipeline) Filter(ctx context.Context, uc models.IdentifiedUseCase, customerNotes string) (Filtered, error) {
	text, err := p.FilterRaw(ctx, uc.Name, customerNotes)
	if err != nil {
		return Filtered{}, err
	}
	return Filtered{useCase: uc, text: text}, nil
}

func (p *Pipeline) GenerateRaw(ctx context.Context, useCaseName string, category models.Category, filteredContent string) (string, error) {
	if blank(useCaseName) || blank(string(category)) || blank(filteredContent) {
		return "", invalid("use case name, category, and filtered content are required")
	}
	return p.Complete(ctx, StepGenerateContent, GeneratePrompt(useCaseName, category, filteredContent))
}

func (p *Pipeline) Generate(ctx context.Context, f Filtered) (Outcome[models.GeneratedContent], error) {
	text, err := p.GenerateRaw(ctx, f.useCase.Name, f.useCase.Category, f.text)
	if err != nil {
		return Outcome[models.GeneratedContent]{}, err
	}
	out := ParseGeneratedContent(text, f.useCase.Category)
	if out.IsFallback() {
		p.log.Warn("content generation fell back to placeholder", "use_case", f.useCase.Name, "reason", out.Reason)
	}
	return out, nil
}

// Process runs filter then generate for one use case.
func (p *Pipeline) Process(ctx context.Context, uc models.IdentifiedUseCase, customerNotes string) (Outcome[models.GeneratedContent], error) {
	f, err := p.Filter(ctx, uc, customerNotes)
	if err != nil {
		return Outcome[models.GeneratedContent]{}, err
	}
	return p.Generate(ctx, f)
}

// ParseGeneratedContent reads the generation response, clamping scores and
// coercing missing suggestion lists to empty ones.
func ParseGeneratedContent(text string, category models.Category) Outcome[models.GeneratedContent] {
	obj, err := jsonextract.Extract(text)
	if err != nil {
		return Fallback(placeholderContent(category), err.Error())
	}
	c := models.GeneratedContent{
		ProblemStatement:    stringField(obj, "problemStatement"),
		DatabricksSolution:  stringField(obj, "databricksSolution"),
		Impact:              stringField(obj, "impact"),
		ProblemConfidence:   scoreField(obj, "problemConfidence"),
		SolutionConfidence:  scoreField(obj, "solutionConfidence"),
		ImpactConfidence:    scoreField(obj, "impactConfidence"),
		ProblemSuggestions:  stringListField(obj, "problemSuggestions"),
		SolutionSuggestions: stringListField(obj, "solutionSuggestions"),
		ImpactSuggestions:   stringListField(obj, "impactSuggestions"),
	}
	if c.ProblemStatement == "" || c.DatabricksSolution == "" || c.Impact == "" {
		return Fallback(placeholderContent(category), "incomplete content generation response")
	}
	return Parsed(c)
}

func placeholderContent(category models.Category) models.GeneratedContent {
	c := models.GeneratedContent{
		ProblemStatement:   "Unable to generate problem statement from provided content.",
		DatabricksSolution: "Unable to generate solution description from provided content.",
		Impact:             "Unable to generate impact statement from provided content.",
		ProblemConfidence:  0.2,
		SolutionConfidence: 0.2,
		ImpactConfidence:   0.2,
	}
	if category.IsPlatform() {
		c.ProblemSuggestions = []string{"Please provide more specific details about technical challenges and infrastructure limitations"}
		c.SolutionSuggestions = []string{"Please describe specific Databricks platform features and technical capabilities used"}
		c.ImpactSuggestions = []string{"Please include technical metrics like cost reduction, performance improvements, or team productivity gains"}
	} else {
		c.ProblemSuggestions = []string{"Please provide more specific details about business challenges and operational inefficiencies"}
		c.SolutionSuggestions = []string{"Please describe how Databricks enabled specific business outcomes through data and AI"}
		c.ImpactSuggestions = []string{"Please include business metrics like revenue impact, KPI improvements, or operational efficiency gains"}
	}
	return c
}

// DisplayImpact renders impact statements as separate paragraphs.
func DisplayImpact(impact string) string {
	return strings.Join(models.SplitImpact(impact), "\n\n")
}
