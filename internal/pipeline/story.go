package pipeline

import (
	"context"
	"fmt"

	"github.com/BerylCAtieno/storycraft-agent/internal/jsonextract"
	"github.com/BerylCAtieno/storycraft-agent/internal/models"
)

// storyAttempts caps story generation at one automatic retry.
const storyAttempts = 2

func validateStoryInput(in models.StoryInput) error {
	if blank(in.UseCaseName) || blank(in.ProblemStatement) || blank(in.DatabricksSolution) || blank(in.Impact) {
		return invalid("complete use case data is required")
	}
	return nil
}

func (p *Pipeline) StoryRaw(ctx context.Context, in models.StoryInput) (string, error) {
	if err := validateStoryInput(in); err != nil {
		return "", err
	}
	return p.Complete(ctx, StepGenerateStory, StoryPrompt(in))
}

// GenerateStory asks for a summary and narrative, retrying once when the
// call fails or the reply cannot be parsed. A gateway failure on the last
// attempt is returned; a parse failure yields placeholder text.
func (p *Pipeline) GenerateStory(ctx context.Context, in models.StoryInput) (Outcome[models.StoryContent], error) {
	if err := validateStoryInput(in); err != nil {
		return Outcome[models.StoryContent]{}, err
	}

	var (
		out     Outcome[models.StoryContent]
		lastErr error
	)
	for attempt := 1; attempt <= storyAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Outcome[models.StoryContent]{}, err
		}
		text, err := p.Complete(ctx, StepGenerateStory, StoryPrompt(in))
		if err != nil {
			lastErr = err
			p.log.Warn("story generation attempt failed", "use_case", in.UseCaseName, "attempt", attempt, "error", err)
			continue
		}
		lastErr = nil
		out = ParseStory(text)
		if !out.IsFallback() {
			return out, nil
		}
		p.log.Warn("story response not parseable", "use_case", in.UseCaseName, "attempt", attempt, "reason", out.Reason)
	}
	if lastErr != nil {
		return Outcome[models.StoryContent]{}, fmt.Errorf("story generation failed after %d attempts: %w", storyAttempts, lastErr)
	}
	return out, nil
}

func ParseStory(text string) Outcome[models.StoryContent] {
	obj, err := jsonextract.Extract(text)
	if err != nil {
		return Fallback(placeholderStory(), err.Error())
	}
	s := models.StoryContent{
		Summary:       stringField(obj, "summary"),
		DetailedStory: stringField(obj, "detailedStory"),
	}
	if s.Summary == "" || s.DetailedStory == "" {
		return Fallback(placeholderStory(), "incomplete story generation response")
	}
	return Parsed(s)
}

func placeholderStory() models.StoryContent {
	return models.StoryContent{
		Summary:       "Unable to generate story summary from provided content.",
		DetailedStory: "Unable to generate detailed story from provided content. Please check the use case data and try again.",
	}
}
