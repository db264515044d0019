package pipeline

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/BerylCAtieno/storycraft-agent/internal/models"
)

// maxParallel bounds concurrent LLM calls for one batch.
const maxParallel = 4

var ErrNoEligibleUseCases = errors.New("no active use cases with sufficient data for story generation")

// ProcessResult is the settled result for one use case. Err is set when
// the use case failed; the others are unaffected.
type ProcessResult struct {
	UseCase models.IdentifiedUseCase         `json:"useCase"`
	Key     models.UseCaseKey                `json:"useCaseKey"`
	Content Outcome[models.GeneratedContent] `json:"content"`
	Err     error                            `json:"-"`
}

// ProcessAll runs filter then generate for every use case concurrently and
// waits for all of them. Results keep the input order.
func (p *Pipeline) ProcessAll(ctx context.Context, useCases []models.IdentifiedUseCase, customerNotes string) []ProcessResult {
	results := make([]ProcessResult, len(useCases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, uc := range useCases {
		g.Go(func() error {
			res := ProcessResult{UseCase: uc, Key: uc.Key()}
			res.Content, res.Err = p.Process(gctx, uc, customerNotes)
			if res.Err != nil {
				p.log.Error("use case processing failed", "use_case", uc.Name, "error", res.Err)
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// GenerateStories builds stories for every use case that has all of its
// content. A failure for one use case becomes a placeholder story for it.
func (p *Pipeline) GenerateStories(ctx context.Context, inputs []models.StoryInput) ([]models.StoryResult, error) {
	var active []models.StoryInput
	for _, in := range inputs {
		if validateStoryInput(in) == nil {
			active = append(active, in)
		}
	}
	if len(active) == 0 {
		return nil, ErrNoEligibleUseCases
	}

	results := make([]models.StoryResult, len(active))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, in := range active {
		g.Go(func() error {
			key := in.Key()
			out, err := p.GenerateStory(gctx, in)
			if err != nil {
				p.log.Error("story generation failed", "use_case_key", key, "error", err)
				results[i] = models.StoryResult{
					UseCaseKey: key,
					StoryContent: models.StoryContent{
						Summary:       fmt.Sprintf("Story generation failed for %s", in.UseCaseName),
						DetailedStory: fmt.Sprintf("Unable to generate detailed story for %s. Error: %v", in.UseCaseName, err),
					},
				}
				return nil
			}
			results[i] = models.StoryResult{UseCaseKey: key, StoryContent: out.Value}
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}
