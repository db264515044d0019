package wizard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/storycraft-agent/internal/llm"
	"github.com/BerylCAtieno/storycraft-agent/internal/logger"
	"github.com/BerylCAtieno/storycraft-agent/internal/models"
	"github.com/BerylCAtieno/storycraft-agent/internal/pipeline"
	"github.com/BerylCAtieno/storycraft-agent/internal/session"
)

const (
	customerJSON = `{"companyName": "Acme Corp", "region": "Denmark", "industry": "Renewable Energy", "confidence": "high", "additionalInfo": "Wind power"}`
	analysisJSON = `{"identifiedUseCases": [
		{"category": "Business Use Case", "name": "Predictive Maintenance", "description": "Predict turbine failures", "confidence": "high"},
		{"category": "Platform Use Case", "name": "Data Warehousing", "description": "Lakehouse SQL", "confidence": "medium"}
	], "summary": "Wind producer"}`
	strongContent = `{"problemStatement": "p", "databricksSolution": "s", "impact": "a||b", "problemConfidence": 0.9, "solutionConfidence": 0.8, "impactConfidence": 0.7, "problemSuggestions": [], "solutionSuggestions": [], "impactSuggestions": []}`
	weakContent   = `{"problemStatement": "p", "databricksSolution": "s", "impact": "vague", "problemConfidence": 0.9, "solutionConfidence": 0.9, "impactConfidence": 0.4, "impactSuggestions": ["add numbers"]}`
	editJSON      = `{"improvedContent": "Cut costs XX%||Saved XX hours", "researchFindings": "TEI report | Benchmarks", "placeholdersUsed": ["XX%"]}`
	storyJSON     = `{"summary": "Acme succeeded", "detailedStory": "Long story"}`
)

var (
	pmKey  = models.NewUseCaseKey("Predictive Maintenance", models.CategoryBusiness)
	dwhKey = models.NewUseCaseKey("Data Warehousing", models.CategoryPlatform)
)

// fakeLLM answers each pipeline step with canned output.
func fakeLLM(failGenerateFor string) llm.Func {
	return func(_ context.Context, prompt string, opts llm.Options) (string, error) {
		switch {
		case strings.Contains(prompt, `"detailedStory"`):
			return storyJSON, nil
		case strings.Contains(prompt, `"improvedContent"`):
			return editJSON, nil
		case opts == pipeline.StepValidateCustomer.Options:
			return customerJSON, nil
		case opts == pipeline.StepAnalyzeUseCases.Options:
			return analysisJSON, nil
		case opts == pipeline.StepFilterContent.Options:
			return "relevant notes", nil
		case opts == pipeline.StepGenerateContent.Options:
			if failGenerateFor != "" && strings.Contains(prompt, "Use Case: "+failGenerateFor) {
				return "", errors.New("provider unavailable")
			}
			if strings.Contains(prompt, "Use Case: Data Warehousing") {
				return weakContent, nil
			}
			return strongContent, nil
		}
		return "", errors.New("unexpected prompt")
	}
}

type fakeExporter struct {
	mu      sync.Mutex
	records []models.ExportRecord
	err     error
}

func (f *fakeExporter) Export(_ context.Context, records []models.ExportRecord) (models.ExportResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.ExportResult{}, f.err
	}
	f.records = records
	return models.ExportResult{Success: true, TotalExported: len(records), URL: "https://deck"}, nil
}

func newService(gw llm.Func, exp Exporter) *Service {
	return NewService(logger.Nop(), pipeline.New(gw, logger.Nop()), exp, session.NewMemoryStore(0))
}

// toSelection drives a fresh session up to a processed selection.
func toSelection(t *testing.T, svc *Service) string {
	t.Helper()
	ctx := context.Background()
	sess, err := svc.Start(ctx)
	require.NoError(t, err)
	id := sess.ID

	_, err = svc.ValidateCustomer(ctx, id, "Acme Corp, renewable energy, based in Denmark")
	require.NoError(t, err)
	_, err = svc.ConfirmCustomer(ctx, id)
	require.NoError(t, err)
	_, err = svc.AnalyzeUseCases(ctx, id, "They want predictive maintenance and a lakehouse.")
	require.NoError(t, err)
	_, err = svc.SelectUseCases(ctx, id, []models.UseCaseKey{pmKey, dwhKey})
	require.NoError(t, err)
	return id
}

func TestFullFlow(t *testing.T) {
	ctx := context.Background()
	exp := &fakeExporter{}
	svc := newService(fakeLLM(""), exp)
	id := toSelection(t, svc)

	sess, err := svc.ProcessSelected(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StepContentEditing, sess.Step)
	assert.Len(t, sess.Contents, 2)
	assert.Equal(t, pipeline.StatusParsed, sess.ContentStatus[pmKey])

	view, err := svc.Validation(ctx, id)
	require.NoError(t, err)
	assert.False(t, view.CanExport)
	assert.Equal(t, 2, view.Summary.TotalUseCases)
	assert.Equal(t, 1, view.Summary.ValidatedUseCases)
	require.Len(t, view.UseCases, 2)
	assert.True(t, view.UseCases[1].ValidationState.Problem)
	assert.False(t, view.UseCases[1].ValidationState.Impact)

	_, err = svc.Export(ctx, id, "final")
	assert.ErrorIs(t, err, ErrGate)
	assert.Nil(t, exp.records)

	sess, edit, err := svc.AIEditSection(ctx, id, dwhKey, models.SectionImpact, []string{"add numbers"})
	require.NoError(t, err)
	assert.False(t, edit.IsFallback())
	assert.Equal(t, "Cut costs XX%||Saved XX hours", sess.Contents[dwhKey].Impact)
	assert.InDelta(t, 1.0, sess.Contents[dwhKey].ImpactConfidence, 1e-9)
	assert.Equal(t, []string{"TEI report", "Benchmarks"}, sess.Findings[dwhKey])

	view, err = svc.Validation(ctx, id)
	require.NoError(t, err)
	assert.True(t, view.CanExport)

	out, err := svc.Export(ctx, id, "draft")
	require.NoError(t, err)
	assert.Equal(t, models.ExportResult{Success: true, TotalExported: 2, URL: "https://deck"}, out.Result)
	assert.Equal(t, StepExport, out.Session.Step)
	assert.Equal(t, ExportDraft, out.Session.ExportType)
	require.Len(t, out.Stories, 2)

	require.Len(t, exp.records, 2)
	assert.Equal(t, "Acme Corp", exp.records[0].CustomerName)
	assert.Equal(t, "Predictive Maintenance", exp.records[0].Description)
	assert.Equal(t, "a", exp.records[0].IS1)
	assert.Equal(t, "b", exp.records[0].IS2)
	assert.Equal(t, "Acme succeeded", exp.records[0].DatabricksRole)
	assert.Equal(t, "TEI report; Benchmarks", exp.records[1].Sources)
	assert.Equal(t, "AI Recommendations: add numbers", exp.records[1].Notes)
}

func TestCustomerGates(t *testing.T) {
	ctx := context.Background()
	svc := newService(fakeLLM(""), &fakeExporter{})
	sess, err := svc.Start(ctx)
	require.NoError(t, err)
	id := sess.ID

	_, err = svc.ConfirmCustomer(ctx, id)
	assert.ErrorIs(t, err, ErrGate)
	_, err = svc.AnalyzeUseCases(ctx, id, "notes")
	assert.ErrorIs(t, err, ErrGate)
	_, err = svc.ValidateCustomer(ctx, id, " ")
	assert.ErrorIs(t, err, pipeline.ErrInvalidInput)

	sess, err = svc.ValidateCustomer(ctx, id, "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, StepCustomerValidation, sess.Step)
	assert.Equal(t, models.ConfidenceHigh, sess.Customer.Confidence)

	sess, err = svc.ConfirmCustomer(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StepUseCaseInput, sess.Step)
	sess, err = svc.ConfirmCustomer(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StepUseCaseInput, sess.Step)

	_, err = svc.ValidateCustomer(ctx, id, "Globex")
	assert.ErrorIs(t, err, ErrGate)
}

func TestUseCaseSelection(t *testing.T) {
	ctx := context.Background()
	svc := newService(fakeLLM(""), &fakeExporter{})
	id := toSelection(t, svc)

	sess, err := svc.AddUseCase(ctx, id, "Fraud Detection", "business", "Spot fraudulent trades")
	require.NoError(t, err)
	added := sess.UseCases[len(sess.UseCases)-1]
	assert.Equal(t, models.ConfidenceHigh, added.Confidence)
	assert.Equal(t, models.CategoryBusiness, added.Category)

	_, err = svc.AddUseCase(ctx, id, "Fraud Detection", "Business Use Case", "again")
	assert.ErrorIs(t, err, ErrGate)
	_, err = svc.AddUseCase(ctx, id, "X", "Other", "desc")
	assert.ErrorIs(t, err, pipeline.ErrInvalidInput)

	_, err = svc.SelectUseCases(ctx, id, []models.UseCaseKey{pmKey, pmKey})
	assert.ErrorIs(t, err, ErrGate)
	_, err = svc.SelectUseCases(ctx, id, []models.UseCaseKey{"Nope-Business Use Case"})
	assert.ErrorIs(t, err, pipeline.ErrInvalidInput)
	_, err = svc.SelectUseCases(ctx, id, nil)
	assert.ErrorIs(t, err, pipeline.ErrInvalidInput)

	sess, err = svc.SelectUseCases(ctx, id, []models.UseCaseKey{dwhKey})
	require.NoError(t, err)
	assert.Equal(t, []models.UseCaseKey{dwhKey}, sess.SelectedKeys())

	sum, err := svc.Tracker(id).Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.TotalUseCases)
}

func TestProcessSelectedIsolatesFailures(t *testing.T) {
	ctx := context.Background()
	svc := newService(fakeLLM("Predictive Maintenance"), &fakeExporter{})
	id := toSelection(t, svc)

	sess, err := svc.ProcessSelected(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StepContentEditing, sess.Step)
	assert.Contains(t, sess.ProcessErrors[pmKey], "provider unavailable")
	assert.Contains(t, sess.Contents, dwhKey)
	assert.NotContains(t, sess.Contents, pmKey)

	_, err = svc.EditSection(ctx, id, pmKey, models.SectionProblem, "text")
	assert.ErrorIs(t, err, ErrGate)
}

func TestProcessSelectedAllFail(t *testing.T) {
	ctx := context.Background()
	svc := newService(func(ctx context.Context, prompt string, opts llm.Options) (string, error) {
		if opts == pipeline.StepFilterContent.Options {
			return "", errors.New("down")
		}
		return fakeLLM("")(ctx, prompt, opts)
	}, &fakeExporter{})
	id := toSelection(t, svc)

	_, err := svc.ProcessSelected(ctx, id)
	require.Error(t, err)
	sess, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StepUseCaseAnalysis, sess.Step)
}

func TestEditAndAccept(t *testing.T) {
	ctx := context.Background()
	svc := newService(fakeLLM(""), &fakeExporter{})
	id := toSelection(t, svc)
	_, err := svc.ProcessSelected(ctx, id)
	require.NoError(t, err)

	sess, err := svc.EditSection(ctx, id, pmKey, models.SectionProblem, "  Acme faced outages. ")
	require.NoError(t, err)
	assert.Equal(t, "Acme faced outages.", sess.Contents[pmKey].ProblemStatement)
	ok, err := svc.Tracker(id).IsValidated(ctx, pmKey)
	require.NoError(t, err)
	assert.True(t, ok, "manual edit keeps validation")

	_, err = svc.EditSection(ctx, id, pmKey, "summary", "x")
	assert.ErrorIs(t, err, pipeline.ErrInvalidInput)

	_, changed, err := svc.AcceptSection(ctx, id, dwhKey, models.SectionImpact, true)
	require.NoError(t, err)
	assert.True(t, changed)
	_, changed, err = svc.AcceptSection(ctx, id, dwhKey, models.SectionImpact, true)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestAIEditFallbackLeavesContent(t *testing.T) {
	ctx := context.Background()
	svc := newService(func(ctx context.Context, prompt string, opts llm.Options) (string, error) {
		if strings.Contains(prompt, `"improvedContent"`) {
			return "Sorry, I cannot help.", nil
		}
		return fakeLLM("")(ctx, prompt, opts)
	}, &fakeExporter{})
	id := toSelection(t, svc)
	_, err := svc.ProcessSelected(ctx, id)
	require.NoError(t, err)

	sess, edit, err := svc.AIEditSection(ctx, id, dwhKey, models.SectionImpact, []string{"add numbers"})
	require.NoError(t, err)
	assert.True(t, edit.IsFallback())
	assert.Equal(t, "vague", sess.Contents[dwhKey].Impact)
	assert.Empty(t, sess.Findings[dwhKey])
	ok, err := svc.Tracker(id).IsValidated(ctx, dwhKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExportFailureKeepsStep(t *testing.T) {
	ctx := context.Background()
	svc := newService(fakeLLM(""), &fakeExporter{err: errors.New("sheet locked")})
	id := toSelection(t, svc)
	_, err := svc.ProcessSelected(ctx, id)
	require.NoError(t, err)
	_, _, err = svc.AcceptSection(ctx, id, dwhKey, models.SectionImpact, true)
	require.NoError(t, err)

	_, err = svc.Export(ctx, id, "bogus")
	assert.ErrorIs(t, err, pipeline.ErrInvalidInput)

	_, err = svc.Export(ctx, id, "")
	require.ErrorContains(t, err, "sheet locked")
	sess, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StepContentEditing, sess.Step)
	assert.Nil(t, sess.ExportResult)
}

func TestBackAndReset(t *testing.T) {
	ctx := context.Background()
	svc := newService(fakeLLM(""), &fakeExporter{})
	id := toSelection(t, svc)

	sess, err := svc.Back(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StepUseCaseInput, sess.Step)
	assert.Len(t, sess.Selected, 2, "going back keeps data")

	sess, err = svc.Reset(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, sess.ID)
	assert.Equal(t, StepCustomerInput, sess.Step)
	assert.Nil(t, sess.Customer)
	sum, err := svc.Tracker(id).Summary(ctx)
	require.NoError(t, err)
	assert.Zero(t, sum.TotalUseCases)

	sess, err = svc.Back(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StepCustomerInput, sess.Step)
}

func TestUnknownSession(t *testing.T) {
	svc := newService(fakeLLM(""), &fakeExporter{})
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Back(context.Background(), "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.True(t, IsClientError(err))
}

func TestReprocessRejudgesValidation(t *testing.T) {
	ctx := context.Background()
	degraded := false
	exp := &fakeExporter{}
	svc := newService(func(ctx context.Context, prompt string, opts llm.Options) (string, error) {
		if opts == pipeline.StepGenerateContent.Options {
			if degraded {
				return "sorry, I cannot help", nil
			}
			return strongContent, nil
		}
		return fakeLLM("")(ctx, prompt, opts)
	}, exp)
	id := toSelection(t, svc)

	_, err := svc.ProcessSelected(ctx, id)
	require.NoError(t, err)
	view, err := svc.Validation(ctx, id)
	require.NoError(t, err)
	require.True(t, view.CanExport)

	degraded = true
	sess, err := svc.ProcessSelected(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusFallback, sess.ContentStatus[pmKey])

	view, err = svc.Validation(ctx, id)
	require.NoError(t, err)
	assert.False(t, view.CanExport)
	assert.Equal(t, 0, view.Summary.ValidatedUseCases)
	for _, st := range view.UseCases {
		assert.False(t, st.ValidationState.Problem)
		assert.False(t, st.ValidationState.Solution)
		assert.False(t, st.ValidationState.Impact)
	}

	_, err = svc.Export(ctx, id, "final")
	assert.ErrorIs(t, err, ErrGate)
	assert.Nil(t, exp.records)
}

func TestAIEditDefaultsToStoredSuggestions(t *testing.T) {
	ctx := context.Background()
	var editPrompt string
	svc := newService(func(ctx context.Context, prompt string, opts llm.Options) (string, error) {
		if strings.Contains(prompt, `"improvedContent"`) {
			editPrompt = prompt
		}
		return fakeLLM("")(ctx, prompt, opts)
	}, &fakeExporter{})
	id := toSelection(t, svc)
	_, err := svc.ProcessSelected(ctx, id)
	require.NoError(t, err)

	sess, edit, err := svc.AIEditSection(ctx, id, dwhKey, models.SectionImpact, []string{" "})
	require.NoError(t, err)
	assert.False(t, edit.IsFallback())
	assert.Contains(t, editPrompt, "add numbers")
	assert.Equal(t, "Cut costs XX%||Saved XX hours", sess.Contents[dwhKey].Impact)

	// no feedback and no stored suggestions
	_, _, err = svc.AIEditSection(ctx, id, pmKey, models.SectionProblem, nil)
	assert.ErrorIs(t, err, pipeline.ErrInvalidInput)
}

func TestSessionLocksAreReleased(t *testing.T) {
	ctx := context.Background()
	svc := newService(fakeLLM(""), &fakeExporter{})
	id := toSelection(t, svc)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Back(ctx, id)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	_, err := svc.Reset(ctx, id)
	require.NoError(t, err)
	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Empty(t, svc.locks)
}
