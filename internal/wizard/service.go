package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BerylCAtieno/storycraft-agent/internal/export"
	"github.com/BerylCAtieno/storycraft-agent/internal/logger"
	"github.com/BerylCAtieno/storycraft-agent/internal/models"
	"github.com/BerylCAtieno/storycraft-agent/internal/pipeline"
	"github.com/BerylCAtieno/storycraft-agent/internal/session"
	"github.com/BerylCAtieno/storycraft-agent/internal/validation"
)

const (
	sessionKey = "storycraft_wizard"

	// AutoValidateThreshold is the section confidence at or above which a
	// section counts as validated without user action.
	AutoValidateThreshold = 0.7
)

// Exporter sends formatted records to the document service.
type Exporter interface {
	Export(ctx context.Context, records []models.ExportRecord) (models.ExportResult, error)
}

type Service struct {
	log      *logger.Logger
	pipe     *pipeline.Pipeline
	exporter Exporter
	store    session.Store
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock is dropped from the map once no caller holds or waits on it.
type sessionLock struct {
	sync.Mutex
	refs int
}

func NewService(log *logger.Logger, pipe *pipeline.Pipeline, exporter Exporter, store session.Store) *Service {
	return &Service{
		log:      log.With("component", "wizard"),
		pipe:     pipe,
		exporter: exporter,
		store:    store,
		now:      time.Now,
		locks:    map[string]*sessionLock{},
	}
}

func (s *Service) Tracker(sessionID string) *validation.Tracker {
	return validation.NewTracker(s.store, sessionID)
}

// lock serializes operations on one session.
func (s *Service) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

func (s *Service) load(ctx context.Context, id string) (*Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrSessionNotFound
	}
	var sess Session
	found, err := s.store.Load(ctx, id, sessionKey, &sess)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return nil, ErrSessionNotFound
	}
	sess.normalize()
	return &sess, nil
}

func (s *Service) save(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = s.now()
	if err := s.store.Save(ctx, sess.ID, sessionKey, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// update loads the session, applies fn and saves it unless fn fails.
func (s *Service) update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	unlock := s.lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Service) Start(ctx context.Context) (*Session, error) {
	sess := newSession(uuid.NewString(), s.now())
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	s.log.Info("wizard session started", "session_id", sess.ID)
	return sess, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	return s.load(ctx, id)
}

// ValidateCustomer looks up the described company. The profile can be
// re-validated until it is confirmed.
func (s *Service) ValidateCustomer(ctx context.Context, id, details string) (*Session, error) {
	return s.update(ctx, id, func(sess *Session) error {
		if sess.CustomerConfirmed {
			return gate("customer is already confirmed")
		}
		out, err := s.pipe.ValidateCustomer(ctx, details)
		if err != nil {
			return err
		}
		profile := out.Value
		sess.CustomerDetails = strings.TrimSpace(details)
		sess.Customer = &profile
		sess.CustomerStatus = out.Status
		sess.Step = StepCustomerValidation
		return nil
	})
}

func (s *Service) ConfirmCustomer(ctx context.Context, id string) (*Session, error) {
	return s.update(ctx, id, func(sess *Session) error {
		if sess.CustomerConfirmed {
			return nil
		}
		if sess.Customer == nil {
			return gate("validate the customer before confirming")
		}
		sess.CustomerConfirmed = true
		sess.Step = StepUseCaseInput
		return nil
	})
}

// AnalyzeUseCases identifies use cases in the notes. Running it again
// replaces earlier candidates, the selection and any generated content.
func (s *Service) AnalyzeUseCases(ctx context.Context, id, notes string) (*Session, error) {
	return s.update(ctx, id, func(sess *Session) error {
		if !sess.CustomerConfirmed {
			return gate("confirm the customer before analyzing use cases")
		}
		out, err := s.pipe.AnalyzeUseCases(ctx, notes, sess.customer().Industry)
		if err != nil {
			return err
		}
		if err := s.Tracker(sess.ID).Clear(ctx); err != nil {
			return err
		}
		analysis := out.Value
		sess.CustomerNotes = strings.TrimSpace(notes)
		sess.Analysis = &analysis
		sess.AnalysisStatus = out.Status
		sess.resetUseCases()
		for _, uc := range analysis.IdentifiedUseCases {
			if _, dup := sess.candidate(uc.Key()); dup {
				s.log.Warn("dropping duplicate use case from analysis", "session_id", sess.ID, "use_case_key", uc.Key())
				continue
			}
			sess.UseCases = append(sess.UseCases, uc)
		}
		sess.Step = StepUseCaseAnalysis
		return nil
	})
}

// AddUseCase appends a hand-authored use case. These always carry high
// confidence.
func (s *Service) AddUseCase(ctx context.Context, id, name, category, description string) (*Session, error) {
	return s.update(ctx, id, func(sess *Session) error {
		if sess.Analysis == nil {
			return gate("analyze use cases before adding one")
		}
		cat := models.ParseCategory(category)
		if strings.TrimSpace(name) == "" || strings.TrimSpace(description) == "" {
			return fmt.Errorf("%w: name and description are required", pipeline.ErrInvalidInput)
		}
		if cat != models.CategoryPlatform && cat != models.CategoryBusiness {
			return fmt.Errorf("%w: category must be %q or %q", pipeline.ErrInvalidInput, models.CategoryPlatform, models.CategoryBusiness)
		}
		uc := models.IdentifiedUseCase{
			Category:    cat,
			Name:        strings.TrimSpace(name),
			Description: strings.TrimSpace(description),
			Confidence:  models.ConfidenceHigh,
		}
		if _, dup := sess.candidate(uc.Key()); dup {
			return gate("use case %q already exists", uc.Key())
		}
		sess.UseCases = append(sess.UseCases, uc)
		return nil
	})
}

// SelectUseCases sets the working set. Keys must be distinct and refer to
// known candidates.
func (s *Service) SelectUseCases(ctx context.Context, id string, keys []models.UseCaseKey) (*Session, error) {
	return s.update(ctx, id, func(sess *Session) error {
		if sess.Analysis == nil {
			return gate("analyze use cases before selecting")
		}
		if len(keys) == 0 {
			return fmt.Errorf("%w: select at least one use case", pipeline.ErrInvalidInput)
		}
		seen := make(map[models.UseCaseKey]bool, len(keys))
		selected := make([]models.IdentifiedUseCase, 0, len(keys))
		for _, k := range keys {
			if seen[k] {
				return gate("use case %q selected more than once", k)
			}
			seen[k] = true
			uc, ok := sess.candidate(k)
			if !ok {
				return fmt.Errorf("%w: unknown use case %q", pipeline.ErrInvalidInput, k)
			}
			selected = append(selected, uc)
		}

		tracker := s.Tracker(sess.ID)
		if err := tracker.Retain(ctx, keys); err != nil {
			return err
		}
		for _, uc := range selected {
			if err := tracker.Initialize(ctx, uc.Key(), uc.Name, uc.Category); err != nil {
				return err
			}
		}
		for k := range sess.Contents {
			if !seen[k] {
				delete(sess.Contents, k)
				delete(sess.ContentStatus, k)
				delete(sess.Findings, k)
			}
		}
		sess.Selected = selected
		return nil
	})
}

// ProcessSelected generates content for every selected use case at once.
// One use case failing does not affect the others; the call only fails
// when none succeeded.
func (s *Service) ProcessSelected(ctx context.Context, id string) (*Session, error) {
	return s.update(ctx, id, func(sess *Session) error {
		if len(sess.Selected) == 0 {
			return gate("select at least one use case before processing")
		}
		tracker := s.Tracker(sess.ID)
		results := s.pipe.ProcessAll(ctx, sess.Selected, sess.CustomerNotes)

		var firstErr error
		succeeded := 0
		sess.ProcessErrors = map[models.UseCaseKey]string{}
		for _, r := range results {
			if r.Err != nil {
				sess.ProcessErrors[r.Key] = r.Err.Error()
				if firstErr == nil {
					firstErr = r.Err
				}
				continue
			}
			succeeded++
			sess.Contents[r.Key] = r.Content.Value
			sess.ContentStatus[r.Key] = r.Content.Status
			// fresh content is judged on its own scores; earlier flags do not carry over
			for _, sec := range models.Sections {
				ok := r.Content.Value.Confidence(sec) >= AutoValidateThreshold
				if _, err := tracker.UpdateSection(ctx, r.Key, sec, ok); err != nil {
					return err
				}
			}
		}
		s.log.Info("use cases processed", "session_id", sess.ID, "total", len(results), "succeeded", succeeded)
		if succeeded == 0 {
			return firstErr
		}
		sess.Step = StepContentEditing
		return nil
	})
}

func contentFor(sess *Session, key models.UseCaseKey) (models.GeneratedContent, error) {
	if _, ok := sess.selected(key); !ok {
		return models.GeneratedContent{}, fmt.Errorf("%w: use case %q is not selected", pipeline.ErrInvalidInput, key)
	}
	c, ok := sess.Contents[key]
	if !ok {
		return models.GeneratedContent{}, gate("use case %q has no generated content yet", key)
	}
	return c, nil
}

// EditSection replaces a section with user text. Validation flags are left
// as they are.
func (s *Service) EditSection(ctx context.Context, id string, key models.UseCaseKey, section models.Section, text string) (*Session, error) {
	if _, err := models.ParseSection(string(section)); err != nil {
		return nil, fmt.Errorf("%w: %v", pipeline.ErrInvalidInput, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: content is required", pipeline.ErrInvalidInput)
	}
	return s.update(ctx, id, func(sess *Session) error {
		c, err := contentFor(sess, key)
		if err != nil {
			return err
		}
		c.SetText(section, strings.TrimSpace(text))
		sess.Contents[key] = c
		return nil
	})
}

// AIEditSection rewrites a section from feedback, or from the section's
// stored suggestions when no feedback is given. A parsed result replaces
// the section, adds its citations to the use case's findings and validates
// the section. A fallback result leaves everything unchanged.
func (s *Service) AIEditSection(ctx context.Context, id string, key models.UseCaseKey, section models.Section, feedback []string) (*Session, pipeline.Outcome[models.EditResult], error) {
	var result pipeline.Outcome[models.EditResult]
	sess, err := s.update(ctx, id, func(sess *Session) error {
		c, err := contentFor(sess, key)
		if err != nil {
			return err
		}
		if !hasText(feedback) {
			feedback = c.Suggestions(section)
		}
		uc, _ := sess.selected(key)
		result, err = s.pipe.Edit(ctx, pipeline.EditRequest{
			Section:         section,
			CurrentContent:  c.Text(section),
			Feedback:        feedback,
			UseCaseName:     uc.Name,
			UseCaseCategory: uc.Category,
		})
		if err != nil {
			return err
		}
		if result.IsFallback() {
			return nil
		}
		c.SetText(section, result.Value.ImprovedContent)
		c.SetConfidence(section, 1)
		sess.Contents[key] = c
		sess.Findings[key] = append(sess.Findings[key], result.Value.Citations()...)
		_, err = s.Tracker(sess.ID).UpdateSection(ctx, key, section, true)
		return err
	})
	return sess, result, err
}

func hasText(items []string) bool {
	for _, it := range items {
		if strings.TrimSpace(it) != "" {
			return true
		}
	}
	return false
}

// AcceptSection records the user's explicit decision on a section.
func (s *Service) AcceptSection(ctx context.Context, id string, key models.UseCaseKey, section models.Section, accepted bool) (*Session, bool, error) {
	if _, err := models.ParseSection(string(section)); err != nil {
		return nil, false, fmt.Errorf("%w: %v", pipeline.ErrInvalidInput, err)
	}
	var changed bool
	sess, err := s.update(ctx, id, func(sess *Session) error {
		if _, err := contentFor(sess, key); err != nil {
			return err
		}
		var err error
		changed, err = s.Tracker(sess.ID).UpdateSection(ctx, key, section, accepted)
		return err
	})
	return sess, changed, err
}

// ValidationView is the gating state of the current selection.
type ValidationView struct {
	Summary   validation.Summary `json:"summary"`
	UseCases  []validation.State `json:"useCases"`
	CanExport bool               `json:"canExport"`
}

func (s *Service) Validation(ctx context.Context, id string) (ValidationView, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return ValidationView{}, err
	}
	tracker := s.Tracker(id)
	sum, err := tracker.Summary(ctx)
	if err != nil {
		return ValidationView{}, err
	}
	view := ValidationView{Summary: sum, UseCases: []validation.State{}}
	for _, k := range sess.SelectedKeys() {
		st, ok, err := tracker.State(ctx, k)
		if err != nil {
			return ValidationView{}, err
		}
		if ok {
			view.UseCases = append(view.UseCases, st)
		}
	}
	view.CanExport, err = tracker.AllValidated(ctx, sess.SelectedKeys())
	return view, err
}

type ExportOutcome struct {
	Session *Session             `json:"session"`
	Stories []models.StoryResult `json:"stories"`
	Result  models.ExportResult  `json:"exportResult"`
}

// Export generates stories for the selection and sends them to the
// document service. Every selected use case must be fully validated.
func (s *Service) Export(ctx context.Context, id, exportType string) (ExportOutcome, error) {
	et, err := ParseExportType(exportType)
	if err != nil {
		return ExportOutcome{}, err
	}
	var out ExportOutcome
	sess, err := s.update(ctx, id, func(sess *Session) error {
		ok, err := s.Tracker(sess.ID).AllValidated(ctx, sess.SelectedKeys())
		if err != nil {
			return err
		}
		if !ok {
			return gate("every section of every selected use case must be validated before export")
		}

		customer := sess.customer()
		inputs := make([]models.StoryInput, 0, len(sess.Selected))
		for _, uc := range sess.Selected {
			c := sess.Contents[uc.Key()]
			inputs = append(inputs, models.StoryInput{
				UseCaseName:        uc.Name,
				UseCaseCategory:    uc.Category,
				ProblemStatement:   c.ProblemStatement,
				DatabricksSolution: c.DatabricksSolution,
				Impact:             c.Impact,
				CustomerInfo:       customer,
			})
		}
		stories, err := s.pipe.GenerateStories(ctx, inputs)
		if err != nil {
			return err
		}
		records, err := export.Format(stories, customer, sess.Contents, sess.Findings)
		if err != nil {
			return err
		}
		s.log.Info("exporting wizard session", "session_id", sess.ID, "export_type", et, "use_cases", len(records))
		res, err := s.exporter.Export(ctx, records)
		if err != nil {
			return err
		}
		sess.ExportType = et
		sess.ExportResult = &res
		sess.Step = StepExport
		out.Stories = stories
		out.Result = res
		return nil
	})
	if err != nil {
		return ExportOutcome{}, err
	}
	out.Session = sess
	return out, nil
}

// Reset wipes the session and its validation state and starts over under
// the same id.
func (s *Service) Reset(ctx context.Context, id string) (*Session, error) {
	unlock := s.lock(id)
	defer unlock()

	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	if err := s.Tracker(id).Clear(ctx); err != nil {
		return nil, err
	}
	sess := newSession(id, s.now())
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	s.log.Info("wizard session reset", "session_id", id)
	return sess, nil
}

// Back moves one panel back. Data already entered is kept.
func (s *Service) Back(ctx context.Context, id string) (*Session, error) {
	return s.update(ctx, id, func(sess *Session) error {
		sess.Step = sess.Step.previous()
		return nil
	})
}

// IsClientError reports whether err was caused by the caller.
func IsClientError(err error) bool {
	return errors.Is(err, pipeline.ErrInvalidInput) || errors.Is(err, ErrGate) || errors.Is(err, ErrSessionNotFound)
}
