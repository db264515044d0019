// Package wizard models the guided story-building flow on the server: the
// linear panel sequence, what each panel needs before it can be left, and
// the per-session state it accumulates.
package wizard

import (
	"errors"
	"fmt"
	"time"

	"github.com/BerylCAtieno/storycraft-agent/internal/models"
	"github.com/BerylCAtieno/storycraft-agent/internal/pipeline"
)

type Step string

const (
	StepCustomerInput      Step = "customer_input"
	StepCustomerValidation Step = "customer_validation"
	StepUseCaseInput       Step = "use_case_input"
	StepUseCaseAnalysis    Step = "use_case_analysis"
	StepContentEditing     Step = "content_editing"
	StepExport             Step = "export"
)

var steps = []Step{
	StepCustomerInput,
	StepCustomerValidation,
	StepUseCaseInput,
	StepUseCaseAnalysis,
	StepContentEditing,
	StepExport,
}

func (s Step) index() int {
	for i, st := range steps {
		if st == s {
			return i
		}
	}
	return 0
}

func (s Step) previous() Step {
	i := s.index()
	if i == 0 {
		return steps[0]
	}
	return steps[i-1]
}

type ExportType string

const (
	ExportDraft ExportType = "draft"
	ExportFinal ExportType = "final"
)

func ParseExportType(s string) (ExportType, error) {
	switch ExportType(s) {
	case "", ExportFinal:
		return ExportFinal, nil
	case ExportDraft:
		return ExportDraft, nil
	}
	return "", fmt.Errorf("%w: unknown export type %q", pipeline.ErrInvalidInput, s)
}

var (
	ErrSessionNotFound = errors.New("session not found")
	// ErrGate is returned when an operation is attempted before the flow
	// allows it.
	ErrGate = errors.New("operation not allowed at this point")
)

func gate(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrGate, fmt.Sprintf(format, args...))
}

// Session is everything one user has entered or generated so far.
type Session struct {
	ID   string `json:"id"`
	Step Step   `json:"step"`

	CustomerDetails   string                  `json:"customerDetails,omitempty"`
	Customer          *models.CustomerProfile `json:"customer,omitempty"`
	CustomerStatus    pipeline.Status         `json:"customerStatus,omitempty"`
	CustomerConfirmed bool                    `json:"customerConfirmed"`

	CustomerNotes  string                  `json:"customerNotes,omitempty"`
	Analysis       *models.UseCaseAnalysis `json:"analysis,omitempty"`
	AnalysisStatus pipeline.Status         `json:"analysisStatus,omitempty"`
	// UseCases holds the analysis results plus hand-authored entries.
	UseCases []models.IdentifiedUseCase `json:"useCases"`
	Selected []models.IdentifiedUseCase `json:"selected"`

	Contents      map[models.UseCaseKey]models.GeneratedContent `json:"contents"`
	ContentStatus map[models.UseCaseKey]pipeline.Status         `json:"contentStatus"`
	ProcessErrors map[models.UseCaseKey]string                  `json:"processErrors,omitempty"`
	Findings      map[models.UseCaseKey][]string                `json:"researchFindings"`

	ExportType   ExportType           `json:"exportType,omitempty"`
	ExportResult *models.ExportResult `json:"exportResult,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newSession(id string, now time.Time) *Session {
	s := &Session{ID: id, Step: StepCustomerInput, CreatedAt: now, UpdatedAt: now}
	s.resetUseCases()
	return s
}

func (s *Session) resetUseCases() {
	s.UseCases = []models.IdentifiedUseCase{}
	s.Selected = []models.IdentifiedUseCase{}
	s.resetContent()
}

func (s *Session) resetContent() {
	s.Contents = map[models.UseCaseKey]models.GeneratedContent{}
	s.ContentStatus = map[models.UseCaseKey]pipeline.Status{}
	s.ProcessErrors = map[models.UseCaseKey]string{}
	s.Findings = map[models.UseCaseKey][]string{}
	s.ExportType = ""
	s.ExportResult = nil
}

// normalize fills maps that a JSON round trip may have left nil.
func (s *Session) normalize() {
	if s.UseCases == nil {
		s.UseCases = []models.IdentifiedUseCase{}
	}
	if s.Selected == nil {
		s.Selected = []models.IdentifiedUseCase{}
	}
	if s.Contents == nil {
		s.Contents = map[models.UseCaseKey]models.GeneratedContent{}
	}
	if s.ContentStatus == nil {
		s.ContentStatus = map[models.UseCaseKey]pipeline.Status{}
	}
	if s.ProcessErrors == nil {
		s.ProcessErrors = map[models.UseCaseKey]string{}
	}
	if s.Findings == nil {
		s.Findings = map[models.UseCaseKey][]string{}
	}
}

func (s *Session) SelectedKeys() []models.UseCaseKey {
	keys := make([]models.UseCaseKey, len(s.Selected))
	for i, uc := range s.Selected {
		keys[i] = uc.Key()
	}
	return keys
}

func (s *Session) selected(key models.UseCaseKey) (models.IdentifiedUseCase, bool) {
	for _, uc := range s.Selected {
		if uc.Key() == key {
			return uc, true
		}
	}
	return models.IdentifiedUseCase{}, false
}

func (s *Session) candidate(key models.UseCaseKey) (models.IdentifiedUseCase, bool) {
	for _, uc := range s.UseCases {
		if uc.Key() == key {
			return uc, true
		}
	}
	return models.IdentifiedUseCase{}, false
}

func (s *Session) customer() models.CustomerProfile {
	if s.Customer == nil {
		return models.CustomerProfile{}
	}
	return *s.Customer
}
