package api

import (
	"time"

	"github.com/BerylCAtieno/storycraft-agent/internal/models"
	"github.com/BerylCAtieno/storycraft-agent/internal/wizard"
)

// Step endpoint requests. Field names match what the browser client sends.
type ValidateCustomerRequest struct {
	CustomerDetails string `json:"customerDetails"`
}

type AnalyzeUseCasesRequest struct {
	CustomerContent string `json:"customerContent"`
	Industry        string `json:"industry"`
}

type FilterContentRequest struct {
	UseCaseName   string `json:"useCaseName"`
	CustomerNotes string `json:"customerNotes"`
}

type GenerateContentRequest struct {
	UseCaseName     string          `json:"useCaseName"`
	UseCaseCategory models.Category `json:"useCaseCategory"`
	FilteredContent string          `json:"filteredContent"`
}

type AIEditRequest struct {
	Section         models.Section  `json:"section"`
	CurrentContent  string          `json:"currentContent"`
	Feedback        []string        `json:"feedback"`
	UseCaseName     string          `json:"useCaseName"`
	UseCaseCategory models.Category `json:"useCaseCategory"`
}

type GenerateStoryRequest struct {
	UseCaseData *models.StoryInput `json:"useCaseData"`
}

// TextResponse carries raw model text back to the client.
type TextResponse struct {
	Response string `json:"response"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ExportStoriesRequest struct {
	StoryGenerationResults []models.StoryResult                          `json:"storyGenerationResults"`
	CustomerInfo           models.CustomerProfile                        `json:"customerInfo"`
	UseCaseContents        map[models.UseCaseKey]models.GeneratedContent `json:"useCaseContents"`
	AIResearchFindings     map[models.UseCaseKey][]string                `json:"aiResearchFindings"`
}

type ExportStoriesResponse struct {
	Success      bool                `json:"success"`
	Message      string              `json:"message"`
	ExportResult models.ExportResult `json:"exportResult"`
}

// Wizard requests.
type CustomerDetailsRequest struct {
	CustomerDetails string `json:"customerDetails"`
}

type CustomerNotesRequest struct {
	CustomerNotes string `json:"customerNotes"`
}

type AddUseCaseRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

type SelectUseCasesRequest struct {
	Keys []models.UseCaseKey `json:"keys"`
}

type EditSectionRequest struct {
	Key     models.UseCaseKey `json:"key"`
	Content string            `json:"content"`
}

type AIEditSectionRequest struct {
	Key      models.UseCaseKey `json:"key"`
	Feedback []string          `json:"feedback"`
}

type AcceptSectionRequest struct {
	Key      models.UseCaseKey `json:"key"`
	Accepted *bool             `json:"accepted"`
}

type WizardExportRequest struct {
	ExportType string `json:"exportType"`
}

// SessionResponse wraps the session with display-ready impact text.
type SessionResponse struct {
	Session       *wizard.Session              `json:"session"`
	DisplayImpact map[models.UseCaseKey]string `json:"displayImpact,omitempty"`
	Timestamp     string                       `json:"timestamp"`
}

type AIEditSectionResponse struct {
	SessionResponse
	Edit       models.EditResult `json:"edit"`
	EditStatus string            `json:"editStatus"`
}

type AcceptSectionResponse struct {
	SessionResponse
	Changed bool `json:"changed"`
}

type ValidationResponse struct {
	wizard.ValidationView
	Timestamp string `json:"timestamp"`
}

type ServiceInfo struct {
	Name                 string   `json:"name"`
	Version              string   `json:"version"`
	Provider             string   `json:"provider"`
	ExportConfigured     bool     `json:"exportConfigured"`
	ValueStoryConfigured bool     `json:"valueStoryConfigured"`
	SessionStore         string   `json:"sessionStore"`
	Endpoints            []string `json:"endpoints"`
}

func Timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
