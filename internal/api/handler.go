package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BerylCAtieno/storycraft-agent/internal/export"
	"github.com/BerylCAtieno/storycraft-agent/internal/logger"
	"github.com/BerylCAtieno/storycraft-agent/internal/pipeline"
	"github.com/BerylCAtieno/storycraft-agent/internal/wizard"
)

// Handler serves the step endpoints, the export endpoints and the wizard.
type Handler struct {
	log        *logger.Logger
	pipe       *pipeline.Pipeline
	exporter   *export.Exporter
	valueStory *export.Passthrough
	wizard     *wizard.Service
	info       ServiceInfo
}

func NewHandler(log *logger.Logger, pipe *pipeline.Pipeline, exporter *export.Exporter, valueStory *export.Passthrough, wiz *wizard.Service, info ServiceInfo) *Handler {
	return &Handler{
		log:        log.With("component", "api"),
		pipe:       pipe,
		exporter:   exporter,
		valueStory: valueStory,
		wizard:     wiz,
		info:       info,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (h *Handler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, h.info)
}

// text runs a step and replies with its raw model text.
func (h *Handler) text(c *gin.Context, step string, run func() (string, error)) {
	out, err := run()
	if err != nil {
		h.log.Error("step failed", "step", step, "request_id", c.GetString(requestIDKey), "error", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, TextResponse{Response: out})
}

func (h *Handler) ValidateCustomer(c *gin.Context) {
	var req ValidateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Customer details are required")
		return
	}
	h.text(c, "validate_customer", func() (string, error) {
		return h.pipe.ValidateCustomerRaw(c.Request.Context(), req.CustomerDetails)
	})
}

func (h *Handler) AnalyzeUseCases(c *gin.Context) {
	var req AnalyzeUseCasesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Customer content is required")
		return
	}
	h.text(c, "analyze_use_cases", func() (string, error) {
		return h.pipe.AnalyzeUseCasesRaw(c.Request.Context(), req.CustomerContent, req.Industry)
	})
}

func (h *Handler) FilterContent(c *gin.Context) {
	var req FilterContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Use case name and customer notes are required")
		return
	}
	h.text(c, "filter_content", func() (string, error) {
		return h.pipe.FilterRaw(c.Request.Context(), req.UseCaseName, req.CustomerNotes)
	})
}

func (h *Handler) GenerateContent(c *gin.Context) {
	var req GenerateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Use case name, category, and filtered content are required")
		return
	}
	h.text(c, "generate_content", func() (string, error) {
		return h.pipe.GenerateRaw(c.Request.Context(), req.UseCaseName, req.UseCaseCategory, req.FilteredContent)
	})
}

func (h *Handler) AIEditContent(c *gin.Context) {
	var req AIEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "All fields are required and feedback must be a non-empty array")
		return
	}
	h.text(c, "ai_edit", func() (string, error) {
		return h.pipe.EditRaw(c.Request.Context(), pipeline.EditRequest{
			Section:         req.Section,
			CurrentContent:  req.CurrentContent,
			Feedback:        req.Feedback,
			UseCaseName:     req.UseCaseName,
			UseCaseCategory: req.UseCaseCategory,
		})
	})
}

func (h *Handler) GenerateStory(c *gin.Context) {
	var req GenerateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UseCaseData == nil {
		badRequest(c, "Complete use case data is required")
		return
	}
	h.text(c, "generate_story", func() (string, error) {
		return h.pipe.StoryRaw(c.Request.Context(), *req.UseCaseData)
	})
}

func (h *Handler) ExportStories(c *gin.Context) {
	var req ExportStoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.StoryGenerationResults) == 0 {
		badRequest(c, "Story generation results are required")
		return
	}
	h.log.Info("export request received",
		"stories", len(req.StoryGenerationResults),
		"customer", req.CustomerInfo.CompanyName,
		"contents", len(req.UseCaseContents),
		"findings", len(req.AIResearchFindings),
	)

	records, err := export.Format(req.StoryGenerationResults, req.CustomerInfo, req.UseCaseContents, req.AIResearchFindings)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := h.exporter.Export(c.Request.Context(), records)
	if err != nil {
		h.log.Error("export failed", "error", err)
		_ = c.Error(err)
		c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ExportStoriesResponse{
		Success:      true,
		Message:      fmt.Sprintf("Successfully exported %d use case stories", res.TotalExported),
		ExportResult: res,
	})
}

// ValueStory relays an arbitrary form to the legacy value-story script.
func (h *Handler) ValueStory(c *gin.Context) {
	payload := map[string]any{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "request body must be a JSON object"})
		return
	}
	h.log.Debug("value story payload", "keys", len(payload))

	out, err := h.valueStory.Forward(c.Request.Context(), payload)
	if err != nil {
		h.log.Error("value story forward failed", "error", err)
		_ = c.Error(err)
		msg := strings.TrimSpace(err.Error())
		if msg == "" {
			msg = "Unknown"
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": msg})
		return
	}
	c.JSON(http.StatusOK, out)
}
