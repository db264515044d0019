package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BerylCAtieno/storycraft-agent/internal/models"
	"github.com/BerylCAtieno/storycraft-agent/internal/pipeline"
	"github.com/BerylCAtieno/storycraft-agent/internal/wizard"
)

const (
	SessionCookie = "storycraft_session"
	SessionHeader = "X-Session-ID"
	sessionIDKey  = "session_id"
)

func sessionID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(SessionHeader)); id != "" {
		return id
	}
	if id, err := c.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(id)
	}
	return ""
}

// RequireSession resolves the wizard session id for the request.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := sessionID(c)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: wizard.ErrSessionNotFound.Error()})
			return
		}
		c.Set(sessionIDKey, id)
		c.Next()
	}
}

func sessionResponse(sess *wizard.Session) SessionResponse {
	resp := SessionResponse{Session: sess, Timestamp: Timestamp()}
	if len(sess.Contents) > 0 {
		resp.DisplayImpact = make(map[models.UseCaseKey]string, len(sess.Contents))
		for k, c := range sess.Contents {
			resp.DisplayImpact[k] = pipeline.DisplayImpact(c.Impact)
		}
	}
	return resp
}

func (h *Handler) reply(c *gin.Context, sess *wizard.Session, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(sess))
}

func (h *Handler) section(c *gin.Context) (models.Section, bool) {
	s, err := models.ParseSection(c.Param("section"))
	if err != nil {
		badRequest(c, err.Error())
		return "", false
	}
	return s, true
}

// bind decodes the JSON body, answering 400 on failure.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (h *Handler) StartSession(c *gin.Context) {
	sess, err := h.wizard.Start(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Set(sessionIDKey, sess.ID)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, sess.ID, 0, "/", "", false, true)
	c.Header(SessionHeader, sess.ID)
	c.JSON(http.StatusCreated, sessionResponse(sess))
}

func (h *Handler) GetSession(c *gin.Context) {
	sess, err := h.wizard.Get(c.Request.Context(), c.GetString(sessionIDKey))
	h.reply(c, sess, err)
}

func (h *Handler) ResetSession(c *gin.Context) {
	sess, err := h.wizard.Reset(c.Request.Context(), c.GetString(sessionIDKey))
	h.reply(c, sess, err)
}

func (h *Handler) Back(c *gin.Context) {
	sess, err := h.wizard.Back(c.Request.Context(), c.GetString(sessionIDKey))
	h.reply(c, sess, err)
}

func (h *Handler) WizardValidateCustomer(c *gin.Context) {
	var req CustomerDetailsRequest
	if !bind(c, &req) {
		return
	}
	sess, err := h.wizard.ValidateCustomer(c.Request.Context(), c.GetString(sessionIDKey), req.CustomerDetails)
	h.reply(c, sess, err)
}

func (h *Handler) ConfirmCustomer(c *gin.Context) {
	sess, err := h.wizard.ConfirmCustomer(c.Request.Context(), c.GetString(sessionIDKey))
	h.reply(c, sess, err)
}

func (h *Handler) WizardAnalyzeUseCases(c *gin.Context) {
	var req CustomerNotesRequest
	if !bind(c, &req) {
		return
	}
	sess, err := h.wizard.AnalyzeUseCases(c.Request.Context(), c.GetString(sessionIDKey), req.CustomerNotes)
	h.reply(c, sess, err)
}

func (h *Handler) AddUseCase(c *gin.Context) {
	var req AddUseCaseRequest
	if !bind(c, &req) {
		return
	}
	sess, err := h.wizard.AddUseCase(c.Request.Context(), c.GetString(sessionIDKey), req.Name, req.Category, req.Description)
	h.reply(c, sess, err)
}

func (h *Handler) SelectUseCases(c *gin.Context) {
	var req SelectUseCasesRequest
	if !bind(c, &req) {
		return
	}
	sess, err := h.wizard.SelectUseCases(c.Request.Context(), c.GetString(sessionIDKey), req.Keys)
	h.reply(c, sess, err)
}

func (h *Handler) ProcessUseCases(c *gin.Context) {
	sess, err := h.wizard.ProcessSelected(c.Request.Context(), c.GetString(sessionIDKey))
	h.reply(c, sess, err)
}

func (h *Handler) EditSection(c *gin.Context) {
	section, ok := h.section(c)
	if !ok {
		return
	}
	var req EditSectionRequest
	if !bind(c, &req) {
		return
	}
	sess, err := h.wizard.EditSection(c.Request.Context(), c.GetString(sessionIDKey), req.Key, section, req.Content)
	h.reply(c, sess, err)
}

func (h *Handler) AIEditSection(c *gin.Context) {
	section, ok := h.section(c)
	if !ok {
		return
	}
	var req AIEditSectionRequest
	if !bind(c, &req) {
		return
	}
	sess, edit, err := h.wizard.AIEditSection(c.Request.Context(), c.GetString(sessionIDKey), req.Key, section, req.Feedback)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, AIEditSectionResponse{
		SessionResponse: sessionResponse(sess),
		Edit:            edit.Value,
		EditStatus:      string(edit.Status),
	})
}

func (h *Handler) AcceptSection(c *gin.Context) {
	section, ok := h.section(c)
	if !ok {
		return
	}
	var req AcceptSectionRequest
	if !bind(c, &req) {
		return
	}
	if req.Accepted == nil {
		badRequest(c, "accepted is required")
		return
	}
	sess, changed, err := h.wizard.AcceptSection(c.Request.Context(), c.GetString(sessionIDKey), req.Key, section, *req.Accepted)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, AcceptSectionResponse{SessionResponse: sessionResponse(sess), Changed: changed})
}

func (h *Handler) Validation(c *gin.Context) {
	view, err := h.wizard.Validation(c.Request.Context(), c.GetString(sessionIDKey))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ValidationResponse{ValidationView: view, Timestamp: Timestamp()})
}

func (h *Handler) WizardExport(c *gin.Context) {
	var req WizardExportRequest
	// an empty body means a final export
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	out, err := h.wizard.Export(c.Request.Context(), c.GetString(sessionIDKey), req.ExportType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      fmt.Sprintf("Successfully exported %d use case stories", out.Result.TotalExported),
		"exportResult": out.Result,
		"stories":      out.Stories,
		"session":      sessionResponse(out.Session),
	})
}
