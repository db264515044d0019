package api

import (
	"github.com/gin-gonic/gin"

	"github.com/BerylCAtieno/storycraft-agent/internal/logger"
)

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(h *Handler, log *logger.Logger, corsOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(log), CORS(corsOrigins))

	router.GET("/health", h.Health)

	api := router.Group("/api")
	api.GET("/info", h.Info)

	api.POST("/validate-customer", h.ValidateCustomer)
	api.POST("/analyze-use-cases", h.AnalyzeUseCases)
	api.POST("/filter-content", h.FilterContent)
	api.POST("/generate-content", h.GenerateContent)
	api.POST("/ai-edit-content", h.AIEditContent)
	api.POST("/generate-story", h.GenerateStory)
	api.POST("/export-stories", h.ExportStories)
	api.POST("/value-story", h.ValueStory)

	wiz := api.Group("/wizard")
	wiz.POST("/sessions", h.StartSession)

	sess := wiz.Group("", RequireSession())
	sess.GET("/state", h.GetSession)
	sess.DELETE("/state", h.ResetSession)
	sess.POST("/back", h.Back)
	sess.POST("/customer", h.WizardValidateCustomer)
	sess.POST("/customer/confirm", h.ConfirmCustomer)
	sess.POST("/use-cases/analyze", h.WizardAnalyzeUseCases)
	sess.POST("/use-cases", h.AddUseCase)
	sess.POST("/use-cases/select", h.SelectUseCases)
	sess.POST("/use-cases/process", h.ProcessUseCases)
	sess.PUT("/content/:section", h.EditSection)
	sess.POST("/content/:section/ai-edit", h.AIEditSection)
	sess.POST("/content/:section/accept", h.AcceptSection)
	sess.GET("/validation", h.Validation)
	sess.POST("/export", h.WizardExport)

	return router
}

// Routes lists the public endpoints for the info card.
func Routes() []string {
	return []string{
		"GET /health",
		"GET /api/info",
		"POST /api/validate-customer",
		"POST /api/analyze-use-cases",
		"POST /api/filter-content",
		"POST /api/generate-content",
		"POST /api/ai-edit-content",
		"POST /api/generate-story",
		"POST /api/export-stories",
		"POST /api/value-story",
		"POST /api/wizard/sessions",
		"GET|DELETE /api/wizard/state",
		"POST /api/wizard/back",
		"POST /api/wizard/customer",
		"POST /api/wizard/customer/confirm",
		"POST /api/wizard/use-cases/analyze",
		"POST /api/wizard/use-cases",
		"POST /api/wizard/use-cases/select",
		"POST /api/wizard/use-cases/process",
		"PUT /api/wizard/content/:section",
		"POST /api/wizard/content/:section/ai-edit",
		"POST /api/wizard/content/:section/accept",
		"GET /api/wizard/validation",
		"POST /api/wizard/export",
	}
}
