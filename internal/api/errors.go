package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BerylCAtieno/storycraft-agent/internal/export"
	"github.com/BerylCAtieno/storycraft-agent/internal/pipeline"
	"github.com/BerylCAtieno/storycraft-agent/internal/wizard"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidInput),
		errors.Is(err, export.ErrNoStories),
		errors.Is(err, export.ErrNoRecords):
		return http.StatusBadRequest
	case errors.Is(err, wizard.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, wizard.ErrGate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {error} with the original error text.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}
