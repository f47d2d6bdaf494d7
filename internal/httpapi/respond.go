package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dinehub/internal/domain"
	"dinehub/internal/logger"
)

// fail translates a domain error into the structured failure body. Anything
// outside the taxonomy is logged with context and hidden behind a generic
// 500 so infrastructure details never leak to clients.
func fail(c *gin.Context, lg *logger.Logger, err error) {
	kind := domain.ErrorKind(err)
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		lg.Error("request_failed", err, map[string]any{
			"path": c.FullPath(), "method": c.Request.Method,
		})
		msg = "internal error, please retry"
	}
	c.JSON(status, gin.H{"error": gin.H{"kind": kind, "message": msg}})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrConcurrencyConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
