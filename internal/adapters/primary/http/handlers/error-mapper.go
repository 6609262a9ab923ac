package handlers

import (
	"errors"
	"net/http"

	"ml-audit-platform/internal/core/domain"

	"github.com/gin-gonic/gin"
)

func mapDomainError(c *gin.Context, err error) {
	status, msg := classifyError(err)
	c.JSON(status, gin.H{"error": msg})
}

// classifyError picks the status and client-facing message for err.
// Inference and unexpected failures never expose their cause.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrModelUnavailable):
		return http.StatusServiceUnavailable, err.Error()

	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, domain.ErrInferenceFailed):
		return http.StatusInternalServerError, domain.ErrInferenceFailed.Error()

	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
