package handlers

import (
	"net/http"

	"ml-audit-platform/internal/adapters/primary/http/dto"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetModelInfo(c *gin.Context) {
	details, err := h.predictionSvc.ModelInfo(c.Request.Context())
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToModelInfoResponse(details))
}
