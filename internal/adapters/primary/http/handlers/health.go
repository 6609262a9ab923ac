package handlers

import (
	"net/http"

	"ml-audit-platform/internal/adapters/primary/http/dto"

	"github.com/gin-gonic/gin"
)

func (h *Handler) modelStatus() string {
	if h.predictionSvc.ModelLoaded() {
		return "loaded"
	}
	return "not_loaded"
}

// Health always answers 200; a missing model is reported as degraded, not as down.
func (h *Handler) Health(c *gin.Context) {
	status := "healthy"
	if !h.predictionSvc.ModelLoaded() {
		status = "degraded"
	}
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:      status,
		ModelLoaded: h.predictionSvc.ModelLoaded(),
		Model:       h.modelStatus(),
		Service:     ServiceName,
	})
}

func (h *Handler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, dto.InfoResponse{
		Name:        ServiceTitle,
		Version:     ServiceVersion,
		ModelStatus: h.modelStatus(),
		Endpoints: map[string]string{
			"health":        "GET /health",
			"predict":       "POST /predict",
			"batch_predict": "POST /batch-predict",
			"model_info":    "GET /model-info",
			"info":          "GET /info",
			"metrics":       "GET /metrics",
		},
	})
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to " + ServiceTitle,
		"docs":    "/info",
	})
}
