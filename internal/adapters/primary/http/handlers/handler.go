package handlers

import (
	"ml-audit-platform/internal/core/services"

	"github.com/gin-gonic/gin"
)

const (
	ServiceName    = "ml-audit-platform"
	ServiceTitle   = "ML Audit Platform"
	ServiceVersion = "1.0.0"
)

type Handler struct {
	predictionSvc *services.PredictionService
}

func New(predictionSvc *services.PredictionService) *Handler {
	registerJSONFieldNames()
	return &Handler{predictionSvc: predictionSvc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	// Service
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/info", h.Info)

	// Model
	r.GET("/model-info", h.GetModelInfo)

	// Prediction
	r.POST("/predict", h.Predict)
	r.POST("/batch-predict", h.BatchPredict)
}
