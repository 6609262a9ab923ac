package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ml-audit-platform/internal/adapters/primary/http/dto"
	"ml-audit-platform/internal/core/domain"
	"ml-audit-platform/internal/core/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) Predict(c *gin.Context) {
	// Availability is checked before the body is even decoded.
	if !h.predictionSvc.ModelLoaded() {
		mapDomainError(c, domain.ErrModelUnavailable)
		return
	}

	var req dto.PassengerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		mapDomainError(c, invalidInput(err))
		return
	}

	record := req.ToDomain()
	pred, err := h.predictionSvc.Predict(c.Request.Context(), record)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidInput) {
			log.WithError(err).WithField("request_id", c.GetString("request_id")).Error("predict failed")
		}
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPredictionResponse(record, pred))
}

func (h *Handler) BatchPredict(c *gin.Context) {
	if !h.predictionSvc.ModelLoaded() {
		mapDomainError(c, domain.ErrModelUnavailable)
		return
	}

	var items []json.RawMessage
	if err := c.ShouldBindJSON(&items); err != nil || items == nil {
		var typeErr *json.UnmarshalTypeError
		if err == nil || errors.As(err, &typeErr) {
			err = fmt.Errorf("%w: request body must be a JSON array of passengers", domain.ErrInvalidInput)
		} else {
			err = invalidInput(err)
		}
		mapDomainError(c, err)
		return
	}
	if limit := h.predictionSvc.MaxBatchSize(); limit > 0 && len(items) > limit {
		mapDomainError(c, fmt.Errorf("%w: batch of %d exceeds limit of %d", domain.ErrInvalidInput, len(items), limit))
		return
	}

	inputs := make([]services.BatchInput, len(items))
	for i, raw := range items {
		var req dto.PassengerRequest
		if err := binding.JSON.BindBody(raw, &req); err != nil {
			inputs[i].Err = invalidInput(err)
			continue
		}
		inputs[i].Record = req.ToDomain()
	}

	results, err := h.predictionSvc.PredictBatch(c.Request.Context(), inputs)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBatchPredictResponse(inputs, results, func(err error) string {
		_, msg := classifyError(err)
		return msg
	}))
}
