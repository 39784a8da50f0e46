// Package handlers contains the gin handlers of the HTTP API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fraudguard/fraudguard/internal/application/dto"
	"github.com/fraudguard/fraudguard/internal/application/service"
	"github.com/fraudguard/fraudguard/pkg/errors"
)

// PredictionHandler handles the scoring endpoints.
type PredictionHandler struct {
	scoring service.ScoringAppService
}

// NewPredictionHandler creates a new PredictionHandler.
func NewPredictionHandler(scoring service.ScoringAppService) *PredictionHandler {
	return &PredictionHandler{scoring: scoring}
}

// Predict scores a single transaction.
func (h *PredictionHandler) Predict(c *gin.Context) {
	var req dto.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.ErrInvalidInput.WithError(err))
		return
	}

	result, err := h.scoring.Predict(c.Request.Context(), &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

// PredictBatch scores up to 500 transactions in one call.
func (h *PredictionHandler) PredictBatch(c *gin.Context) {
	var req dto.BatchPredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.ErrInvalidInput.WithError(err))
		return
	}

	result, err := h.scoring.PredictBatch(c.Request.Context(), &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}
