// Package dto defines the request and response shapes of the HTTP API.
package dto

import (
	"time"

	"github.com/fraudguard/fraudguard/internal/domain/models"
)

// PredictRequest is one transaction submitted for scoring.
type PredictRequest struct {
	Amount    float64 `json:"amount" binding:"gte=0"`
	Merchant  string  `json:"merchant"`
	Category  string  `json:"category"`
	Location  string  `json:"location"`
	UserID    string  `json:"userId"`
	DeviceID  string  `json:"deviceId"`
	Timestamp string  `json:"timestamp"` // optional ISO-8601
}

// Transaction converts the request into the domain transaction.
func (r *PredictRequest) Transaction() models.Transaction {
	return models.Transaction{
		Amount:    r.Amount,
		Merchant:  r.Merchant,
		Category:  r.Category,
		Location:  r.Location,
		UserID:    r.UserID,
		DeviceID:  r.DeviceID,
		Timestamp: r.Timestamp,
	}
}

// BatchPredictRequest scores several transactions in one call.
type BatchPredictRequest struct {
	Transactions []PredictRequest `json:"transactions" binding:"required,min=1,max=500"`
}

// BatchPredictionResponse carries the per-transaction results in input order.
type BatchPredictionResponse struct {
	BatchID string                     `json:"batchId"`
	Results []*models.PredictionResult `json:"results"`
	Count   int                        `json:"count"`
}

// MetricsResponse is the model evaluation summary of the serving ensemble.
type MetricsResponse struct {
	Models       []models.ModelMetrics `json:"models"`
	TrainedAt    time.Time             `json:"trainedAt"`
	TrainingRows int                   `json:"trainingRows"`
}

// RetrainResponse reports the outcome of a completed retraining pass.
type RetrainResponse struct {
	Status     string                `json:"status"`
	Rows       int                   `json:"rows"`
	DurationMs int64                 `json:"durationMs"`
	Models     []models.ModelMetrics `json:"models"`
}

// TrendsResponse is the fraud volume aggregate over a trailing window.
type TrendsResponse struct {
	WindowHours int     `json:"windowHours"`
	Total       int64   `json:"total"`
	FraudCount  int64   `json:"fraudCount"`
	FraudRate   float64 `json:"fraudRate"`
}

// GeographicResponse breaks predictions down by location and risk tier over
// a trailing window.
type GeographicResponse struct {
	WindowHours int                         `json:"windowHours"`
	Locations   map[string]map[string]int64 `json:"locations"`
}

// HealthResponse is the service health summary.
type HealthResponse struct {
	Status          string `json:"status"`
	ModelReady      bool   `json:"modelReady"`
	TrackedProfiles int    `json:"trackedProfiles"`
	Version         string `json:"version"`
}

// ServiceInfoResponse is the root endpoint payload.
type ServiceInfoResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Status  string `json:"status"`
}
