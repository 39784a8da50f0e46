package models

import (
	"time"

	"github.com/fraudguard/fraudguard/pkg/constants"
)

// PredictionResult is the complete output of one scoring call. There is no
// partial shape: a call yields either this or an error.
type PredictionResult struct {
	ID          string             `json:"id"`
	FraudScore  float64            `json:"fraudScore"`
	RiskTier    constants.RiskTier `json:"riskLevel"`
	IsFraud     bool               `json:"isFraud"`
	Confidence  float64            `json:"confidence"`
	ModelUsed   string             `json:"modelUsed"`
	SubScores   map[string]float64 `json:"individualScores"`
	Attribution map[string]float64 `json:"featureImportance,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
}

// ModelMetrics is the evaluation summary for one model, recomputed on a
// holdout split after each successful retrain.
type ModelMetrics struct {
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
	AUC       float64 `json:"auc"`
}

// PredictionRecord is the persisted form of a PredictionResult, written
// best-effort to the prediction log and aggregated by the analytics service.
type PredictionRecord struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	UserID     string    `gorm:"index;size:128" json:"user_id"`
	Merchant   string    `gorm:"size:256" json:"merchant"`
	Location   string    `gorm:"size:256" json:"location"`
	Amount     float64   `json:"amount"`
	FraudScore float64   `json:"fraud_score"`
	RiskTier   string    `gorm:"index;size:16" json:"risk_tier"`
	IsFraud    bool      `json:"is_fraud"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// TableName pins the prediction log table name.
func (PredictionRecord) TableName() string {
	return "prediction_log"
}

// TrainingCompleted is the event published to the alert topic after a
// successful retraining pass.
type TrainingCompleted struct {
	Rows        int       `json:"rows"`
	DurationMs  int64     `json:"duration_ms"`
	EnsembleAUC float64   `json:"ensemble_auc"`
	TrainedAt   time.Time `json:"trained_at"`
}

// FraudAlert is the event published to the alert topic for every high-tier
// prediction.
type FraudAlert struct {
	PredictionID string    `json:"prediction_id"`
	UserID       string    `json:"user_id"`
	Merchant     string    `json:"merchant"`
	Location     string    `json:"location"`
	Amount       float64   `json:"amount"`
	FraudScore   float64   `json:"fraud_score"`
	RiskTier     string    `json:"risk_tier"`
	CreatedAt    time.Time `json:"created_at"`
}
