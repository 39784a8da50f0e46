// Package service provides application-level services that orchestrate the
// domain services, the ensemble and the infrastructure collaborators.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fraudguard/fraudguard/internal/application/dto"
	"github.com/fraudguard/fraudguard/internal/domain/models"
	domainService "github.com/fraudguard/fraudguard/internal/domain/service"
	"github.com/fraudguard/fraudguard/internal/infrastructure/monitoring"
	"github.com/fraudguard/fraudguard/internal/ml"
	"github.com/fraudguard/fraudguard/pkg/constants"
	"github.com/fraudguard/fraudguard/pkg/logger"
)

// ScoringAppService scores transactions against the serving ensemble.
type ScoringAppService interface {
	// Predict scores one transaction.
	Predict(ctx context.Context, req *dto.PredictRequest) (*models.PredictionResult, error)

	// PredictBatch scores several transactions independently, preserving
	// input order.
	PredictBatch(ctx context.Context, req *dto.BatchPredictRequest) (*dto.BatchPredictionResponse, error)

	// ModelMetrics reports the holdout evaluation of the serving ensemble.
	ModelMetrics(ctx context.Context) (*dto.MetricsResponse, error)

	// Ready reports whether an ensemble state is serving.
	Ready() bool

	// ProfileCount reports the number of tracked user profiles.
	ProfileCount(ctx context.Context) int
}

type scoringAppServiceImpl struct {
	pipeline    *domainService.FeaturePipeline
	risk        domainService.EntityRiskService
	handle      *ml.Handle
	predictions domainService.PredictionRepository // nil with the database disabled
	alerts      domainService.AlertPublisher
	metrics     *monitoring.Metrics
	logger      logger.Logger
	now         func() time.Time
}

// NewScoringAppService wires the scoring orchestration.
func NewScoringAppService(
	pipeline *domainService.FeaturePipeline,
	risk domainService.EntityRiskService,
	handle *ml.Handle,
	predictions domainService.PredictionRepository,
	alerts domainService.AlertPublisher,
	metrics *monitoring.Metrics,
	log logger.Logger,
) ScoringAppService {
	return &scoringAppServiceImpl{
		pipeline:    pipeline,
		risk:        risk,
		handle:      handle,
		predictions: predictions,
		alerts:      alerts,
		metrics:     metrics,
		logger:      log.WithComponent("ScoringAppService"),
		now:         time.Now,
	}
}

func (s *scoringAppServiceImpl) Predict(ctx context.Context, req *dto.PredictRequest) (*models.PredictionResult, error) {
	return s.predictOne(ctx, req, "single")
}

func (s *scoringAppServiceImpl) PredictBatch(ctx context.Context, req *dto.BatchPredictRequest) (*dto.BatchPredictionResponse, error) {
	results := make([]*models.PredictionResult, 0, len(req.Transactions))
	for i := range req.Transactions {
		result, err := s.predictOne(ctx, &req.Transactions[i], "batch")
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return &dto.BatchPredictionResponse{
		BatchID: "BATCH-" + uuid.NewString(),
		Results: results,
		Count:   len(results),
	}, nil
}

func (s *scoringAppServiceImpl) predictOne(ctx context.Context, req *dto.PredictRequest, mode string) (*models.PredictionResult, error) {
	start := s.now()

	state, err := s.handle.Current()
	if err != nil {
		s.metrics.RecordPrediction(mode, "", "not_ready", 0, time.Since(start))
		return nil, err
	}

	tx := req.Transaction()
	vector := s.pipeline.Transform(ctx, tx)

	score, err := state.ScoreVector(vector.Values)
	if err != nil {
		s.metrics.RecordPrediction(mode, "", "error", 0, time.Since(start))
		return nil, err
	}

	result := &models.PredictionResult{
		ID:          "TXN-" + uuid.NewString(),
		FraudScore:  score.Ensemble,
		RiskTier:    score.Tier,
		IsFraud:     score.IsFraud,
		Confidence:  score.Confidence,
		ModelUsed:   ml.ModelEnsemble,
		SubScores:   score.SubScores,
		Attribution: ml.Attribute(state, vector.Values, score.Ensemble),
		Timestamp:   start.UTC(),
	}

	// The transaction is folded into the profile after scoring, so the
	// features reflected the history as it stood before this transaction.
	userID := tx.UserID
	if strings.TrimSpace(userID) == "" {
		userID = "unknown"
	}
	if err := s.risk.RecordTransaction(ctx, userID, tx.Amount, tx.Location, start.UTC()); err != nil {
		s.logger.Warn(ctx, "profile update failed", logger.Fields{
			"user_id": userID,
			"error":   err.Error(),
		})
	}

	s.persistRecord(ctx, result, tx, userID)
	if score.Tier == constants.RiskTierHigh {
		s.publishAlert(ctx, result, tx, userID)
	}

	s.metrics.RecordPrediction(mode, string(score.Tier), "success", score.Ensemble, time.Since(start))
	s.metrics.SetTrackedProfiles(s.risk.ProfileCount(ctx))
	return result, nil
}

// persistRecord writes the prediction log entry. Failures are logged, never
// surfaced: the scoring result is already final.
func (s *scoringAppServiceImpl) persistRecord(ctx context.Context, result *models.PredictionResult, tx models.Transaction, userID string) {
	if s.predictions == nil {
		return
	}
	record := &models.PredictionRecord{
		ID:         result.ID,
		UserID:     userID,
		Merchant:   tx.Merchant,
		Location:   tx.Location,
		Amount:     tx.Amount,
		FraudScore: result.FraudScore,
		RiskTier:   string(result.RiskTier),
		IsFraud:    result.IsFraud,
		Confidence: result.Confidence,
		CreatedAt:  result.Timestamp,
	}
	if err := s.predictions.Save(ctx, record); err != nil {
		s.logger.Warn(ctx, "prediction log write failed", logger.Fields{
			"prediction_id": result.ID,
			"error":         err.Error(),
		})
	}
}

func (s *scoringAppServiceImpl) publishAlert(ctx context.Context, result *models.PredictionResult, tx models.Transaction, userID string) {
	alert := models.FraudAlert{
		PredictionID: result.ID,
		UserID:       userID,
		Merchant:     tx.Merchant,
		Location:     tx.Location,
		Amount:       tx.Amount,
		FraudScore:   result.FraudScore,
		RiskTier:     string(result.RiskTier),
		CreatedAt:    result.Timestamp,
	}
	if err := s.alerts.Publish(ctx, alert); err != nil {
		s.metrics.RecordAlert("error")
		s.logger.Warn(ctx, "alert publish failed", logger.Fields{
			"prediction_id": result.ID,
			"error":         err.Error(),
		})
		return
	}
	s.metrics.RecordAlert("success")
}

func (s *scoringAppServiceImpl) ModelMetrics(ctx context.Context) (*dto.MetricsResponse, error) {
	state, err := s.handle.Current()
	if err != nil {
		return nil, err
	}
	return &dto.MetricsResponse{
		Models:       state.Metrics,
		TrainedAt:    state.TrainedAt,
		TrainingRows: state.TrainingRows,
	}, nil
}

func (s *scoringAppServiceImpl) Ready() bool {
	return s.handle.Ready()
}

func (s *scoringAppServiceImpl) ProfileCount(ctx context.Context) int {
	return s.risk.ProfileCount(ctx)
}
