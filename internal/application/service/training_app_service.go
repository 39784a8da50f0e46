package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/fraudguard/fraudguard/internal/application/dto"
	"github.com/fraudguard/fraudguard/internal/domain/models"
	domainService "github.com/fraudguard/fraudguard/internal/domain/service"
	"github.com/fraudguard/fraudguard/internal/infrastructure/monitoring"
	"github.com/fraudguard/fraudguard/internal/ml"
	"github.com/fraudguard/fraudguard/pkg/logger"
)

// TrainingAppService runs full retraining passes against uploaded datasets.
type TrainingAppService interface {
	// Retrain parses the dataset, fits a complete ensemble and publishes it
	// atomically. A failed pass leaves the serving state untouched.
	Retrain(ctx context.Context, format string, r io.Reader) (*dto.RetrainResponse, error)
}

type trainingAppServiceImpl struct {
	pipeline *domainService.FeaturePipeline
	trainer  *ml.Trainer
	handle   *ml.Handle
	alerts   domainService.AlertPublisher
	metrics  *monitoring.Metrics
	logger   logger.Logger
	now      func() time.Time

	// mu serializes retraining passes; scoring is never blocked.
	mu sync.Mutex
}

// NewTrainingAppService wires the retraining orchestration.
func NewTrainingAppService(
	pipeline *domainService.FeaturePipeline,
	trainer *ml.Trainer,
	handle *ml.Handle,
	alerts domainService.AlertPublisher,
	metrics *monitoring.Metrics,
	log logger.Logger,
) TrainingAppService {
	return &trainingAppServiceImpl{
		pipeline: pipeline,
		trainer:  trainer,
		handle:   handle,
		alerts:   alerts,
		metrics:  metrics,
		logger:   log.WithComponent("TrainingAppService"),
		now:      time.Now,
	}
}

func (s *trainingAppServiceImpl) Retrain(ctx context.Context, format string, r io.Reader) (*dto.RetrainResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()

	dataset, err := ParseDataset(format, r)
	if err != nil {
		return nil, err
	}

	matrix, labels, err := s.pipeline.BulkTransform(ctx, dataset)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "starting retraining pass", logger.Fields{
		"rows":   len(matrix),
		"format": format,
	})

	state, err := s.trainer.Fit(ctx, matrix, labels)
	if err != nil {
		s.metrics.RecordTraining("error", time.Since(start))
		s.logger.Error(ctx, "retraining pass failed", err, logger.Fields{
			"rows": len(matrix),
		})
		return nil, err
	}

	s.handle.Publish(state)
	duration := time.Since(start)
	s.metrics.RecordTraining("success", duration)

	event := models.TrainingCompleted{
		Rows:        state.TrainingRows,
		DurationMs:  duration.Milliseconds(),
		EnsembleAUC: ensembleAUC(state.Metrics),
		TrainedAt:   state.TrainedAt,
	}
	if err := s.alerts.PublishTraining(ctx, event); err != nil {
		s.logger.Warn(ctx, "training event publication failed", logger.Fields{
			"error": err.Error(),
		})
	}

	s.logger.Info(ctx, "retraining pass completed", logger.Fields{
		"rows":        state.TrainingRows,
		"duration_ms": duration.Milliseconds(),
	})

	return &dto.RetrainResponse{
		Status:     "trained",
		Rows:       state.TrainingRows,
		DurationMs: duration.Milliseconds(),
		Models:     state.Metrics,
	}, nil
}

func ensembleAUC(metrics []models.ModelMetrics) float64 {
	for _, m := range metrics {
		if m.Name == "Ensemble" {
			return m.AUC
		}
	}
	return 0
}
