package service

import (
	"context"
	"time"

	"github.com/fraudguard/fraudguard/internal/application/dto"
	domainService "github.com/fraudguard/fraudguard/internal/domain/service"
	"github.com/fraudguard/fraudguard/pkg/logger"
)

// AnalyticsAppService aggregates the prediction log into reporting views.
// With the database disabled the aggregates are empty, never errors.
type AnalyticsAppService interface {
	Trends(ctx context.Context, windowHours int) (*dto.TrendsResponse, error)
	Geographic(ctx context.Context, windowHours int) (*dto.GeographicResponse, error)
}

type analyticsAppServiceImpl struct {
	predictions domainService.PredictionRepository // nil with the database disabled
	logger      logger.Logger
	now         func() time.Time
}

// NewAnalyticsAppService wires the analytics aggregation.
func NewAnalyticsAppService(predictions domainService.PredictionRepository, log logger.Logger) AnalyticsAppService {
	return &analyticsAppServiceImpl{
		predictions: predictions,
		logger:      log.WithComponent("AnalyticsAppService"),
		now:         time.Now,
	}
}

const defaultWindowHours = 24

func (s *analyticsAppServiceImpl) Trends(ctx context.Context, windowHours int) (*dto.TrendsResponse, error) {
	if windowHours <= 0 {
		windowHours = defaultWindowHours
	}
	resp := &dto.TrendsResponse{WindowHours: windowHours}
	if s.predictions == nil {
		return resp, nil
	}

	since := s.now().UTC().Add(-time.Duration(windowHours) * time.Hour)
	total, fraud, err := s.predictions.CountSince(ctx, since)
	if err != nil {
		return nil, err
	}

	resp.Total = total
	resp.FraudCount = fraud
	if total > 0 {
		resp.FraudRate = float64(fraud) / float64(total)
	}
	return resp, nil
}

func (s *analyticsAppServiceImpl) Geographic(ctx context.Context, windowHours int) (*dto.GeographicResponse, error) {
	if windowHours <= 0 {
		windowHours = defaultWindowHours
	}
	resp := &dto.GeographicResponse{
		WindowHours: windowHours,
		Locations:   map[string]map[string]int64{},
	}
	if s.predictions == nil {
		return resp, nil
	}

	since := s.now().UTC().Add(-time.Duration(windowHours) * time.Hour)
	locations, err := s.predictions.TierCountsByLocation(ctx, since)
	if err != nil {
		return nil, err
	}
	resp.Locations = locations
	return resp, nil
}
