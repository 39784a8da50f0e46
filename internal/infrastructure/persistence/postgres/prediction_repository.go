package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/fraudguard/fraudguard/internal/domain/models"
	"github.com/fraudguard/fraudguard/internal/domain/service"
	"github.com/fraudguard/fraudguard/pkg/errors"
	"github.com/fraudguard/fraudguard/pkg/logger"
)

type predictionRepository struct {
	db  *gorm.DB
	log logger.Logger
}

// NewPredictionRepository builds the gorm-backed prediction log.
func NewPredictionRepository(db *gorm.DB, log logger.Logger) service.PredictionRepository {
	return &predictionRepository{
		db:  db,
		log: log.WithComponent("PredictionRepository"),
	}
}

func (r *predictionRepository) Save(ctx context.Context, record *models.PredictionRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return errors.ErrDatabase.WithError(err)
	}
	return nil
}

func (r *predictionRepository) CountSince(ctx context.Context, since time.Time) (int64, int64, error) {
	var total, fraud int64
	err := r.db.WithContext(ctx).Model(&models.PredictionRecord{}).
		Where("created_at >= ?", since).
		Count(&total).Error
	if err != nil {
		return 0, 0, errors.ErrDatabase.WithError(err)
	}
	err = r.db.WithContext(ctx).Model(&models.PredictionRecord{}).
		Where("created_at >= ? AND is_fraud = ?", since, true).
		Count(&fraud).Error
	if err != nil {
		return 0, 0, errors.ErrDatabase.WithError(err)
	}
	return total, fraud, nil
}

func (r *predictionRepository) TierCountsByLocation(ctx context.Context, since time.Time) (map[string]map[string]int64, error) {
	var rows []struct {
		Location string
		RiskTier string
		N        int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.PredictionRecord{}).
		Select("location, risk_tier, count(*) as n").
		Where("created_at >= ?", since).
		Group("location").
		Group("risk_tier").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.ErrDatabase.WithError(err)
	}

	out := make(map[string]map[string]int64, len(rows))
	for _, row := range rows {
		tiers, ok := out[row.Location]
		if !ok {
			tiers = make(map[string]int64)
			out[row.Location] = tiers
		}
		tiers[row.RiskTier] = row.N
	}
	return out, nil
}
