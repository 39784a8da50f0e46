package service

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/fraudguard/fraudguard/internal/domain/models"
	"github.com/fraudguard/fraudguard/pkg/constants"
	"github.com/fraudguard/fraudguard/pkg/errors"
	"github.com/fraudguard/fraudguard/pkg/logger"
)

// FeaturePipeline turns raw transactions into fixed-width feature vectors.
// Transform never returns an error: any malformed input degrades to the
// documented default vector so scoring stays available.
type FeaturePipeline struct {
	risk EntityRiskService
	log  logger.Logger
	now  func() time.Time
}

// NewFeaturePipeline wires the pipeline to an entity risk service.
func NewFeaturePipeline(risk EntityRiskService, log logger.Logger) *FeaturePipeline {
	return &FeaturePipeline{
		risk: risk,
		log:  log.WithComponent("FeaturePipeline"),
		now:  time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (p *FeaturePipeline) WithClock(now func() time.Time) *FeaturePipeline {
	p.now = now
	return p
}

// Transform converts one transaction into the fixed feature set. Malformed
// timestamps and negative amounts are swallowed into the default vector and
// logged as warnings; this is the documented degraded-mode behavior.
func (p *FeaturePipeline) Transform(ctx context.Context, tx models.Transaction) models.FeatureVector {
	now := p.now().UTC()

	ts, err := tx.Time(now)
	if err != nil {
		p.log.Warn(ctx, "malformed timestamp, using default features", logger.Fields{
			"timestamp": tx.Timestamp,
			"error":     err.Error(),
		})
		return models.DefaultFeatureVector()
	}
	if tx.Amount < 0 || math.IsNaN(tx.Amount) || math.IsInf(tx.Amount, 0) {
		p.log.Warn(ctx, "invalid amount, using default features", logger.Fields{
			"amount": tx.Amount,
		})
		return models.DefaultFeatureVector()
	}

	v := models.NewFeatureVector()
	v.Set("amount", tx.Amount)
	v.Set("amount_log", math.Log1p(tx.Amount))

	hour := ts.Hour()
	// Weekday with Monday as 0, matching the trained feature encoding.
	weekday := (int(ts.Weekday()) + 6) % 7
	v.Set("hour", float64(hour))
	v.Set("day_of_week", float64(weekday))
	v.Set("is_weekend", boolFeature(weekday >= 5))
	v.Set("is_night", boolFeature(hour < constants.NightStartHour || hour > constants.NightEndHour))

	v.Set("merchant_risk", p.risk.RiskOf(ctx, constants.EntityKindMerchant, orUnknown(tx.Merchant)))
	v.Set("location_risk", p.risk.RiskOf(ctx, constants.EntityKindLocation, orUnknown(tx.Location)))
	v.Set("category_risk", p.risk.CategoryRisk(orUnknown(tx.Category)))
	v.Set("device_risk", p.risk.RiskOf(ctx, constants.EntityKindDevice, orUnknown(tx.DeviceID)))

	user := p.risk.UserSnapshot(ctx, orUnknown(tx.UserID), tx.Amount, tx.Location, now)
	v.Set("user_age_days", user.AgeDays)
	v.Set("transaction_frequency", user.Frequency)
	v.Set("amount_zscore", user.AmountZScore)
	v.Set("time_since_last", user.HoursSinceLast)
	v.Set("velocity_1h", user.Velocity1h)
	v.Set("velocity_24h", user.Velocity24h)
	v.Set("cross_border", user.CrossBorder)

	v.Set("high_amount", boolFeature(tx.Amount > constants.HighAmountThreshold))
	v.Set("round_amount", boolFeature(math.Mod(tx.Amount, constants.RoundAmountModulus) == 0))

	return v
}

// BulkTransform processes a training dataset into a feature matrix and label
// vector. Unlike Transform this fails fast: required columns must exist, and
// a dataset with no usable rows is an error. Individual rows with
// unparseable numerics are skipped and counted.
func (p *FeaturePipeline) BulkTransform(ctx context.Context, dataset *models.TrainingDataset) ([][]float64, []int, error) {
	if missing := dataset.MissingColumns(); len(missing) > 0 {
		return nil, nil, errors.ErrInvalidDataset.
			WithMessage("missing required columns: %s", strings.Join(missing, ", ")).
			WithDetail("missing_columns", missing)
	}

	matrix := make([][]float64, 0, len(dataset.Rows))
	labels := make([]int, 0, len(dataset.Rows))
	skipped := 0

	for _, row := range dataset.Rows {
		amount, err := strconv.ParseFloat(strings.TrimSpace(row["amount"]), 64)
		if err != nil || amount < 0 {
			skipped++
			continue
		}
		label, ok := parseLabel(row["is_fraud"])
		if !ok {
			skipped++
			continue
		}

		tx := models.Transaction{
			Amount:    amount,
			Merchant:  row["merchant"],
			Category:  row["category"],
			Location:  row["location"],
			UserID:    row["user_id"],
			DeviceID:  row["device_id"],
			Timestamp: row["timestamp"],
		}
		v := p.Transform(ctx, tx)
		matrix = append(matrix, v.Values)
		labels = append(labels, label)
	}

	if skipped > 0 {
		p.log.Warn(ctx, "skipped unparseable training rows", logger.Fields{
			"skipped": skipped,
			"total":   len(dataset.Rows),
		})
	}
	if len(matrix) == 0 {
		return nil, nil, errors.ErrInvalidDataset.WithMessage("no usable rows in dataset")
	}
	return matrix, labels, nil
}

func parseLabel(s string) (int, bool) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	switch normalized {
	case "1", "true", "fraud":
		return 1, true
	case "0", "false", "legit", "legitimate", "":
		if normalized == "" {
			return 0, false
		}
		return 0, true
	default:
		return 0, false
	}
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
