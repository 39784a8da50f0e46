// Package service holds the domain services of the fraud scoring engine: the
// entity risk cache, the heuristic risk policies and the feature pipeline.
package service

import (
	"context"
	"time"

	"github.com/fraudguard/fraudguard/internal/domain/models"
	"github.com/fraudguard/fraudguard/pkg/constants"
)

// RiskHeuristic assigns an initial risk score to an entity identifier of one
// kind. Implementations must be pure: the same identifier always yields the
// same score, the cache layer handles memoization.
type RiskHeuristic interface {
	Kind() constants.EntityKind
	Score(identifier string) float64
}

// UserSnapshot is the set of user-derived feature values for one transaction,
// computed against the profile as it stood before the transaction.
type UserSnapshot struct {
	AgeDays        float64
	Frequency      float64
	AmountZScore   float64
	HoursSinceLast float64
	Velocity1h     float64
	Velocity24h    float64
	CrossBorder    float64
}

// EntityRiskService maintains lazily-computed risk scores for merchants,
// locations and devices, plus mutable behavioral profiles for users. Reads
// are not pure: the first lookup of an identifier creates its entry.
type EntityRiskService interface {
	// RiskOf returns the memoized risk score in [0,1] for the identifier.
	RiskOf(ctx context.Context, kind constants.EntityKind, identifier string) float64

	// CategoryRisk is a static table lookup with a default for unknown
	// categories. Pure, no caching involved.
	CategoryRisk(category string) float64

	// UserSnapshot returns the derived statistics for a user, creating the
	// profile on first observation.
	UserSnapshot(ctx context.Context, userID string, amount float64, location string, now time.Time) UserSnapshot

	// RecordTransaction folds a finalized transaction into the user profile.
	RecordTransaction(ctx context.Context, userID string, amount float64, location string, now time.Time) error

	// ProfileCount reports the number of tracked user profiles, for metrics.
	ProfileCount(ctx context.Context) int
}

// ProfileStore abstracts the backing store for user profiles. The in-memory
// implementation lives beside the cache; a Redis-backed implementation with
// TTL lives in the infrastructure layer.
type ProfileStore interface {
	// GetOrCreate loads the profile, creating an empty one observed at now if
	// absent. The bool reports whether the profile already existed.
	GetOrCreate(ctx context.Context, userID string, now time.Time) (*models.UserProfile, bool, error)

	// Save persists the profile.
	Save(ctx context.Context, profile *models.UserProfile) error

	// Count reports the number of stored profiles.
	Count(ctx context.Context) int
}

// AlertPublisher emits fraud alerts and training events to downstream
// consumers.
type AlertPublisher interface {
	Publish(ctx context.Context, alert models.FraudAlert) error
	PublishTraining(ctx context.Context, event models.TrainingCompleted) error
	Close() error
}

// PredictionRepository is the prediction log consumed by analytics.
type PredictionRepository interface {
	Save(ctx context.Context, record *models.PredictionRecord) error
	CountSince(ctx context.Context, since time.Time) (total int64, fraud int64, err error)
	TierCountsByLocation(ctx context.Context, since time.Time) (map[string]map[string]int64, error)
}
