// Package constants defines system-wide constants for the FraudGuard scoring service.
// This package provides type-safe constant definitions used across all modules.
package constants

import "time"

// ================================================================================
// Entity Kind Constants
// ================================================================================

// EntityKind identifies the kind of entity a risk score is attached to.
type EntityKind string

const (
	// EntityKindMerchant is a merchant identifier (free-form merchant name)
	EntityKindMerchant EntityKind = "merchant"

	// EntityKindLocation is a location identifier (city/country string)
	EntityKindLocation EntityKind = "location"

	// EntityKindDevice is a device identifier
	EntityKindDevice EntityKind = "device"

	// EntityKindUser is a user identifier with a behavioral profile
	EntityKindUser EntityKind = "user"
)

// ================================================================================
// Risk Tier Constants
// ================================================================================

// RiskTier is the coarse classification derived from the ensemble score.
type RiskTier string

const (
	// RiskTierLow indicates an ensemble score at or below the medium boundary
	RiskTierLow RiskTier = "low"

	// RiskTierMedium indicates an elevated score that does not trigger the fraud flag
	RiskTierMedium RiskTier = "medium"

	// RiskTierHigh indicates a score above the high boundary; sets the fraud flag
	RiskTierHigh RiskTier = "high"
)

// Risk tier boundaries on the ensemble score. Only scores strictly above
// HighRiskThreshold classify as high; exactly 0.7 is medium.
const (
	HighRiskThreshold   = 0.7
	MediumRiskThreshold = 0.3
)

// ================================================================================
// Feature Constants
// ================================================================================

// FeatureNames is the fixed, ordered feature set produced by the feature
// pipeline. The order is identical between training and inference.
var FeatureNames = []string{
	"amount",
	"amount_log",
	"hour",
	"day_of_week",
	"is_weekend",
	"is_night",
	"merchant_risk",
	"location_risk",
	"category_risk",
	"user_age_days",
	"transaction_frequency",
	"amount_zscore",
	"time_since_last",
	"device_risk",
	"velocity_1h",
	"velocity_24h",
	"cross_border",
	"high_amount",
	"round_amount",
}

// FeatureCount is the width of every feature vector.
var FeatureCount = len(FeatureNames)

const (
	// HighAmountThreshold marks a transaction as high-value
	HighAmountThreshold = 1000.0

	// RoundAmountModulus detects round-number amounts (amount mod 100 == 0)
	RoundAmountModulus = 100.0

	// NightStartHour and NightEndHour bound the is_night flag (hour < 6 || hour > 22)
	NightStartHour = 6
	NightEndHour   = 22
)

// ================================================================================
// Ensemble Constants
// ================================================================================

// Fusion weights applied to the four sub-model scores. They must sum to 1.0;
// the trainer validates this at fit time.
const (
	WeightIsolationForest = 0.20
	WeightOneClass        = 0.15
	WeightGradientBoost   = 0.35
	WeightAutoencoder     = 0.30
)

const (
	// ContaminationRate is the expected outlier fraction for the isolation forest
	ContaminationRate = 0.1

	// ReconstructionPercentile is the percentile of normal-row reconstruction
	// error used as the autoencoder threshold
	ReconstructionPercentile = 95.0

	// HoldoutFraction is the share of training rows reserved for metric evaluation
	HoldoutFraction = 0.2
)

// ================================================================================
// Profile Defaults
// ================================================================================

// Fallback values returned for user-derived features when a profile has no
// history yet.
const (
	DefaultUserAgeDays   = 30.0
	DefaultTxnFrequency  = 0.1
	DefaultTimeSinceLast = 24.0 // hours
)

const (
	// EntityRiskTTL bounds how long a memoized merchant/location/device risk
	// score is retained before recomputation
	EntityRiskTTL = 24 * time.Hour

	// EntityRiskSweepInterval is the expired-entry sweep period of the risk cache
	EntityRiskSweepInterval = 1 * time.Hour

	// ProfileShardCount is the number of lock shards for user profiles
	ProfileShardCount = 64

	// VelocityWindowMax bounds the per-profile ring of recent transaction times
	VelocityWindowMax = 128
)

// ================================================================================
// Error Code Constants
// ================================================================================

// ErrorCode is a machine-readable error code surfaced in API responses.
type ErrorCode string

const (
	ErrCodeInvalidInput    ErrorCode = "invalid_input"
	ErrCodeInvalidDataset  ErrorCode = "invalid_dataset"
	ErrCodeModelNotReady   ErrorCode = "model_not_ready"
	ErrCodeTrainingFailed  ErrorCode = "training_failed"
	ErrCodeNotFound        ErrorCode = "not_found"
	ErrCodeUnauthorized    ErrorCode = "unauthorized"
	ErrCodeInternal        ErrorCode = "internal_error"
	ErrCodeCacheFailure    ErrorCode = "cache_failure"
	ErrCodeDatabaseFailure ErrorCode = "database_failure"
)

// ================================================================================
// Log Level Constants
// ================================================================================

// LogLevel represents the severity threshold of the logger.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelFatal
)

// ================================================================================
// Context Key Constants
// ================================================================================

// ContextKey is the type used for values stored in a request context.
type ContextKey string

const (
	// ContextKeyTraceID carries the request trace identifier
	ContextKeyTraceID ContextKey = "trace_id"

	// ContextKeyLogger carries a request-scoped logger
	ContextKeyLogger ContextKey = "logger"

	// ContextKeySubject carries the authenticated API subject
	ContextKeySubject ContextKey = "subject"
)

// ================================================================================
// Service Identity Constants
// ================================================================================

const (
	// ServiceName identifies the service in logs, traces and API payloads
	ServiceName = "fraudguard"

	// ServiceVersion is the reported service version
	ServiceVersion = "1.0.0"
)
