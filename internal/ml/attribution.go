package ml

import (
	"math"

	"github.com/fraudguard/fraudguard/pkg/constants"
)

// Attribution factor names, in report order.
const (
	FactorAmountAnomaly   = "Amount Anomaly"
	FactorTimePattern     = "Time Pattern"
	FactorLocationRisk    = "Location Risk"
	FactorMerchantRisk    = "Merchant Risk"
	FactorUserPattern     = "User Pattern"
	FactorDeviceRisk      = "Device Risk"
	FactorTxnFrequency    = "Transaction Frequency"
	FactorHistoryBehavior = "Historical Behavior"
)

// factorGroups maps each attribution factor to the feature names it covers.
// Every feature belongs to exactly one group.
var factorGroups = map[string][]string{
	FactorAmountAnomaly:   {"amount", "amount_log", "amount_zscore", "high_amount", "round_amount"},
	FactorTimePattern:     {"hour", "day_of_week", "is_weekend", "is_night"},
	FactorLocationRisk:    {"location_risk", "cross_border"},
	FactorMerchantRisk:    {"merchant_risk", "category_risk"},
	FactorUserPattern:     {"user_age_days", "transaction_frequency"},
	FactorDeviceRisk:      {"device_risk"},
	FactorTxnFrequency:    {"velocity_1h", "velocity_24h"},
	FactorHistoryBehavior: {"time_since_last"},
}

// Attribute explains one scored vector as per-factor contributions summing
// to the ensemble score. Each factor's weight is the share of the
// autoencoder's per-dimension reconstruction error falling in that factor's
// feature group, blended with the scaled magnitude of the group's own
// features so direct risk signals surface even when reconstruction error is
// flat. Deterministic for a given state and input.
func Attribute(state *EnsembleState, values []float64, ensembleScore float64) map[string]float64 {
	row := state.Scaler.Transform(values)
	recon := state.Autoencoder.Reconstruct(row)

	perDim := make([]float64, len(row))
	for i := range row {
		d := row[i] - recon[i]
		perDim[i] = d * d
	}

	index := make(map[string]int, len(constants.FeatureNames))
	for i, name := range constants.FeatureNames {
		index[name] = i
	}

	raw := make(map[string]float64, len(factorGroups))
	var total float64
	for factor, features := range factorGroups {
		var reconErr, magnitude float64
		for _, name := range features {
			i := index[name]
			reconErr += perDim[i]
			magnitude += math.Abs(row[i])
		}
		// Blend reconstruction error with direct signal magnitude, averaged
		// over the group so wide groups are not favored by size alone.
		n := float64(len(features))
		w := reconErr/n + 0.5*magnitude/n
		raw[factor] = w
		total += w
	}

	out := make(map[string]float64, len(raw))
	if total <= 0 {
		// Flat input: spread the score evenly rather than divide by zero.
		share := ensembleScore / float64(len(raw))
		for factor := range raw {
			out[factor] = share
		}
		return out
	}
	for factor, w := range raw {
		out[factor] = ensembleScore * w / total
	}
	return out
}
