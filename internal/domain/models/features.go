package models

import "github.com/fraudguard/fraudguard/pkg/constants"

// FeatureVector is an ordered set of engineered numeric features. The field
// set and order are fixed by constants.FeatureNames and are identical between
// training and inference.
type FeatureVector struct {
	Values []float64
}

// NewFeatureVector allocates a zero vector of the fixed width.
func NewFeatureVector() FeatureVector {
	return FeatureVector{Values: make([]float64, constants.FeatureCount)}
}

// featureIndex maps feature names to their fixed position.
var featureIndex = func() map[string]int {
	idx := make(map[string]int, constants.FeatureCount)
	for i, name := range constants.FeatureNames {
		idx[name] = i
	}
	return idx
}()

// Set assigns a named feature. Unknown names are ignored.
func (v FeatureVector) Set(name string, value float64) {
	if i, ok := featureIndex[name]; ok {
		v.Values[i] = value
	}
}

// Get returns a named feature value.
func (v FeatureVector) Get(name string) float64 {
	if i, ok := featureIndex[name]; ok {
		return v.Values[i]
	}
	return 0
}

// ToMap renders the vector as a name-keyed map for serialization.
func (v FeatureVector) ToMap() map[string]float64 {
	m := make(map[string]float64, constants.FeatureCount)
	for i, name := range constants.FeatureNames {
		m[name] = v.Values[i]
	}
	return m
}

// DefaultFeatureVector is the documented degraded-mode vector returned when a
// transaction cannot be processed. Every key is present with its fallback.
func DefaultFeatureVector() FeatureVector {
	v := NewFeatureVector()
	v.Set("hour", 12)
	v.Set("day_of_week", 1)
	v.Set("merchant_risk", 0.3)
	v.Set("location_risk", 0.3)
	v.Set("category_risk", 0.3)
	v.Set("user_age_days", constants.DefaultUserAgeDays)
	v.Set("transaction_frequency", constants.DefaultTxnFrequency)
	v.Set("time_since_last", constants.DefaultTimeSinceLast)
	v.Set("device_risk", 0.3)
	v.Set("velocity_1h", 0.5)
	v.Set("velocity_24h", 5.0)
	return v
}
