package service

import (
	"hash/fnv"
	"strings"

	"github.com/fraudguard/fraudguard/pkg/constants"
)

// Keyword tables for the heuristic risk policies. An identifier matching an
// earlier table wins; otherwise the score is a deterministic hash-derived
// default inside the kind's bounded range.

var merchantHighRiskKeywords = []string{"unknown", "temp", "test"}
var merchantElevatedKeywords = []string{"casino", "gambling", "crypto"}
var merchantTrustedKeywords = []string{"amazon", "walmart", "target"}

var locationHighRiskCountries = []string{"nigeria", "russia", "china"}
var locationTrustedCountries = []string{"usa", "canada", "uk", "germany"}

var deviceSuspectKeywords = []string{"unknown", "temp"}

// categoryRisks is the static category table; categories not listed score the
// default.
var categoryRisks = map[string]float64{
	"grocery":    0.05,
	"gas":        0.1,
	"restaurant": 0.1,
	"retail":     0.2,
	"online":     0.4,
	"other":      0.5,
}

const categoryRiskDefault = 0.3

// CategoryRiskOf looks up the static category risk. Pure function.
func CategoryRiskOf(category string) float64 {
	if risk, ok := categoryRisks[strings.ToLower(category)]; ok {
		return risk
	}
	return categoryRiskDefault
}

// MerchantHeuristic scores merchants by name patterns.
type MerchantHeuristic struct{}

func (MerchantHeuristic) Kind() constants.EntityKind { return constants.EntityKindMerchant }

func (MerchantHeuristic) Score(identifier string) float64 {
	name := strings.ToLower(identifier)
	switch {
	case containsAny(name, merchantHighRiskKeywords):
		return 0.8
	case containsAny(name, merchantElevatedKeywords):
		return 0.7
	case containsAny(name, merchantTrustedKeywords):
		return 0.1
	default:
		return boundedDefault(identifier, 0.1, 0.5)
	}
}

// LocationHeuristic scores locations by country patterns.
type LocationHeuristic struct{}

func (LocationHeuristic) Kind() constants.EntityKind { return constants.EntityKindLocation }

func (LocationHeuristic) Score(identifier string) float64 {
	loc := strings.ToLower(identifier)
	switch {
	case containsAny(loc, locationHighRiskCountries):
		return 0.8
	case containsAny(loc, locationTrustedCountries):
		return 0.1
	default:
		return boundedDefault(identifier, 0.1, 0.6)
	}
}

// DeviceHeuristic scores devices by identifier patterns.
type DeviceHeuristic struct{}

func (DeviceHeuristic) Kind() constants.EntityKind { return constants.EntityKindDevice }

func (DeviceHeuristic) Score(identifier string) float64 {
	id := strings.ToLower(identifier)
	if containsAny(id, deviceSuspectKeywords) {
		return 0.8
	}
	return boundedDefault(identifier, 0.1, 0.4)
}

// DefaultHeuristics returns the standard policy set, one per cached entity kind.
func DefaultHeuristics() []RiskHeuristic {
	return []RiskHeuristic{MerchantHeuristic{}, LocationHeuristic{}, DeviceHeuristic{}}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// boundedDefault derives a stable pseudo-random score in [min, max) from the
// identifier itself, so unknown entities score consistently across processes.
func boundedDefault(identifier string, min, max float64) float64 {
	h := fnv.New32a()
	h.Write([]byte(identifier))
	frac := float64(h.Sum32()%10000) / 10000.0
	return min + frac*(max-min)
}
