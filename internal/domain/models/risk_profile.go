package models

import (
	"math"
	"strings"
	"time"

	"github.com/fraudguard/fraudguard/pkg/constants"
)

// UserProfile is the mutable behavioral record for one user. Created lazily on
// first observation and mutated only through RecordTransaction after a
// transaction is finalized. Callers must serialize access per user; the entity
// risk cache shards its locks for that.
type UserProfile struct {
	UserID           string     `json:"user_id"`
	CreatedAt        time.Time  `json:"created_at"`
	TransactionCount int64      `json:"transaction_count"`
	TotalAmount      float64    `json:"total_amount"`
	LastTransaction  *time.Time `json:"last_transaction,omitempty"`

	// RecentTimes is a bounded ring of recent transaction times used for the
	// velocity features, most recent last.
	RecentTimes []time.Time `json:"recent_times,omitempty"`

	// LocationCounts tracks how often each location has been seen, for the
	// cross-border feature.
	LocationCounts map[string]int64 `json:"location_counts,omitempty"`
}

// NewUserProfile creates an empty profile observed at now.
func NewUserProfile(userID string, now time.Time) *UserProfile {
	return &UserProfile{
		UserID:         userID,
		CreatedAt:      now,
		LocationCounts: make(map[string]int64),
	}
}

// AgeDays returns the account age in whole days, at least 1 so frequency
// ratios stay finite.
func (p *UserProfile) AgeDays(now time.Time) float64 {
	days := math.Floor(now.Sub(p.CreatedAt).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

// Frequency returns transactions per day of account age.
func (p *UserProfile) Frequency(now time.Time) float64 {
	if p.TransactionCount == 0 {
		return constants.DefaultTxnFrequency
	}
	return float64(p.TransactionCount) / p.AgeDays(now)
}

// AmountZScore returns a simplified z-score of amount against the running
// mean, with the spread floored to avoid division blowups on new accounts.
func (p *UserProfile) AmountZScore(amount float64) float64 {
	if p.TransactionCount == 0 {
		return 0
	}
	mean := p.TotalAmount / float64(p.TransactionCount)
	spread := math.Max(mean*0.5, 100)
	return (amount - mean) / spread
}

// HoursSinceLast returns hours since the last finalized transaction, or the
// fallback when there is none.
func (p *UserProfile) HoursSinceLast(now time.Time) float64 {
	if p.LastTransaction == nil {
		return constants.DefaultTimeSinceLast
	}
	return now.Sub(*p.LastTransaction).Hours()
}

// Velocity returns the number of recorded transactions inside the trailing
// window, bounded by the recent-times ring.
func (p *UserProfile) Velocity(now time.Time, window time.Duration) float64 {
	cutoff := now.Add(-window)
	count := 0
	for i := len(p.RecentTimes) - 1; i >= 0; i-- {
		if p.RecentTimes[i].Before(cutoff) {
			break
		}
		count++
	}
	return float64(count)
}

// DominantLocation returns the most frequently seen location country token,
// or "" with no history.
func (p *UserProfile) DominantLocation() string {
	var best string
	var bestCount int64
	for loc, n := range p.LocationCounts {
		if n > bestCount || (n == bestCount && loc < best) {
			best, bestCount = loc, n
		}
	}
	return best
}

// RecordTransaction folds a finalized transaction into the profile.
// velocityWindow bounds the retained ring of recent transaction times;
// a non-positive value falls back to VelocityWindowMax.
func (p *UserProfile) RecordTransaction(amount float64, location string, now time.Time, velocityWindow int) {
	p.TransactionCount++
	p.TotalAmount += amount
	ts := now
	p.LastTransaction = &ts

	if velocityWindow <= 0 {
		velocityWindow = constants.VelocityWindowMax
	}
	p.RecentTimes = append(p.RecentTimes, now)
	if len(p.RecentTimes) > velocityWindow {
		p.RecentTimes = p.RecentTimes[len(p.RecentTimes)-velocityWindow:]
	}

	if loc := CountryToken(location); loc != "" {
		if p.LocationCounts == nil {
			p.LocationCounts = make(map[string]int64)
		}
		p.LocationCounts[loc]++
	}
}

// CountryToken normalizes a location string to its country component, the
// last comma-separated token lowercased ("New York, USA" -> "usa").
func CountryToken(location string) string {
	if location == "" {
		return ""
	}
	parts := strings.Split(location, ",")
	return strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
}
