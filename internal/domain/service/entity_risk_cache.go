package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/fraudguard/fraudguard/internal/domain/models"
	"github.com/fraudguard/fraudguard/pkg/constants"
	"github.com/fraudguard/fraudguard/pkg/logger"
)

// EntityRiskCache memoizes heuristic risk scores per entity identifier and
// owns the user behavioral profiles. Merchant/location/device scores live in
// a TTL-bounded store so memory stays bounded under long-running operation;
// user profiles go through a ProfileStore, with lock shards serializing
// mutation per identifier while lookups on different identifiers do not
// contend.
type EntityRiskCache struct {
	heuristics     map[constants.EntityKind]RiskHeuristic
	scores         *gocache.Cache
	profiles       ProfileStore
	shards         []sync.Mutex
	velocityWindow int
	log            logger.Logger
}

// CacheOptions sizes the entity risk cache. Zero fields fall back to the
// package defaults, so CacheOptions{} behaves like DefaultCacheOptions().
type CacheOptions struct {
	EntityRiskTTL  time.Duration
	SweepInterval  time.Duration
	ProfileShards  int
	VelocityWindow int
}

// DefaultCacheOptions returns the built-in sizing.
func DefaultCacheOptions() CacheOptions {
	return CacheOptions{
		EntityRiskTTL:  constants.EntityRiskTTL,
		SweepInterval:  constants.EntityRiskSweepInterval,
		ProfileShards:  constants.ProfileShardCount,
		VelocityWindow: constants.VelocityWindowMax,
	}
}

func (o CacheOptions) withDefaults() CacheOptions {
	d := DefaultCacheOptions()
	if o.EntityRiskTTL <= 0 {
		o.EntityRiskTTL = d.EntityRiskTTL
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = d.SweepInterval
	}
	if o.ProfileShards <= 0 {
		o.ProfileShards = d.ProfileShards
	}
	if o.VelocityWindow <= 0 {
		o.VelocityWindow = d.VelocityWindow
	}
	return o
}

// NewEntityRiskCache builds a cache over the given heuristic policies and
// profile store. A nil store falls back to the in-memory implementation.
func NewEntityRiskCache(heuristics []RiskHeuristic, profiles ProfileStore, opts CacheOptions, log logger.Logger) *EntityRiskCache {
	byKind := make(map[constants.EntityKind]RiskHeuristic, len(heuristics))
	for _, h := range heuristics {
		byKind[h.Kind()] = h
	}
	if profiles == nil {
		profiles = NewMemoryProfileStore()
	}
	opts = opts.withDefaults()
	return &EntityRiskCache{
		heuristics:     byKind,
		scores:         gocache.New(opts.EntityRiskTTL, opts.SweepInterval),
		profiles:       profiles,
		shards:         make([]sync.Mutex, opts.ProfileShards),
		velocityWindow: opts.VelocityWindow,
		log:            log.WithComponent("EntityRiskCache"),
	}
}

// RiskOf returns the risk score in [0,1] for an identifier, computing and
// memoizing it on first lookup. Repeated lookups within the TTL are
// deterministic; the heuristics themselves are pure, so recomputation after
// eviction yields the same value.
func (c *EntityRiskCache) RiskOf(ctx context.Context, kind constants.EntityKind, identifier string) float64 {
	key := fmt.Sprintf("%s:%s", kind, identifier)
	if cached, found := c.scores.Get(key); found {
		return cached.(float64)
	}

	h, ok := c.heuristics[kind]
	if !ok {
		c.log.Warn(ctx, "no heuristic for entity kind", logger.Fields{"kind": string(kind)})
		return categoryRiskDefault
	}

	score := h.Score(identifier)
	c.scores.SetDefault(key, score)
	return score
}

// CategoryRisk is the static table lookup; no caching needed.
func (c *EntityRiskCache) CategoryRisk(category string) float64 {
	return CategoryRiskOf(category)
}

// UserSnapshot derives the user feature values against the profile as it
// stood before this transaction, creating the profile as a side effect when
// the user is first observed.
func (c *EntityRiskCache) UserSnapshot(ctx context.Context, userID string, amount float64, location string, now time.Time) UserSnapshot {
	lock := c.shardFor(userID)
	lock.Lock()
	defer lock.Unlock()

	profile, _, err := c.profiles.GetOrCreate(ctx, userID, now)
	if err != nil {
		c.log.Warn(ctx, "profile lookup failed, using fallbacks", logger.Fields{
			"user_id": userID,
			"error":   err.Error(),
		})
		return fallbackSnapshot()
	}

	snapshot := UserSnapshot{
		AgeDays:        profile.AgeDays(now),
		Frequency:      profile.Frequency(now),
		AmountZScore:   profile.AmountZScore(amount),
		HoursSinceLast: profile.HoursSinceLast(now),
		Velocity1h:     profile.Velocity(now, time.Hour),
		Velocity24h:    profile.Velocity(now, 24*time.Hour),
	}

	if home := profile.DominantLocation(); home != "" {
		if current := models.CountryToken(location); current != "" && current != home {
			snapshot.CrossBorder = 1
		}
	}
	return snapshot
}

// RecordTransaction updates the user profile after a transaction is
// finalized. Mutation is serialized per identifier through the lock shard.
func (c *EntityRiskCache) RecordTransaction(ctx context.Context, userID string, amount float64, location string, now time.Time) error {
	lock := c.shardFor(userID)
	lock.Lock()
	defer lock.Unlock()

	profile, _, err := c.profiles.GetOrCreate(ctx, userID, now)
	if err != nil {
		return err
	}
	profile.RecordTransaction(amount, location, now, c.velocityWindow)
	return c.profiles.Save(ctx, profile)
}

// ProfileCount reports the number of tracked user profiles.
func (c *EntityRiskCache) ProfileCount(ctx context.Context) int {
	return c.profiles.Count(ctx)
}

func (c *EntityRiskCache) shardFor(userID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return &c.shards[h.Sum32()%uint32(len(c.shards))]
}

func fallbackSnapshot() UserSnapshot {
	return UserSnapshot{
		AgeDays:        constants.DefaultUserAgeDays,
		Frequency:      constants.DefaultTxnFrequency,
		HoursSinceLast: constants.DefaultTimeSinceLast,
	}
}

// ================================================================================
// In-memory profile store
// ================================================================================

// MemoryProfileStore keeps user profiles in a plain map. The cache layer
// serializes per-user access, so the store only guards the map itself.
type MemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]*models.UserProfile
}

// NewMemoryProfileStore creates an empty in-memory store.
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: make(map[string]*models.UserProfile)}
}

func (s *MemoryProfileStore) GetOrCreate(ctx context.Context, userID string, now time.Time) (*models.UserProfile, bool, error) {
	s.mu.RLock()
	profile, ok := s.profiles[userID]
	s.mu.RUnlock()
	if ok {
		return profile, true, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if profile, ok = s.profiles[userID]; ok {
		return profile, true, nil
	}
	profile = models.NewUserProfile(userID, now)
	s.profiles[userID] = profile
	return profile, false, nil
}

func (s *MemoryProfileStore) Save(ctx context.Context, profile *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UserID] = profile
	return nil
}

func (s *MemoryProfileStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}
