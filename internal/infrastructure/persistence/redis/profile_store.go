// Package redis provides the Redis-backed user profile store. Profiles are
// stored as JSON values under a TTL so behavioral history survives restarts
// without growing unbounded.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fraudguard/fraudguard/internal/config"
	"github.com/fraudguard/fraudguard/internal/domain/models"
	"github.com/fraudguard/fraudguard/internal/domain/service"
	"github.com/fraudguard/fraudguard/pkg/errors"
	"github.com/fraudguard/fraudguard/pkg/logger"
)

const profileKeyPrefix = "fraudguard:profile:"

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.ErrCache.WithError(err)
	}
	return client, nil
}

// ProfileStore implements service.ProfileStore on Redis.
type ProfileStore struct {
	client *redis.Client
	ttl    time.Duration
	log    logger.Logger
}

// assert interface compliance at compile time
var _ service.ProfileStore = (*ProfileStore)(nil)

// NewProfileStore builds the store. ttl bounds how long an idle profile is
// retained; every save refreshes it.
func NewProfileStore(client *redis.Client, ttl time.Duration, log logger.Logger) *ProfileStore {
	return &ProfileStore{
		client: client,
		ttl:    ttl,
		log:    log.WithComponent("RedisProfileStore"),
	}
}

func (s *ProfileStore) GetOrCreate(ctx context.Context, userID string, now time.Time) (*models.UserProfile, bool, error) {
	key := profileKeyPrefix + userID
	raw, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		profile := models.NewUserProfile(userID, now)
		if err := s.Save(ctx, profile); err != nil {
			return nil, false, err
		}
		return profile, false, nil
	}
	if err != nil {
		return nil, false, errors.ErrCache.WithError(err)
	}

	var profile models.UserProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		// A corrupt entry is unrecoverable; replace it instead of failing
		// every scoring call for this user.
		s.log.Warn(ctx, "corrupt profile entry, recreating", logger.Fields{
			"user_id": userID,
			"error":   err.Error(),
		})
		fresh := models.NewUserProfile(userID, now)
		if err := s.Save(ctx, fresh); err != nil {
			return nil, false, err
		}
		return fresh, false, nil
	}
	return &profile, true, nil
}

func (s *ProfileStore) Save(ctx context.Context, profile *models.UserProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return errors.ErrCache.WithError(err)
	}
	key := profileKeyPrefix + profile.UserID
	if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		return errors.ErrCache.WithError(err)
	}
	return nil
}

func (s *ProfileStore) Count(ctx context.Context) int {
	var count int
	var cursor uint64
	pattern := fmt.Sprintf("%s*", profileKeyPrefix)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 512).Result()
		if err != nil {
			s.log.Warn(ctx, "profile scan failed", logger.Fields{"error": err.Error()})
			return count
		}
		count += len(keys)
		if next == 0 {
			return count
		}
		cursor = next
	}
}
