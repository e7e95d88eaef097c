package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/AnshRaj112/ediary-backend/internal/diary"
)

const (
	// CacheKeyPrefix is the Redis key prefix for cached data
	CacheKeyPrefix = "cache:"

	ViewActive = "active"
	ViewTrash  = "trash"
)

// ListCache caches per-user diary listings. Failures degrade to misses.
type ListCache interface {
	Get(ctx context.Context, userID, view string) ([]diary.Entry, bool)
	Set(ctx context.Context, userID, view string, entries []diary.Entry)
	Invalidate(ctx context.Context, userID string)
}

// CacheKey generates a cache key for a user's listing.
func CacheKey(userID, view string) string {
	return fmt.Sprintf("%sdiaries:%s:%s", CacheKeyPrefix, userID, view)
}

// RedisListCache stores listings as JSON strings.
type RedisListCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisListCache(client *redis.Client, ttl time.Duration) *RedisListCache {
	return &RedisListCache{client: client, ttl: ttl}
}

func (c *RedisListCache) Get(ctx context.Context, userID, view string) ([]diary.Entry, bool) {
	val, err := c.client.Get(ctx, CacheKey(userID, view)).Result()
	if err != nil {
		return nil, false
	}
	var entries []diary.Entry
	if err := json.Unmarshal([]byte(val), &entries); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("dropping unreadable cache entry")
		return nil, false
	}
	return entries, true
}

func (c *RedisListCache) Set(ctx context.Context, userID, view string, entries []diary.Entry) {
	data, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, CacheKey(userID, view), data, c.ttl).Err(); err != nil {
		log.Debug().Err(err).Str("user_id", userID).Msg("cache set failed")
	}
}

func (c *RedisListCache) Invalidate(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, CacheKey(userID, ViewActive), CacheKey(userID, ViewTrash)).Err(); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("cache invalidation failed")
	}
}
