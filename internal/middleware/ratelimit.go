package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/AnshRaj112/ediary-backend/pkg/clientip"
)

const (
	// RateLimitWindow is 120 seconds
	RateLimitWindow = 120 * time.Second
	// RateLimitMaxRequests is the maximum number of requests allowed in the window
	RateLimitMaxRequests = 300
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "blocked_ip:"
	// BlockedIPDuration is how long an IP stays blocked
	BlockedIPDuration = 15 * time.Minute
)

// RateStore counts requests per IP in fixed windows and remembers blocked IPs.
type RateStore interface {
	IsBlocked(ctx context.Context, ip string) (bool, error)
	// Hit counts one request and returns the total in the current window.
	Hit(ctx context.Context, ip string, window time.Duration) (int64, error)
	Block(ctx context.Context, ip string, d time.Duration) error
}

// RedisRateStore keeps counters in Redis so limits hold across instances.
type RedisRateStore struct {
	client *redis.Client
}

func NewRedisRateStore(client *redis.Client) *RedisRateStore {
	return &RedisRateStore{client: client}
}

func (s *RedisRateStore) IsBlocked(ctx context.Context, ip string) (bool, error) {
	n, err := s.client.Exists(ctx, BlockedIPKeyPrefix+ip).Result()
	return n > 0, err
}

func (s *RedisRateStore) Hit(ctx context.Context, ip string, window time.Duration) (int64, error) {
	key := RateLimitKeyPrefix + ip
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (s *RedisRateStore) Block(ctx context.Context, ip string, d time.Duration) error {
	return s.client.Set(ctx, BlockedIPKeyPrefix+ip, "1", d).Err()
}

// Unblock removes an IP from the blocked list.
func (s *RedisRateStore) Unblock(ctx context.Context, ip string) error {
	return s.client.Del(ctx, BlockedIPKeyPrefix+ip).Err()
}

// RateLimit blocks an IP for BlockedIPDuration once it exceeds RateLimitMaxRequests
// within RateLimitWindow. Store failures let the request through.
func RateLimit(store RateStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := clientip.RateKey(r)

			blocked, err := store.IsBlocked(ctx, ip)
			if err == nil && blocked {
				writeError(w, http.StatusTooManyRequests, "Your IP has been temporarily blocked due to excessive requests. Please try again later.")
				return
			}

			count, err := store.Hit(ctx, ip, RateLimitWindow)
			if err != nil {
				log.Warn().Err(err).Msg("rate limit store unavailable")
				next.ServeHTTP(w, r)
				return
			}

			if count > RateLimitMaxRequests {
				if err := store.Block(ctx, ip, BlockedIPDuration); err != nil {
					log.Warn().Err(err).Str("ip", ip).Msg("failed to block ip")
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(RateLimitWindow.Seconds())))
				writeError(w, http.StatusTooManyRequests, fmt.Sprintf("Rate limit exceeded. Please try again in %d seconds.", int(RateLimitWindow.Seconds())))
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(RateLimitMaxRequests))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(RateLimitMaxRequests-count, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(RateLimitWindow).Unix(), 10))
			next.ServeHTTP(w, r)
		})
	}
}
