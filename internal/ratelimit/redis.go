package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/i-yashvi/E-Commerce-Backend/internal/cache"
)

const redisTimeout = 250 * time.Millisecond

// RedisLimiter shares counters between instances through redis.
// Redis failures allow the request.
type RedisLimiter struct {
	cache  *cache.Client
	logger *slog.Logger
	prefix string
}

// NewRedisLimiter creates a redis backed limiter.
func NewRedisLimiter(c *cache.Client, logger *slog.Logger) *RedisLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLimiter{cache: c, logger: logger, prefix: "shop:ratelimit:"}
}

// Allow counts a request against key.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, win time.Duration) Decision {
	if limit <= 0 {
		return Decision{Allowed: true}
	}
	if win <= 0 {
		win = defaultWindow
	}
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	count, ttl, err := l.cache.Incr(ctx, l.prefix+key, win)
	if err != nil {
		l.logger.WarnContext(ctx, "redis rate limiter error, allowing request", "key", key, "error", err)
		return Decision{Allowed: true}
	}
	return Decision{
		Allowed:    int(count) <= limit,
		Count:      int(count),
		RetryAfter: ttl,
	}
}

// Close is a no-op; the cache client is owned by the caller.
func (l *RedisLimiter) Close() error {
	return nil
}
