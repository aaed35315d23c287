// file: service/rate_limiter.go

package service

import (
	"context"
	"fmt"
	"go-habit-auth/logger"
	"time"
)

// RateLimiter throttles login and refresh attempts with per-key Redis
// counters. INCR followed by EXPIRE on the first hit gives the keyed
// counter the same atomic-upsert discipline as the token stores.
type RateLimiter struct {
	cache       ICacheClient
	maxAttempts int
	window      time.Duration
}

// NewRateLimiter creates a new RateLimiter. A nil cache client disables
// throttling entirely.
func NewRateLimiter(cache ICacheClient, maxAttempts int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		cache:       cache,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

// Allow reports whether another attempt is within budget for the given scope
// and key. Redis being unreachable fails open: throttling is an adjacent
// protection and must never take authentication down with it.
func (l *RateLimiter) Allow(ctx context.Context, scope, key string) bool {
	if l.cache == nil {
		return true
	}

	counterKey := fmt.Sprintf("ratelimit:%s:%s", scope, key)

	count, err := l.cache.Incr(ctx, counterKey).Result()
	if err != nil {
		logger.Log.WithError(err).Warn("Rate limiter unavailable, failing open")
		return true
	}
	if count == 1 {
		if err := l.cache.Expire(ctx, counterKey, l.window).Err(); err != nil {
			logger.Log.WithError(err).Warn("Failed to set rate limit window")
		}
	}

	return count <= int64(l.maxAttempts)
}
