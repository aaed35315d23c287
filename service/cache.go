// file: service/cache.go

package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ICacheClient defines the contract for the Redis counter client used by the
// rate limiter. This abstraction allows us to decouple the limiter from a
// concrete Redis implementation, enabling easier testing and future
// flexibility.
type ICacheClient interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}
