package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dkeye/Karaoke/internal/adapters/signal"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter counts requests per key with INCR+EXPIRE so every instance shares the budget.
type RedisLimiter struct {
	client      *redis.Client
	maxRequests int
	window      time.Duration
}

func NewRedisLimiter(client *redis.Client, maxRequests int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, maxRequests: maxRequests, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, "ratelimit:"+key)
	pipe.Expire(ctx, "ratelimit:"+key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit pipeline: %w", err)
	}
	count, err := incr.Result()
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	return count <= int64(l.maxRequests), nil
}

// LocalLimiter is the in-process fallback when Redis is not configured.
type LocalLimiter struct {
	w *signal.WindowLimiter
}

func NewLocalLimiter(maxRequests int, window time.Duration) *LocalLimiter {
	return &LocalLimiter{w: signal.NewWindowLimiter(maxRequests, window)}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	return l.w.Allow(key), nil
}

// RateLimit limits requests per client IP under scope. Limiter errors let the request through.
func RateLimit(limiter Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		ok, err := limiter.Allow(c.Request.Context(), scope+":"+c.ClientIP())
		if err != nil {
			log.Warn().Err(err).Str("module", "adapters.http").Str("scope", scope).Msg("rate limiter unavailable")
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited"})
			return
		}
		c.Next()
	}
}
