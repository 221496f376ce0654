package middlewares

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"rockspotter/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// HitCounter counts hits per key within a fixed window
type HitCounter interface {
	Count(ctx context.Context, key string) (int64, error)
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

type redisCounter struct {
	rdb *redis.Client
}

// NewRedisCounter returns a HitCounter backed by Redis INCR/EXPIRE, or nil when rdb is nil
func NewRedisCounter(rdb *redis.Client) HitCounter {
	if rdb == nil {
		return nil
	}
	return &redisCounter{rdb: rdb}
}

func (r *redisCounter) Count(ctx context.Context, key string) (int64, error) {
	n, err := r.rdb.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

func (r *redisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, err
	}
	// a key left without expiry would limit the client forever, so any hit
	// that finds one sets the window again
	if ttl.Val() < 0 {
		if err := r.rdb.Expire(ctx, key, window).Err(); err != nil {
			return 0, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}
	return incr.Val(), nil
}

// RateLimit describes one limiter
type RateLimit struct {
	Name    string
	Max     int64
	Window  time.Duration
	Message string
	// FailuresOnly counts only responses with status >= 400
	FailuresOnly bool
}

var (
	APIRateLimit = RateLimit{
		Name:    "api",
		Max:     100,
		Window:  15 * time.Minute,
		Message: "Too many requests from this IP, please try again later.",
	}
	AuthRateLimit = RateLimit{
		Name:         "auth",
		Max:          5,
		Window:       15 * time.Minute,
		Message:      "Too many login attempts, please try again later.",
		FailuresOnly: true,
	}
)

// RateLimitMiddleware limits requests per client IP. A nil counter disables it,
// and counter errors let the request through.
func RateLimitMiddleware(counter HitCounter, limit RateLimit) gin.HandlerFunc {
	return func(c *gin.Context) {
		if counter == nil {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		key := fmt.Sprintf("rate:%s:%s", limit.Name, c.ClientIP())

		var count int64
		var err error
		if limit.FailuresOnly {
			count, err = counter.Count(ctx, key)
		} else {
			count, err = counter.Hit(ctx, key, limit.Window)
			// the current request is already included
			count--
		}
		if err != nil {
			logger.Error("Rate limiter %s unavailable: %v", limit.Name, err)
			c.Next()
			return
		}

		remaining := limit.Max - count - 1
		if remaining < 0 {
			remaining = 0
		}
		c.Header("RateLimit-Limit", strconv.FormatInt(limit.Max, 10))
		c.Header("RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count >= limit.Max {
			c.Header("Retry-After", strconv.Itoa(int(limit.Window.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": limit.Message})
			c.Abort()
			return
		}

		c.Next()

		if limit.FailuresOnly && c.Writer.Status() >= http.StatusBadRequest {
			if _, err := counter.Hit(context.Background(), key, limit.Window); err != nil {
				logger.Error("Rate limiter %s failed to record: %v", limit.Name, err)
			}
		}
	}
}
