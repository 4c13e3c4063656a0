// internal/interfaces/http/middleware/rate_limit.go
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/your-org/storefront/internal/config"
)

// localLimiters is the per-IP token bucket used when Redis is absent or failing
type localLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newLocalLimiters(perMinute, burst int) *localLimiters {
	if burst < 1 {
		burst = 1
	}
	return &localLimiters{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
	}
}

func (l *localLimiters) allow(ip string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}

// RateLimit counts requests per client IP in fixed one-minute windows in Redis. A nil
// client or a Redis error falls back to an in-process token bucket.
func RateLimit(cfg *config.Config, redisClient *redis.Client, log logrus.FieldLogger) gin.HandlerFunc {
	perMinute := cfg.Security.RateLimitPerMinute
	local := newLocalLimiters(perMinute, cfg.Security.RateLimitBurst)

	return func(c *gin.Context) {
		if perMinute <= 0 {
			c.Next()
			return
		}
		clientIP := c.ClientIP()

		if redisClient != nil {
			count, err := incrementWindow(c.Request.Context(), redisClient, clientIP)
			if err == nil {
				c.Header("X-RateLimit-Limit", strconv.Itoa(perMinute))
				c.Header("X-RateLimit-Remaining", strconv.Itoa(max(perMinute-int(count), 0)))
				if int(count) > perMinute {
					tooManyRequests(c)
					return
				}
				c.Next()
				return
			}
			log.WithError(err).Warn("Rate limit store unavailable, using local limiter")
		}

		if !local.allow(clientIP) {
			tooManyRequests(c)
			return
		}
		c.Next()
	}
}

func incrementWindow(ctx context.Context, rdb *redis.Client, clientIP string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	key := fmt.Sprintf("rate_limit:%s", clientIP)
	pipe := rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func tooManyRequests(c *gin.Context) {
	c.Header("Retry-After", "60")
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":       "Rate limit exceeded",
		"retry_after": 60,
	})
}
