package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/jellydator/ttlcache/v3"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Decision is the outcome of a rate limit check
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether a client may make another request
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// RateLimiter implements an in-memory token bucket per client.
// Idle buckets expire once they would have refilled completely.
type RateLimiter struct {
	mu           sync.Mutex
	buckets      *ttlcache.Cache[string, *bucket]
	maxTokens    int
	refillRate   int           // tokens per refill
	refillPeriod time.Duration // how often to refill
	now          func() time.Time
}

// NewRateLimiter creates a new rate limiter
// maxTokens: maximum tokens per client
// refillRate: how many tokens to add per refill period
// refillPeriod: how often to refill tokens
func NewRateLimiter(maxTokens, refillRate int, refillPeriod time.Duration) *RateLimiter {
	if refillRate <= 0 {
		refillRate = 1
	}
	idle := refillPeriod * time.Duration((maxTokens+refillRate-1)/refillRate)

	cache := ttlcache.New[string, *bucket](
		ttlcache.WithTTL[string, *bucket](idle),
	)
	go cache.Start()

	return &RateLimiter{
		buckets:      cache,
		maxTokens:    maxTokens,
		refillRate:   refillRate,
		refillPeriod: refillPeriod,
		now:          time.Now,
	}
}

// NewPerMinuteLimiter allows perMinute requests per client, refilled evenly over a minute
func NewPerMinuteLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return NewRateLimiter(perMinute, 1, time.Minute/time.Duration(perMinute))
}

// Allow checks if a request should be allowed for the given key
func (rl *RateLimiter) Allow(_ context.Context, key string) (Decision, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	b := &bucket{tokens: rl.maxTokens, lastRefill: now}
	if item := rl.buckets.Get(key); item != nil {
		b = item.Value()
	}

	// Refill tokens
	refills := int(now.Sub(b.lastRefill) / rl.refillPeriod)
	if refills > 0 {
		b.tokens += refills * rl.refillRate
		if b.tokens > rl.maxTokens {
			b.tokens = rl.maxTokens
		}
		b.lastRefill = b.lastRefill.Add(time.Duration(refills) * rl.refillPeriod)
	}

	d := Decision{Limit: rl.maxTokens}
	if b.tokens > 0 {
		b.tokens--
		d.Allowed = true
	} else {
		d.RetryAfter = rl.refillPeriod - now.Sub(b.lastRefill)
	}
	d.Remaining = b.tokens

	rl.buckets.Set(key, b, ttlcache.DefaultTTL)
	return d, nil
}

// Stop ends background expiry of idle buckets
func (rl *RateLimiter) Stop() {
	rl.buckets.Stop()
}

// RedisRateLimiter is a fixed one-minute window shared by every replica
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
	prefix string
	now    func() time.Time
}

func NewRedisRateLimiter(client *redis.Client, perMinute int) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		limit:  perMinute,
		prefix: "codecraft:ratelimit",
		now:    time.Now,
	}
}

// Allow increments the counter for the current window
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := rl.now()
	window := now.Truncate(time.Minute)
	redisKey := fmt.Sprintf("%s:%s:%d", rl.prefix, key, window.Unix())

	var incr *redis.IntCmd
	_, err := rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, 2*time.Minute)
		return nil
	})
	if err != nil {
		return Decision{}, errors.Wrap(err, "redis rate limit")
	}

	count := int(incr.Val())
	d := Decision{Limit: rl.limit, Remaining: rl.limit - count}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	d.Allowed = count <= rl.limit
	if !d.Allowed {
		d.RetryAfter = window.Add(time.Minute).Sub(now)
	}
	return d, nil
}

// RateLimitMiddleware creates a rate limiting middleware.
// Uses the user ID from the auth middleware or falls back to the client IP.
// A limiter error lets the request through.
func RateLimitMiddleware(l Limiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID, ok := GetUserID(c); ok {
			key = "user:" + userID
		}

		d, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("request_id", GetRequestID(c)), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

		if !d.Allowed {
			retry := int(d.RetryAfter.Milliseconds())
			c.Header("Retry-After", strconv.Itoa(int(d.RetryAfter.Round(time.Second).Seconds())))
			RespondErrorWithRetry(c, http.StatusTooManyRequests, ErrCodeRateLimited,
				"too many requests, please try again later", retry)
			c.Abort()
			return
		}

		c.Next()
	}
}
