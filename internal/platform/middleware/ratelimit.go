package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
	}
}

// bucket is a token bucket refilled lazily on each check.
type bucket struct {
	mu       sync.Mutex
	tokens   float64
	limit    float64 // bucket capacity
	rate     float64 // tokens per second
	lastSeen time.Time
}

func newBucket(rate float64, burst int) *bucket {
	return &bucket{
		tokens:   float64(burst),
		limit:    float64(burst),
		rate:     rate,
		lastSeen: time.Now(),
	}
}

// take consumes one token if available. The second return value is the
// whole-second wait a rejected caller should observe before retrying.
func (b *bucket) take() (bool, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens += now.Sub(b.lastSeen).Seconds() * b.rate
	if b.tokens > b.limit {
		b.tokens = b.limit
	}
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if b.rate <= 0 {
		return false, 1
	}
	return false, int((1-b.tokens)/b.rate) + 1
}

func (b *bucket) idleSince(cutoff time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSeen.Before(cutoff)
}

// limiterStore maps rate-limit keys to buckets and drops buckets that have
// not been touched for an hour, so abandoned tenants do not pin memory.
type limiterStore struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	cfg       RateLimitConfig
	lastSweep time.Time
}

const bucketIdleCutoff = time.Hour

func newLimiterStore(cfg RateLimitConfig) *limiterStore {
	return &limiterStore{
		buckets:   make(map[string]*bucket),
		cfg:       cfg,
		lastSweep: time.Now(),
	}
}

func (s *limiterStore) get(key string) *bucket {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.lastSweep) > bucketIdleCutoff {
		cutoff := time.Now().Add(-bucketIdleCutoff)
		for k, b := range s.buckets {
			if b.idleSince(cutoff) {
				delete(s.buckets, k)
			}
		}
		s.lastSweep = time.Now()
	}

	b, ok := s.buckets[key]
	if !ok {
		b = newBucket(s.cfg.RequestsPerSecond, s.cfg.BurstSize)
		s.buckets[key] = b
	}
	return b
}

// rateLimitKey scopes the budget per tenant where a tenant is known, so one
// practice hammering the API cannot starve the others behind a shared proxy.
func rateLimitKey(c echo.Context) string {
	if tid := c.Request().Header.Get("X-Tenant-ID"); tid != "" {
		return "tenant:" + tid
	}
	if tid, ok := c.Get("jwt_tenant_id").(string); ok && tid != "" {
		return "tenant:" + tid
	}
	return "ip:" + c.RealIP()
}

// RateLimit returns a rate limiting middleware.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store := newLimiterStore(cfg)
	limitHeader := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limitHeader)

			ok, wait := store.get(rateLimitKey(c)).take()
			if !ok {
				h.Set("Retry-After", strconv.Itoa(wait))
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
