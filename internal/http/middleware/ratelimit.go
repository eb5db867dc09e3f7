// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements an in-memory token-bucket rate limiter with one bucket
// per caller (signed-in user or client IP) and opportunistic eviction of idle
// buckets. The limiter is process-local; replays detected by
// IdempotencyValidator are not limited.
package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-devflow-backend/internal/apperr"
)

// MsgRateLimited is the message of the 429 response.
const MsgRateLimited = "Too many requests"

const (
	bucketTTL      = 10 * time.Minute
	sweepThreshold = 5000 // lookups between evictions
)

// keyFunc maps a request to the identity of its bucket.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP returns a keyFunc that prefers the signed-in user (exposed by
// the session middleware) and falls back to the client IP address.
//
// Keys are prefixed so the user and IP namespaces cannot collide
// (e.g., "user:abc123" vs "ip:203.0.113.7").
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if uid := userIDFromCtx(c); uid != "" {
			return "user:" + uid
		}
		return "ip:" + c.ClientIP()
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per key. It is safe for concurrent
// use. A limiter built with rps <= 0 lets every request through.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc

	mu      sync.Mutex
	buckets map[string]*bucket
	lookups uint64
	ttl     time.Duration
}

// NewRateLimiter returns a limiter refilling rps tokens per second up to
// burst (at least 1), keyed by keyFn.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if keyFn == nil {
		keyFn = KeyByUserOrIP()
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		buckets: make(map[string]*bucket),
		ttl:     bucketTTL,
	}
}

// limiter returns the bucket for key, creating it when absent. Every
// sweepThreshold lookups idle buckets are evicted first, so a stale bucket is
// replaced rather than refreshed.
func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.lookups++; rl.lookups >= sweepThreshold {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.ttl {
				delete(rl.buckets, k)
			}
		}
		rl.lookups = 0
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// IsRateBypass reports whether IdempotencyValidator exempted this request.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler returns the Gin middleware enforcing the limits.
//
// A request that finds its bucket empty is answered with:
//
//	HTTP/1.1 429 Too Many Requests
//	Retry-After: <seconds until a token is available, at least 1>
//	{
//	  "success": false,
//	  "error": { "message": "Too many requests", "code": "too_many_requests" }
//	}
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.rps <= 0 || IsRateBypass(c) {
			c.Next()
			return
		}

		lim := rl.limiter(rl.keyFn(c))
		if lim.Allow() {
			c.Next()
			return
		}

		rateLimited.Inc()
		c.Header("Retry-After", strconv.Itoa(retryAfter(lim)))
		Abort(c, apperr.New(http.StatusTooManyRequests, MsgRateLimited))
	}
}

// retryAfter estimates the whole seconds until lim has a token again.
func retryAfter(lim *rate.Limiter) int {
	r := lim.Reserve()
	defer r.Cancel()
	secs := int(r.Delay().Seconds() + 0.999)
	if secs < 1 {
		secs = 1
	}
	return secs
}
