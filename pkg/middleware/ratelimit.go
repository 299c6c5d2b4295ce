package middleware

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/marketdash/marketdash/pkg/errors"
	"github.com/marketdash/marketdash/pkg/metrics"
)

// RateLimiter interface for different rate limiting strategies
type RateLimiter interface {
	Allow(key string) bool
	Reset(key string)
}

// TokenBucketLimiter implements token bucket rate limiting keyed by client.
type TokenBucketLimiter struct {
	mu              sync.RWMutex
	buckets         map[string]*TokenBucket
	rate            int           // tokens per second
	capacity        int           // bucket capacity
	cleanupInterval time.Duration // cleanup interval
	logger          *zap.Logger
}

// TokenBucket represents a single token bucket
type TokenBucket struct {
	tokens     int
	capacity   int
	rate       int
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucketLimiter creates a new token bucket rate limiter
func NewTokenBucketLimiter(rate, capacity int, logger *zap.Logger) *TokenBucketLimiter {
	limiter := &TokenBucketLimiter{
		buckets:         make(map[string]*TokenBucket),
		rate:            rate,
		capacity:        capacity,
		cleanupInterval: 5 * time.Minute,
		logger:          logger,
	}

	go limiter.cleanup()

	return limiter
}

// Allow checks if a request is allowed for the given key
func (tbl *TokenBucketLimiter) Allow(key string) bool {
	tbl.mu.RLock()
	bucket, exists := tbl.buckets[key]
	tbl.mu.RUnlock()

	if !exists {
		tbl.mu.Lock()
		if bucket, exists = tbl.buckets[key]; !exists {
			bucket = &TokenBucket{
				tokens:     tbl.capacity,
				capacity:   tbl.capacity,
				rate:       tbl.rate,
				lastRefill: time.Now(),
			}
			tbl.buckets[key] = bucket
		}
		tbl.mu.Unlock()
	}

	return bucket.take()
}

// Reset clears the bucket for a key
func (tbl *TokenBucketLimiter) Reset(key string) {
	tbl.mu.Lock()
	delete(tbl.buckets, key)
	tbl.mu.Unlock()
}

func (tb *TokenBucket) take() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)
	refill := int(elapsed.Seconds() * float64(tb.rate))
	if refill > 0 {
		tb.tokens += refill
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.lastRefill = now
	}

	if tb.tokens <= 0 {
		return false
	}
	tb.tokens--
	return true
}

// cleanup drops buckets that have been idle long enough to be full again.
func (tbl *TokenBucketLimiter) cleanup() {
	ticker := time.NewTicker(tbl.cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-tbl.cleanupInterval)
		tbl.mu.Lock()
		for key, bucket := range tbl.buckets {
			bucket.mu.Lock()
			idle := bucket.lastRefill.Before(cutoff)
			bucket.mu.Unlock()
			if idle {
				delete(tbl.buckets, key)
			}
		}
		tbl.mu.Unlock()
	}
}

// RateLimit rejects requests over budget with a 429 and a JSON error body.
func RateLimit(limiter RateLimiter, logger *zap.Logger, appMetrics *metrics.ApplicationMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if !limiter.Allow(key) {
				logger.Warn("request rate limited",
					zap.String("remote_addr", key),
					zap.String("path", r.URL.Path))
				if appMetrics != nil {
					appMetrics.RecordRateLimited(r.URL.Path)
				}

				appErr := apperrors.NewAppError(apperrors.ErrCodeRateLimit, "Rate limit exceeded")
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(appErr.HTTPStatus)
				_ = json.NewEncoder(w).Encode(appErr.ToErrorResponse())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
