package sandbox

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/storefront/pkg/logger"
)

// RateLimiter implements a sliding window limit per client address. With a
// Redis client the window is shared between sandbox instances, otherwise it
// is kept in process.
type RateLimiter struct {
	redis       *redis.Client
	maxRequests int           // Maximum requests allowed
	window      time.Duration // Time window
	now         func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

// NewRateLimiter creates a new rate limiter. redisClient may be nil.
func NewRateLimiter(redisClient *redis.Client, maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:       redisClient,
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
		hits:        make(map[string][]time.Time),
	}
}

// Middleware rejects requests over the limit with 429
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identifier := clientAddr(r)

		allowed, remaining, resetTime, err := rl.checkLimit(r.Context(), identifier)
		if err != nil {
			logger.Error(r.Context()).
				Err(err).
				Str("identifier", identifier).
				Msg("Rate limiter error")
			// On error, allow request but log it
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.maxRequests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			logger.Warn(r.Context()).
				Str("identifier", identifier).
				Int("limit", rl.maxRequests).
				Msg("Rate limit exceeded")
			retry := resetTime.Sub(rl.now()).Round(time.Second)
			respondError(w, r, &apiError{
				status:  http.StatusTooManyRequests,
				message: fmt.Sprintf("too many requests, try again in %v", retry),
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) checkLimit(ctx context.Context, identifier string) (bool, int, time.Time, error) {
	now := rl.now()
	var (
		count int
		err   error
	)
	if rl.redis != nil {
		count, err = rl.countRedis(ctx, identifier, now)
	} else {
		count = rl.countLocal(identifier, now)
	}
	if err != nil {
		return false, 0, time.Time{}, err
	}

	remaining := rl.maxRequests - count - 1
	if remaining < 0 {
		remaining = 0
	}
	return count < rl.maxRequests, remaining, now.Add(rl.window), nil
}

// countRedis records the request and returns how many came before it in
// the window
func (rl *RateLimiter) countRedis(ctx context.Context, identifier string, now time.Time) (int, error) {
	key := fmt.Sprintf("sandbox:ratelimit:%s", identifier)
	windowStart := now.Add(-rl.window)

	pipe := rl.redis.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: now.UnixNano(),
	})
	pipe.Expire(ctx, key, rl.window+time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(countCmd.Val()), nil
}

func (rl *RateLimiter) countLocal(identifier string, now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	windowStart := now.Add(-rl.window)
	kept := rl.hits[identifier][:0]
	for _, t := range rl.hits[identifier] {
		if t.After(windowStart) {
			kept = append(kept, t)
		}
	}
	count := len(kept)
	rl.hits[identifier] = append(kept, now)
	return count
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
