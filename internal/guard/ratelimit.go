package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/volleyscore/scoreboard/internal/domain"
	"golang.org/x/time/rate"
)

// RateLimiter is a per-key token bucket: limit requests per window, with bursts up to limit.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    int
	window   time.Duration
	every    rate.Limit
}

// NewRateLimiter creates a rate limiter with the given limit per window.
// A limit of zero or less disables limiting.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		window:   window,
		every:    rate.Inf,
	}
	if limit > 0 && window > 0 {
		rl.every = rate.Every(window / time.Duration(limit))
	}
	return rl
}

// Check returns a GuardResult indicating whether the key is within rate limits.
func (rl *RateLimiter) Check(_ context.Context, key string) domain.GuardResult {
	if rl == nil || rl.limit <= 0 {
		return domain.GuardResult{Allowed: true}
	}

	if !rl.limiter(key).Allow() {
		return domain.GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("rate limit exceeded: %d/%s", rl.limit, rl.window),
			Guard:   "rate_limiter",
		}
	}
	return domain.GuardResult{Allowed: true}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[key]
	if !ok {
		l = rate.NewLimiter(rl.every, rl.limit)
		rl.limiters[key] = l
	}
	return l
}
