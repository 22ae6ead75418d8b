package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volleyscore/scoreboard/internal/domain"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)}
}

// --- RateLimiter ---

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result := rl.Check(ctx, "10.0.0.1")
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	ctx := context.Background()

	rl.Check(ctx, "10.0.0.1")
	rl.Check(ctx, "10.0.0.1")
	result := rl.Check(ctx, "10.0.0.1")

	assert.False(t, result.Allowed)
	assert.Equal(t, "rate_limiter", result.Guard)
}

func TestRateLimiter_SeparateKeys(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	ctx := context.Background()

	assert.True(t, rl.Check(ctx, "key-a").Allowed)
	assert.True(t, rl.Check(ctx, "key-b").Allowed)
	assert.False(t, rl.Check(ctx, "key-a").Allowed)
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		require.True(t, rl.Check(context.Background(), "k").Allowed)
	}
}

// --- CircuitBreaker ---

func TestCircuitBreaker_ClosedByDefault(t *testing.T) {
	cb := NewCircuitBreaker(3, 5*time.Second)
	assert.True(t, cb.Check(context.Background(), "scoreboard.match.score.adjusted").Allowed)
	assert.Equal(t, CircuitClosed, cb.State("scoreboard.match.score.adjusted"))
}

func TestCircuitBreaker_OpensOnThreshold(t *testing.T) {
	cb := NewCircuitBreaker(2, 5*time.Second)
	ctx := context.Background()

	cb.RecordFailure("topic")
	cb.RecordFailure("topic")

	result := cb.Check(ctx, "topic")
	assert.False(t, result.Allowed)
	assert.Equal(t, "circuit_breaker", result.Guard)
	assert.Equal(t, CircuitOpen, cb.State("topic"))
}

func TestCircuitBreaker_SuccessResets(t *testing.T) {
	cb := NewCircuitBreaker(2, 5*time.Second)
	ctx := context.Background()

	cb.RecordFailure("topic")
	cb.RecordSuccess("topic")
	cb.RecordFailure("topic")

	assert.True(t, cb.Check(ctx, "topic").Allowed)
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	clock := newClock()
	cb := NewCircuitBreaker(1, 5*time.Second)
	cb.now = clock.now
	ctx := context.Background()

	cb.RecordFailure("topic")
	require.False(t, cb.Check(ctx, "topic").Allowed)

	clock.advance(6 * time.Second)
	assert.True(t, cb.Check(ctx, "topic").Allowed, "first probe after reset timeout")
	assert.Equal(t, CircuitHalfOpen, cb.State("topic"))
	assert.False(t, cb.Check(ctx, "topic").Allowed, "second probe while first in flight")

	cb.RecordFailure("topic")
	assert.Equal(t, CircuitOpen, cb.State("topic"))

	clock.advance(6 * time.Second)
	require.True(t, cb.Check(ctx, "topic").Allowed)
	cb.RecordSuccess("topic")
	assert.Equal(t, CircuitClosed, cb.State("topic"))
	assert.True(t, cb.Check(ctx, "topic").Allowed)
}

// --- IdempotencyGuard ---

func TestIdempotencyGuard_AllowsFirst(t *testing.T) {
	ig := NewIdempotencyGuard(time.Minute)
	assert.True(t, ig.Check(context.Background(), "req-123").Allowed)
}

func TestIdempotencyGuard_BlocksDuplicate(t *testing.T) {
	ig := NewIdempotencyGuard(time.Minute)
	ctx := context.Background()

	ig.Check(ctx, "req-123")
	result := ig.Check(ctx, "req-123")

	assert.False(t, result.Allowed)
	assert.Equal(t, "idempotency", result.Guard)
}

func TestIdempotencyGuard_EmptyKeyAllowed(t *testing.T) {
	ig := NewIdempotencyGuard(time.Minute)
	ctx := context.Background()

	assert.True(t, ig.Check(ctx, "").Allowed)
	assert.True(t, ig.Check(ctx, "").Allowed)
}

func TestIdempotencyGuard_RemoveAllowsRetry(t *testing.T) {
	ig := NewIdempotencyGuard(time.Minute)
	ctx := context.Background()

	ig.Check(ctx, "req-456")
	ig.Remove("req-456")

	require.True(t, ig.Check(ctx, "req-456").Allowed)
}

func TestIdempotencyGuard_KeysExpire(t *testing.T) {
	clock := newClock()
	ig := NewIdempotencyGuard(time.Minute)
	ig.now = clock.now
	ctx := context.Background()

	ig.Check(ctx, "req-789")
	clock.advance(2 * time.Minute)
	assert.True(t, ig.Check(ctx, "req-789").Allowed)
}

// --- Lockout ---

func TestLockout_LocksAfterMaxFailures(t *testing.T) {
	l := NewLockout()
	for i := 0; i < MaxAttempts-1; i++ {
		l.RecordAttempt("10.0.0.9", false)
	}
	require.NoError(t, l.CheckLocked("10.0.0.9"))

	l.RecordAttempt("10.0.0.9", false)
	err := l.CheckLocked("10.0.0.9")
	assert.True(t, domain.HasCode(err, domain.CodeLocked))
	assert.NoError(t, l.CheckLocked("10.0.0.10"))
}

func TestLockout_WindowExpires(t *testing.T) {
	clock := newClock()
	l := NewLockout()
	l.now = clock.now

	for i := 0; i < MaxAttempts; i++ {
		l.RecordAttempt("ip", false)
	}
	require.Error(t, l.CheckLocked("ip"))

	clock.advance(LockoutWindow + time.Second)
	assert.NoError(t, l.CheckLocked("ip"))
}

func TestLockout_SuccessClears(t *testing.T) {
	l := NewLockout()
	for i := 0; i < MaxAttempts-1; i++ {
		l.RecordAttempt("ip", false)
	}
	l.RecordAttempt("ip", true)
	l.RecordAttempt("ip", false)
	assert.NoError(t, l.CheckLocked("ip"))
}
