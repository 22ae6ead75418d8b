package guard

import (
	"sync"
	"time"

	"github.com/volleyscore/scoreboard/internal/domain"
)

const (
	MaxAttempts   = 5
	LockoutWindow = 15 * time.Minute
)

// Lockout tracks failed logins per key (client IP) within a sliding window.
type Lockout struct {
	mu       sync.Mutex
	failures map[string][]time.Time
	max      int
	window   time.Duration
	now      func() time.Time
}

// NewLockout creates a lockout guard with the default thresholds.
func NewLockout() *Lockout {
	return &Lockout{
		failures: make(map[string][]time.Time),
		max:      MaxAttempts,
		window:   LockoutWindow,
		now:      time.Now,
	}
}

// RecordAttempt records a login outcome. A success clears the key's failures.
func (l *Lockout) RecordAttempt(key string, success bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if success {
		delete(l.failures, key)
		return
	}
	l.failures[key] = append(l.recent(key), l.now())
}

// CheckLocked returns ErrAccountLocked if key has at least MaxAttempts failed
// logins within the lockout window.
func (l *Lockout) CheckLocked(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.recent(key)
	if len(recent) == 0 {
		delete(l.failures, key)
		return nil
	}
	l.failures[key] = recent
	if len(recent) >= l.max {
		return domain.ErrAccountLocked("too many failed login attempts, try again later")
	}
	return nil
}

// must hold l.mu
func (l *Lockout) recent(key string) []time.Time {
	cutoff := l.now().Add(-l.window)
	entries := l.failures[key]
	valid := entries[:0]
	for _, t := range entries {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	return valid
}
