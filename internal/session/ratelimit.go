package session

import (
	"sync"
	"time"
)

type limiterKey struct {
	profileID int64
	matchID   string
}

type limiterEntry struct {
	mu   sync.Mutex
	last time.Time
}

// RateLimiter enforces a minimum interval between consecutive operations
// from the same profile in the same match. State is scoped per
// (profile, match) pair, never globally per profile, so activity in one
// match cannot throttle the same profile elsewhere. Independent instances
// gate gameplay actions and chat.
type RateLimiter struct {
	interval time.Duration
	now      func() time.Time
	entries  sync.Map // limiterKey -> *limiterEntry
}

// NewRateLimiter constructs a limiter with the given minimum interval. A nil
// clock falls back to time.Now.
func NewRateLimiter(interval time.Duration, clock func() time.Time) *RateLimiter {
	if clock == nil {
		clock = time.Now
	}
	return &RateLimiter{interval: interval, now: clock}
}

// Allow reports whether the pair may act now, and if so records the instant.
// The check and the record are one atomic step under the entry's lock, so
// two near-simultaneous calls cannot both observe "no prior entry".
func (l *RateLimiter) Allow(profileID int64, matchID string) bool {
	if l == nil || l.interval <= 0 {
		return true
	}
	value, _ := l.entries.LoadOrStore(limiterKey{profileID: profileID, matchID: matchID}, &limiterEntry{})
	entry := value.(*limiterEntry)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	now := l.now()
	if !entry.last.IsZero() && now.Sub(entry.last) < l.interval {
		return false
	}
	entry.last = now
	return true
}

// Forget deletes the pair's entry outright, immediately un-throttling it.
// Called after a successful action dispatch so the interval only blocks
// rapid resubmission of the current turn, never the next one.
func (l *RateLimiter) Forget(profileID int64, matchID string) {
	if l == nil {
		return
	}
	l.entries.Delete(limiterKey{profileID: profileID, matchID: matchID})
}
