package lobby

import (
	"sync"
	"time"
)

// ChatLimiter enforces a per-profile sliding-window cap on lobby chat.
// Messages over the cap are dropped silently by the caller; the limiter only
// answers yes or no.
type ChatLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	history map[int64][]time.Time
}

// NewChatLimiter builds a limiter allowing limit messages per window. A nil
// clock falls back to time.Now.
func NewChatLimiter(limit int, window time.Duration, clock func() time.Time) *ChatLimiter {
	if clock == nil {
		clock = time.Now
	}
	return &ChatLimiter{
		limit:   limit,
		window:  window,
		now:     clock,
		history: make(map[int64][]time.Time),
	}
}

// Allow reports whether the profile may send another message now, and
// records it if so.
func (l *ChatLimiter) Allow(profileID int64) bool {
	if l == nil || l.limit <= 0 {
		return true
	}
	now := l.now()
	cutoff := now.Add(-l.window)
	l.mu.Lock()
	defer l.mu.Unlock()
	recent := l.history[profileID]
	//1.- Discard entries that fell out of the window before counting.
	kept := recent[:0]
	for _, at := range recent {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	if len(kept) >= l.limit {
		l.history[profileID] = kept
		return false
	}
	l.history[profileID] = append(kept, now)
	return true
}

// Forget clears the profile's history, typically on disconnect.
func (l *ChatLimiter) Forget(profileID int64) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.history, profileID)
}
