package session

import (
	"testing"
	"time"
)

func TestRateLimiterBlocksWithinInterval(t *testing.T) {
	now := time.Unix(1700000000, 0)
	limiter := NewRateLimiter(200*time.Millisecond, func() time.Time { return now })

	if !limiter.Allow(7, "m1") {
		t.Fatalf("first call must pass")
	}
	if limiter.Allow(7, "m1") {
		t.Fatalf("second call inside the interval must be blocked")
	}

	now = now.Add(250 * time.Millisecond)
	if !limiter.Allow(7, "m1") {
		t.Fatalf("call after the interval must pass")
	}
}

func TestRateLimiterScopedPerMatch(t *testing.T) {
	now := time.Unix(1700000000, 0)
	limiter := NewRateLimiter(time.Second, func() time.Time { return now })

	if !limiter.Allow(7, "m1") {
		t.Fatalf("first call in m1 must pass")
	}
	//1.- The same profile acting in another match is a different pair.
	if !limiter.Allow(7, "m2") {
		t.Fatalf("activity in m1 must not throttle m2")
	}
	if limiter.Allow(7, "m1") {
		t.Fatalf("m1 should still be throttled")
	}
}

func TestRateLimiterForgetUnthrottles(t *testing.T) {
	now := time.Unix(1700000000, 0)
	limiter := NewRateLimiter(time.Second, func() time.Time { return now })

	if !limiter.Allow(7, "m1") {
		t.Fatalf("first call must pass")
	}
	limiter.Forget(7, "m1")
	if !limiter.Allow(7, "m1") {
		t.Fatalf("forgotten pair must pass immediately")
	}
}

func TestRateLimiterZeroIntervalNeverBlocks(t *testing.T) {
	limiter := NewRateLimiter(0, nil)
	for i := 0; i < 10; i++ {
		if !limiter.Allow(7, "m1") {
			t.Fatalf("zero interval must never block")
		}
	}
}
