package lobby

import (
	"testing"
	"time"
)

func TestChatLimiterSlidingWindow(t *testing.T) {
	now := time.Unix(1700000000, 0)
	limiter := NewChatLimiter(3, time.Minute, func() time.Time { return now })

	for i := 0; i < 3; i++ {
		if !limiter.Allow(7) {
			t.Fatalf("message %d should pass", i+1)
		}
	}
	if limiter.Allow(7) {
		t.Fatalf("fourth message inside the window must be blocked")
	}

	//1.- Once the earliest entry ages out, capacity returns.
	now = now.Add(61 * time.Second)
	if !limiter.Allow(7) {
		t.Fatalf("message after the window must pass")
	}
}

func TestChatLimiterPerProfile(t *testing.T) {
	now := time.Unix(1700000000, 0)
	limiter := NewChatLimiter(1, time.Minute, func() time.Time { return now })

	if !limiter.Allow(7) {
		t.Fatalf("first profile should pass")
	}
	if !limiter.Allow(8) {
		t.Fatalf("a different profile has its own window")
	}
	if limiter.Allow(7) {
		t.Fatalf("first profile should now be blocked")
	}
}

func TestChatLimiterForget(t *testing.T) {
	now := time.Unix(1700000000, 0)
	limiter := NewChatLimiter(1, time.Minute, func() time.Time { return now })

	limiter.Allow(7)
	limiter.Forget(7)
	if !limiter.Allow(7) {
		t.Fatalf("forgotten profile must start fresh")
	}
}

func TestChatLimiterZeroLimitNeverBlocks(t *testing.T) {
	limiter := NewChatLimiter(0, time.Minute, nil)
	for i := 0; i < 5; i++ {
		if !limiter.Allow(7) {
			t.Fatalf("zero limit must never block")
		}
	}
}
