package app

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterPerIP(t *testing.T) {
	rl := newRateLimiter(60, 2)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := rl.reserve("10.0.0.1"); !ok {
			t.Fatalf("request %d should pass within burst", i+1)
		}
	}
	ok, wait := rl.reserve("10.0.0.1")
	if ok {
		t.Fatal("expected third request to be limited")
	}
	if wait <= 0 || wait > time.Second {
		t.Fatalf("expected a wait of at most one second, got %v", wait)
	}
	if ok, _ := rl.reserve("10.0.0.2"); !ok {
		t.Fatal("expected another IP to have its own bucket")
	}

	now = now.Add(time.Second)
	if ok, _ := rl.reserve("10.0.0.1"); !ok {
		t.Fatal("expected a token to refill after one second")
	}
}

func TestRateLimiterSweepsIdleBuckets(t *testing.T) {
	rl := newRateLimiter(60, 1)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.reserve("10.0.0.1")
	now = now.Add(limiterIdleTTL + 2*limiterSweepInterval)
	rl.reserve("10.0.0.2")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.buckets["10.0.0.1"]; ok {
		t.Fatal("expected idle bucket to be swept")
	}
	if len(rl.buckets) != 1 {
		t.Fatalf("expected one live bucket, got %d", len(rl.buckets))
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	req.RemoteAddr = "192.0.2.1:4321"
	if got := clientIP(req); got != "192.0.2.1" {
		t.Fatalf("clientIP() = %q", got)
	}
	req.Header.Set("X-Forwarded-For", " 203.0.113.9 , 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.9" {
		t.Fatalf("clientIP() with X-Forwarded-For = %q", got)
	}
}
