package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestFixedWindowLimiterCapsKey(t *testing.T) {
	srv := miniredis.RunT(t)
	limiter, err := NewFixedWindowLimiter(srv.Addr(), "", "test:ratelimit", 2, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	if !limiter.Allow("203.0.113.5") {
		t.Fatalf("first request should pass")
	}
	if !limiter.Allow("203.0.113.5") {
		t.Fatalf("second request should pass")
	}
	if limiter.Allow("203.0.113.5") {
		t.Fatalf("third request should be blocked")
	}
	if !limiter.Allow("203.0.113.6") {
		t.Fatalf("other keys keep their own quota")
	}
}

func TestFixedWindowLimiterFailsClosed(t *testing.T) {
	srv := miniredis.RunT(t)
	limiter, err := NewFixedWindowLimiter(srv.Addr(), "", "test:ratelimit", 1, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	srv.Close()
	if limiter.Allow("203.0.113.5") {
		t.Fatalf("limiter should fail closed on redis errors")
	}
}

func TestFixedWindowLimiterValidatesConfig(t *testing.T) {
	if _, err := NewFixedWindowLimiter("", "", "", 1, time.Minute); err == nil {
		t.Fatalf("expected error for empty redis addr")
	}
	if _, err := NewFixedWindowLimiter("localhost:6379", "", "", 0, time.Minute); err == nil {
		t.Fatalf("expected error for zero limit")
	}
}
