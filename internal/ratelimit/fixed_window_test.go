package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestFixedWindowBlocksOverQuota(t *testing.T) {
	srv := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(srv.Addr(), "", "wizdom:ratelimit:test", 2, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}

	for i := 0; i < 2; i++ {
		if !limiter.Allow("203.0.113.10") {
			t.Fatalf("request %d should be within quota", i+1)
		}
	}
	if limiter.Allow("203.0.113.10") {
		t.Fatalf("request over quota should be blocked")
	}
}

func TestFixedWindowKeysAreIndependent(t *testing.T) {
	srv := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(srv.Addr(), "", "wizdom:ratelimit:test", 1, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}

	if !limiter.Allow("203.0.113.10") {
		t.Fatalf("first key should pass")
	}
	if !limiter.Allow("203.0.113.11") {
		t.Fatalf("second key has its own quota")
	}
	if limiter.Allow("203.0.113.10") {
		t.Fatalf("first key is now exhausted")
	}
}

func TestFixedWindowFailsClosedOnRedisError(t *testing.T) {
	srv := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(srv.Addr(), "", "wizdom:ratelimit:test", 5, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	srv.Close()

	if limiter.Allow("203.0.113.10") {
		t.Fatalf("unreachable redis should block requests")
	}
}

func TestFixedWindowConstructorValidation(t *testing.T) {
	if _, err := NewRedisFixedWindowLimiter("", "", "p", 1, time.Minute); err == nil {
		t.Fatalf("expected error for missing redis addr")
	}
	if _, err := NewRedisFixedWindowLimiter("localhost:6379", "", "p", 0, time.Minute); err == nil {
		t.Fatalf("expected error for non-positive limit")
	}
	if _, err := NewRedisFixedWindowLimiter("localhost:6379", "", "p", 1, 0); err == nil {
		t.Fatalf("expected error for non-positive window")
	}
}
