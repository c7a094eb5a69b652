package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestFixedWindowLimiter(t *testing.T) {
	_, client := testClient(t)
	limiter, err := NewFixedWindowLimiter(client, "test:ratelimit", 2, time.Second)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	if !limiter.Allow("ip-1") {
		t.Fatalf("first request should pass")
	}
	if !limiter.Allow("ip-1") {
		t.Fatalf("second request should pass")
	}
	if limiter.Allow("ip-1") {
		t.Fatalf("third request should be blocked")
	}
	if !limiter.Allow("ip-2") {
		t.Fatalf("different key should have its own quota")
	}
}

func TestFixedWindowLimiterFailsClosed(t *testing.T) {
	mr, client := testClient(t)
	limiter, err := NewFixedWindowLimiter(client, "test:ratelimit", 1, time.Second)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	mr.Close()
	if limiter.Allow("ip-1") {
		t.Fatalf("limiter should fail closed on redis errors")
	}
}

func TestFixedWindowLimiterValidation(t *testing.T) {
	_, client := testClient(t)
	if _, err := NewFixedWindowLimiter(client, "p", 0, time.Second); err == nil {
		t.Fatal("zero limit should be rejected")
	}
	if _, err := NewFixedWindowLimiter(nil, "p", 1, time.Second); err == nil {
		t.Fatal("nil client should be rejected")
	}
}
