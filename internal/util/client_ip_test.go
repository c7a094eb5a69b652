package util

import (
	"net/http/httptest"
	"testing"
)

func TestClientIPWithoutTrustedProxies(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:4411"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")

	if got := ClientIP(r, nil); got != "203.0.113.7" {
		t.Fatalf("forwarded header should be ignored, got %q", got)
	}
}

func TestClientIPBehindTrustedProxy(t *testing.T) {
	trusted, err := NewTrustedProxies([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatalf("parse proxies: %v", err)
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.1.2.3:9000"
	r.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.9")

	if got := ClientIP(r, trusted); got != "198.51.100.1" {
		t.Fatalf("want first untrusted hop, got %q", got)
	}
}

func TestNewTrustedProxiesRejectsGarbage(t *testing.T) {
	if _, err := NewTrustedProxies([]string{"not-an-ip"}); err == nil {
		t.Fatal("expected parse error")
	}
	tp, err := NewTrustedProxies(nil)
	if err != nil || tp != nil {
		t.Fatalf("empty input: tp=%v err=%v", tp, err)
	}
}
