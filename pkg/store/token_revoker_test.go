package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryTokenRevoker(t *testing.T) {
	r := NewMemoryTokenRevoker()

	revoked, err := r.IsRevoked("jti-1")
	if err != nil || revoked {
		t.Fatalf("fresh jti: revoked=%v err=%v", revoked, err)
	}
	claimed, err := r.Revoke("jti-1", time.Minute)
	if err != nil || !claimed {
		t.Fatalf("revoke: claimed=%v err=%v", claimed, err)
	}
	revoked, err = r.IsRevoked("jti-1")
	if err != nil || !revoked {
		t.Fatalf("after revoke: revoked=%v err=%v", revoked, err)
	}
	// a second revoke of a live jti is not a fresh claim
	claimed, err = r.Revoke("jti-1", time.Minute)
	if err != nil || claimed {
		t.Fatalf("repeat revoke: claimed=%v err=%v", claimed, err)
	}

	// zero and negative TTLs are no-ops
	claimed, err = r.Revoke("jti-2", 0)
	if err != nil || claimed {
		t.Fatalf("revoke zero ttl: claimed=%v err=%v", claimed, err)
	}
	revoked, _ = r.IsRevoked("jti-2")
	if revoked {
		t.Fatal("zero-ttl revoke should not stick")
	}

	if _, err := r.Revoke("jti-3", time.Millisecond); err != nil {
		t.Fatalf("revoke short ttl: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	revoked, _ = r.IsRevoked("jti-3")
	if revoked {
		t.Fatal("expired revocation should not report revoked")
	}
	// once the old entry has lapsed the jti can be claimed again
	claimed, err = r.Revoke("jti-3", time.Minute)
	if err != nil || !claimed {
		t.Fatalf("reclaim after expiry: claimed=%v err=%v", claimed, err)
	}
}

func TestRedisTokenRevoker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r := NewRedisTokenRevoker(client)

	claimed, err := r.Revoke("jti-1", time.Minute)
	if err != nil || !claimed {
		t.Fatalf("revoke: claimed=%v err=%v", claimed, err)
	}
	claimed, err = r.Revoke("jti-1", time.Minute)
	if err != nil || claimed {
		t.Fatalf("repeat revoke: claimed=%v err=%v", claimed, err)
	}
	revoked, err := r.IsRevoked("jti-1")
	if err != nil || !revoked {
		t.Fatalf("after revoke: revoked=%v err=%v", revoked, err)
	}

	mr.FastForward(2 * time.Minute)
	revoked, err = r.IsRevoked("jti-1")
	if err != nil || revoked {
		t.Fatalf("after expiry: revoked=%v err=%v", revoked, err)
	}
	claimed, err = r.Revoke("jti-1", time.Minute)
	if err != nil || !claimed {
		t.Fatalf("reclaim after expiry: claimed=%v err=%v", claimed, err)
	}
}
