package store

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRevoker tracks revoked token IDs until they would have expired
// anyway. Revoke is an atomic claim: it reports whether this call was the
// one that revoked the ID, so concurrent replays of a single-use token
// resolve to exactly one winner. The auth gate consults IsRevoked on every
// verified token.
type TokenRevoker interface {
	Revoke(jti string, ttl time.Duration) (bool, error)
	IsRevoked(jti string) (bool, error)
}

// MemoryTokenRevoker keeps revoked token IDs in-memory (single instance only).
type MemoryTokenRevoker struct {
	mu     sync.Mutex
	tokens map[string]time.Time
}

// NewMemoryTokenRevoker builds an in-memory revoker.
func NewMemoryTokenRevoker() *MemoryTokenRevoker {
	return &MemoryTokenRevoker{
		tokens: make(map[string]time.Time),
	}
}

// Revoke marks the token ID as revoked for ttl. It returns false when the
// ID was already revoked.
func (r *MemoryTokenRevoker) Revoke(jti string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if expiry, ok := r.tokens[jti]; ok && time.Now().Before(expiry) {
		return false, nil
	}
	r.tokens[jti] = time.Now().Add(ttl)
	return true, nil
}

// IsRevoked reports whether the token ID is currently revoked.
func (r *MemoryTokenRevoker) IsRevoked(jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	expiry, ok := r.tokens[jti]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(r.tokens, jti)
		return false, nil
	}
	return true, nil
}

// RedisTokenRevoker stores revoked token IDs in Redis with TTL, shared
// across instances.
type RedisTokenRevoker struct {
	client *redis.Client
}

// NewRedisTokenRevoker builds a Redis-backed revoker.
func NewRedisTokenRevoker(client *redis.Client) *RedisTokenRevoker {
	return &RedisTokenRevoker{client: client}
}

// Revoke marks the token ID as revoked for ttl. SETNX makes the claim
// atomic across instances; false means some other call got there first.
func (r *RedisTokenRevoker) Revoke(jti string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return r.client.SetNX(ctx, revocationKey(jti), "1", ttl).Result()
}

// IsRevoked reports whether the token ID is currently revoked.
func (r *RedisTokenRevoker) IsRevoked(jti string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	res, err := r.client.Exists(ctx, revocationKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return res > 0, nil
}

func revocationKey(jti string) string {
	return "stayhub:revoked:" + jti
}
