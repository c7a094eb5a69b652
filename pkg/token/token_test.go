package token

import (
	"errors"
	"testing"
	"time"
)

func newTestService(t *testing.T, cfg Config) *Service {
	t.Helper()
	if cfg.Secret == nil {
		cfg.Secret = []byte("test-secret-key")
	}
	svc, err := New(cfg)
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}
	return svc
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestService(t, Config{})

	tok, err := svc.IssueAccess("user-42")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	claims, err := svc.Verify(tok, KindAccess)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if claims.Subject != "user-42" {
		t.Fatalf("expected subject user-42, got %q", claims.Subject)
	}
	if claims.ID == "" {
		t.Fatalf("expected a token id")
	}
	if !claims.ExpiresAt.After(time.Now()) {
		t.Fatalf("expected future expiry, got %v", claims.ExpiresAt)
	}
}

func TestVerifyRejectsWrongKind(t *testing.T) {
	svc := newTestService(t, Config{})

	access, err := svc.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	refresh, err := svc.IssueRefresh("user-1")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	if _, err := svc.Verify(access, KindRefresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token accepted as refresh: %v", err)
	}
	if _, err := svc.Verify(refresh, KindAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token accepted as access: %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := newTestService(t, Config{
		AccessTTL: time.Millisecond,
		Leeway:    time.Millisecond,
	})
	tok, err := svc.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := svc.Verify(tok, KindAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func TestVerifyRejectsCorruptedToken(t *testing.T) {
	svc := newTestService(t, Config{})
	tok, err := svc.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	corrupted := tok[:len(tok)-4] + "XXXX"
	if _, err := svc.Verify(corrupted, KindAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected corrupted token to fail, got %v", err)
	}
	if _, err := svc.Verify("not.a.jwt", KindAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected malformed token to fail, got %v", err)
	}
	if _, err := svc.Verify("", KindAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected empty token to fail, got %v", err)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	issuerSvc := newTestService(t, Config{Secret: []byte("key-one")})
	verifySvc := newTestService(t, Config{Secret: []byte("key-two")})

	tok, err := issuerSvc.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	if _, err := verifySvc.Verify(tok, KindAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected foreign signature to fail, got %v", err)
	}
}
