package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	defaultIssuer     = "stayhub-api"
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour
	defaultLeeway     = 30 * time.Second
)

// ErrInvalidToken covers every verification failure: malformed input, bad
// signature, expired claims, wrong issuer, or a token of the wrong kind.
var ErrInvalidToken = errors.New("invalid token")

// Kind distinguishes short-lived access tokens from long-lived refresh
// tokens. A token of one kind never verifies as the other.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the verified view of a token handed back to callers.
type Claims struct {
	Subject   string
	Kind      Kind
	ID        string
	ExpiresAt time.Time
}

type signedClaims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// Config configures the token service. Secret is the single static HS256
// signing key; key rotation is out of scope.
type Config struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Leeway     time.Duration
}

// Service issues and verifies access and refresh JWTs. It performs no I/O;
// verification is pure computation against the configured key.
type Service struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	leeway     time.Duration
}

// New builds a token service from explicit configuration.
func New(cfg Config) (*Service, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token service requires a signing secret")
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = defaultIssuer
	}
	accessTTL := cfg.AccessTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	leeway := cfg.Leeway
	if leeway <= 0 {
		leeway = defaultLeeway
	}
	return &Service{
		secret:     cfg.Secret,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		leeway:     leeway,
	}, nil
}

// AccessTTL returns the configured access token lifetime.
func (s *Service) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccess mints a short-lived access token for the user.
func (s *Service) IssueAccess(userID string) (string, error) {
	return s.issue(userID, KindAccess, s.accessTTL)
}

// IssueRefresh mints a long-lived refresh token for the user.
func (s *Service) IssueRefresh(userID string) (string, error) {
	return s.issue(userID, KindRefresh, s.refreshTTL)
}

func (s *Service) issue(userID string, kind Kind, ttl time.Duration) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("token subject is required")
	}
	now := time.Now().UTC()
	claims := signedClaims{
		Kind: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        randomHexID(12),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify validates the token and requires it to be of the given kind.
func (s *Service) Verify(token string, kind Kind) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrInvalidToken
	}
	claims := signedClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.leeway),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Kind != string(kind) {
		return Claims{}, ErrInvalidToken
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return Claims{}, ErrInvalidToken
	}
	out := Claims{
		Subject: subject,
		Kind:    kind,
		ID:      claims.ID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func randomHexID(nBytes int) string {
	buf := make([]byte, nBytes)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
