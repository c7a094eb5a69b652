package app

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"stayhub/pkg/auth"
	"stayhub/pkg/domain"
	"stayhub/pkg/store"
	"stayhub/pkg/token"
)

// App implements the application operations on top of the store and the
// token service.
type App struct {
	store   store.Store
	tokens  *token.Service
	revoker store.TokenRevoker
}

// New builds an App.
func New(st store.Store, tokens *token.Service, revoker store.TokenRevoker) *App {
	return &App{store: st, tokens: tokens, revoker: revoker}
}

// TokenPair carries freshly issued access and refresh tokens.
type TokenPair struct {
	Access  string
	Refresh string
}

// Register creates a user and issues a token pair. The very first
// registered user becomes an admin.
func (a *App) Register(email, password string) (domain.User, TokenPair, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return domain.User{}, TokenPair{}, err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.User{}, TokenPair{}, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	// Count-then-create is not serialized: two racing first registrations
	// can both land as admin.
	role := domain.RoleUser
	count, err := a.store.CountUsers()
	if err != nil {
		return domain.User{}, TokenPair{}, fmt.Errorf("count users: %w", err)
	}
	if count == 0 {
		role = domain.RoleAdmin
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.CreateUser(user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, TokenPair{}, ErrEmailAlreadyExists
		}
		return domain.User{}, TokenPair{}, fmt.Errorf("create user: %w", err)
	}
	pair, err := a.issuePair(user.ID)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	slog.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, pair, nil
}

// Login verifies credentials and issues a token pair. Both an unknown email
// and a wrong password come back as ErrUserNotFound, so the response does
// not reveal which of the two was wrong.
func (a *App) Login(email, password string) (domain.User, TokenPair, error) {
	email = normalizeEmail(email)
	user, err := a.store.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, TokenPair{}, ErrUserNotFound
		}
		return domain.User{}, TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}
	if !user.Active {
		return domain.User{}, TokenPair{}, ErrUserNotFound
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, TokenPair{}, ErrUserNotFound
	}
	pair, err := a.issuePair(user.ID)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a new pair. The presented
// token's ID is claimed in the revocation list before anything is issued,
// so of any number of concurrent replays exactly one wins.
func (a *App) Refresh(refreshToken string) (domain.User, TokenPair, error) {
	claims, err := a.tokens.Verify(refreshToken, token.KindRefresh)
	if err != nil {
		return domain.User{}, TokenPair{}, ErrUnauthenticated
	}
	claimed, err := a.revoker.Revoke(claims.ID, revocationTTL(claims.ExpiresAt))
	if err != nil {
		return domain.User{}, TokenPair{}, fmt.Errorf("claim refresh token: %w", err)
	}
	if !claimed {
		return domain.User{}, TokenPair{}, ErrUnauthenticated
	}
	user, err := a.store.GetUserByID(claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, TokenPair{}, ErrUnauthenticated
		}
		return domain.User{}, TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}
	if !user.Active {
		return domain.User{}, TokenPair{}, ErrUnauthenticated
	}
	pair, err := a.issuePair(user.ID)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// revocationTTL keeps the revocation alive at least as long as verification
// leeway could keep the token valid.
func revocationTTL(expiresAt time.Time) time.Duration {
	ttl := time.Until(expiresAt)
	if ttl < time.Minute {
		ttl = time.Minute
	}
	return ttl
}

// Logout revokes both presented tokens for their remaining lifetime.
// Invalid or absent tokens are ignored so logout always succeeds.
func (a *App) Logout(accessToken, refreshToken string) error {
	for _, entry := range []struct {
		raw  string
		kind token.Kind
	}{
		{accessToken, token.KindAccess},
		{refreshToken, token.KindRefresh},
	} {
		if entry.raw == "" {
			continue
		}
		claims, err := a.tokens.Verify(entry.raw, entry.kind)
		if err != nil {
			continue
		}
		if _, err := a.revoker.Revoke(claims.ID, revocationTTL(claims.ExpiresAt)); err != nil {
			return fmt.Errorf("revoke token: %w", err)
		}
	}
	return nil
}

// UserFromAccessToken is the authentication gate: it verifies the access
// token, consults the revocation list, and loads the live user record.
func (a *App) UserFromAccessToken(raw string) (domain.User, error) {
	claims, err := a.tokens.Verify(raw, token.KindAccess)
	if err != nil {
		return domain.User{}, ErrUnauthenticated
	}
	revoked, err := a.revoker.IsRevoked(claims.ID)
	if err != nil {
		return domain.User{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return domain.User{}, ErrUnauthenticated
	}
	user, err := a.store.GetUserByID(claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Token outlived its user.
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !user.Active {
		return domain.User{}, ErrUnauthenticated
	}
	return user, nil
}

// ChangePassword verifies the current password and stores a new hash.
func (a *App) ChangePassword(userID, current, next string) error {
	user, err := a.store.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if !auth.CheckPassword(current, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	if next == current {
		return fmt.Errorf("%w: new password must differ from the current one", ErrValidation)
	}
	if err := auth.ValidatePassword(next); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()
	if err := a.store.UpdateUser(user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// UpdateRole sets a user's role. Admins cannot demote themselves, which
// keeps at least one admin around.
func (a *App) UpdateRole(actor domain.User, userID string, role domain.UserRole) (domain.User, error) {
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return domain.User{}, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	if actor.ID == userID && role != domain.RoleAdmin {
		return domain.User{}, ErrForbidden
	}
	user, err := a.store.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	user.Role = role
	user.UpdatedAt = time.Now().UTC()
	if err := a.store.UpdateUser(user); err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	slog.Info("role updated", "user_id", user.ID, "role", role, "actor_id", actor.ID)
	return user, nil
}

// DeleteUser removes a user. Admins cannot delete themselves.
func (a *App) DeleteUser(actor domain.User, userID string) error {
	if actor.ID == userID {
		return ErrForbidden
	}
	if err := a.store.DeleteUser(userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// GetUser returns a user by ID.
func (a *App) GetUser(userID string) (domain.User, error) {
	user, err := a.store.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

// ListUsers returns a page of users.
func (a *App) ListUsers(limit, offset int) ([]domain.User, error) {
	return a.store.ListUsers(limit, offset)
}

// AccessTTL exposes the access token lifetime for cookie expiry.
func (a *App) AccessTTL() time.Duration { return a.tokens.AccessTTL() }

// RefreshTTL exposes the refresh token lifetime for cookie expiry.
func (a *App) RefreshTTL() time.Duration { return a.tokens.RefreshTTL() }

func (a *App) issuePair(userID string) (TokenPair, error) {
	access, err := a.tokens.IssueAccess(userID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := a.tokens.IssueRefresh(userID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" || !strings.Contains(email, "@") || strings.ContainsAny(email, " \t") {
		return fmt.Errorf("%w: invalid email", ErrValidation)
	}
	return nil
}
