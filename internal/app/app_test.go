package app

import (
	"errors"
	"sync"
	"testing"
	"time"

	"stayhub/pkg/domain"
	"stayhub/pkg/store"
	"stayhub/pkg/token"
)

func newTestApp(t *testing.T) (*App, *store.MemoryStore) {
	t.Helper()
	tokens, err := token.New(token.Config{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
	})
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	st := store.NewMemoryStore()
	return New(st, tokens, store.NewMemoryTokenRevoker()), st
}

func TestRegisterFirstUserIsAdmin(t *testing.T) {
	a, _ := newTestApp(t)

	first, pair, err := a.Register("Admin@Example.com", "password123")
	if err != nil {
		t.Fatalf("register first: %v", err)
	}
	if first.Role != domain.RoleAdmin {
		t.Fatalf("first user role = %s, want admin", first.Role)
	}
	if first.Email != "admin@example.com" {
		t.Fatalf("email not normalized: %q", first.Email)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatal("expected both tokens issued")
	}

	second, _, err := a.Register("user@example.com", "password123")
	if err != nil {
		t.Fatalf("register second: %v", err)
	}
	if second.Role != domain.RoleUser {
		t.Fatalf("second user role = %s, want user", second.Role)
	}
}

func TestRegisterValidation(t *testing.T) {
	a, _ := newTestApp(t)
	if _, _, err := a.Register("not-an-email", "password123"); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad email: got %v", err)
	}
	if _, _, err := a.Register("ok@example.com", "short"); !errors.Is(err, ErrValidation) {
		t.Fatalf("short password: got %v", err)
	}
	if _, _, err := a.Register("dup@example.com", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := a.Register("dup@example.com", "password123"); !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("duplicate email: got %v", err)
	}
}

func TestLoginDoesNotRevealWhichFieldWasWrong(t *testing.T) {
	a, _ := newTestApp(t)
	if _, _, err := a.Register("user@example.com", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := a.Login("missing@example.com", "password123"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown email: got %v", err)
	}
	if _, _, err := a.Login("user@example.com", "wrongpassword"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("wrong password: got %v", err)
	}
	user, pair, err := a.Login("USER@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Email != "user@example.com" || pair.Access == "" {
		t.Fatalf("login result: %+v", user)
	}
}

func TestAccessTokenGate(t *testing.T) {
	a, st := newTestApp(t)
	user, pair, err := a.Register("user@example.com", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := a.UserFromAccessToken(pair.Access)
	if err != nil || got.ID != user.ID {
		t.Fatalf("gate: %v %+v", err, got)
	}

	// refresh token must not pass the access gate
	if _, err := a.UserFromAccessToken(pair.Refresh); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("refresh through access gate: got %v", err)
	}
	if _, err := a.UserFromAccessToken("garbage"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("garbage token: got %v", err)
	}

	// a valid token whose user was deleted is rejected
	if err := st.DeleteUser(user.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := a.UserFromAccessToken(pair.Access); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("deleted user: got %v", err)
	}
}

func TestLogoutRevokesTokens(t *testing.T) {
	a, _ := newTestApp(t)
	_, pair, err := a.Register("user@example.com", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := a.Logout(pair.Access, pair.Refresh); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := a.UserFromAccessToken(pair.Access); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("revoked access token: got %v", err)
	}
	if _, _, err := a.Refresh(pair.Refresh); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("revoked refresh token: got %v", err)
	}
	// logging out with junk tokens is not an error
	if err := a.Logout("junk", ""); err != nil {
		t.Fatalf("logout junk: %v", err)
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	a, _ := newTestApp(t)
	user, pair, err := a.Register("user@example.com", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, next, err := a.Refresh(pair.Refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("refresh user: %+v", got)
	}
	if next.Access == "" || next.Refresh == "" {
		t.Fatal("expected new pair")
	}

	// the old refresh token is spent
	if _, _, err := a.Refresh(pair.Refresh); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("replayed refresh: got %v", err)
	}
	// the new one works
	if _, _, err := a.Refresh(next.Refresh); err != nil {
		t.Fatalf("new refresh: %v", err)
	}
}

func TestConcurrentRefreshSingleWinner(t *testing.T) {
	a, _ := newTestApp(t)
	_, pair, err := a.Register("user@example.com", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	const workers = 16
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := a.Refresh(pair.Refresh)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	winners := 0
	for err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, ErrUnauthenticated):
		default:
			t.Fatalf("unexpected refresh error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("wanted exactly one successful refresh, got %d", winners)
	}
}

func TestChangePassword(t *testing.T) {
	a, _ := newTestApp(t)
	user, _, err := a.Register("user@example.com", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := a.ChangePassword(user.ID, "wrong", "newpassword1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong current password: got %v", err)
	}
	if err := a.ChangePassword(user.ID, "password123", "short"); !errors.Is(err, ErrValidation) {
		t.Fatalf("weak new password: got %v", err)
	}
	if err := a.ChangePassword(user.ID, "password123", "password123"); !errors.Is(err, ErrValidation) {
		t.Fatalf("reused password: got %v", err)
	}
	if err := a.ChangePassword(user.ID, "password123", "newpassword1"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, _, err := a.Login("user@example.com", "newpassword1"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, _, err := a.Login("user@example.com", "password123"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("login with old password: got %v", err)
	}
}

func TestUpdateRoleAndDeleteGuards(t *testing.T) {
	a, _ := newTestApp(t)
	admin, _, err := a.Register("admin@example.com", "password123")
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}
	user, _, err := a.Register("user@example.com", "password123")
	if err != nil {
		t.Fatalf("register user: %v", err)
	}

	promoted, err := a.UpdateRole(admin, user.ID, domain.RoleAdmin)
	if err != nil || promoted.Role != domain.RoleAdmin {
		t.Fatalf("promote: %v %+v", err, promoted)
	}
	if _, err := a.UpdateRole(admin, admin.ID, domain.RoleUser); !errors.Is(err, ErrForbidden) {
		t.Fatalf("self demotion: got %v", err)
	}
	if _, err := a.UpdateRole(admin, user.ID, "owner"); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown role: got %v", err)
	}

	if err := a.DeleteUser(admin, admin.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("self delete: got %v", err)
	}
	if err := a.DeleteUser(admin, user.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if err := a.DeleteUser(admin, user.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("delete twice: got %v", err)
	}
}

func TestInactiveUserIsLockedOut(t *testing.T) {
	a, st := newTestApp(t)
	user, pair, err := a.Register("user@example.com", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	user.Active = false
	user.UpdatedAt = time.Now().UTC()
	if err := st.UpdateUser(user); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if _, _, err := a.Login("user@example.com", "password123"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("login inactive: got %v", err)
	}
	if _, err := a.UserFromAccessToken(pair.Access); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("gate inactive: got %v", err)
	}
	if _, _, err := a.Refresh(pair.Refresh); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("refresh inactive: got %v", err)
	}
}
