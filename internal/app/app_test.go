package app

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dbicalho1/rate-my-landlord/internal/domain"
	"github.com/dbicalho1/rate-my-landlord/internal/ratelimit"
	"github.com/dbicalho1/rate-my-landlord/internal/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	app     *App
	store   *store.MemoryStore
	clock   *fakeClock
	limiter *ratelimit.SubmissionLimiter
}

func newTestApp(t *testing.T, opts ...func(*Config)) *testEnv {
	t.Helper()
	clock := newFakeClock()
	limiter := ratelimit.NewSubmissionLimiter(60*time.Second, false, ratelimit.WithClock(clock.Now))
	memStore := store.NewMemoryStore()
	cfg := Config{
		Store:    memStore,
		Sessions: store.NewJWTSessionStore("test-secret", time.Hour),
		Limiter:  limiter,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return &testEnv{app: a, store: memStore, clock: clock, limiter: limiter}
}

func signUpTestUser(t *testing.T, a *App, email string) domain.User {
	t.Helper()
	user, _, err := a.SignUp(email, "longenough")
	if err != nil {
		t.Fatalf("sign up %s: %v", email, err)
	}
	return user
}

func TestSignUpAndLogin(t *testing.T) {
	env := newTestApp(t)

	user, token, err := env.app.SignUp("Renter@Example.com", "longenough")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if user.Email != "renter@example.com" {
		t.Fatalf("email should be normalized, got %q", user.Email)
	}
	if token == "" {
		t.Fatalf("expected a session token")
	}

	resolved, ok := env.app.UserFromToken(token)
	if !ok || resolved.ID != user.ID {
		t.Fatalf("token should resolve to the new user")
	}

	if _, _, err := env.app.SignUp("renter@example.com", "longenough"); err != ErrEmailAlreadyExists {
		t.Fatalf("duplicate signup err = %v, want ErrEmailAlreadyExists", err)
	}
	if _, _, err := env.app.SignUp("not-an-email", "longenough"); err != ErrInvalidEmail {
		t.Fatalf("bad email err = %v, want ErrInvalidEmail", err)
	}
	if _, _, err := env.app.SignUp("other@example.com", "short"); err == nil {
		t.Fatalf("short password should be rejected")
	}

	if _, _, err := env.app.Login("renter@example.com", "wrong-password"); err != ErrInvalidCredentials {
		t.Fatalf("bad password err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := env.app.Login("nobody@example.com", "longenough"); err != ErrInvalidCredentials {
		t.Fatalf("unknown email err = %v, want ErrInvalidCredentials", err)
	}
	loggedIn, token2, err := env.app.Login("renter@example.com", "longenough")
	if err != nil || loggedIn.ID != user.ID || token2 == "" {
		t.Fatalf("login: user=%+v token=%q err=%v", loggedIn, token2, err)
	}
}

func TestDeleteAccountCascades(t *testing.T) {
	env := newTestApp(t)
	user := signUpTestUser(t, env.app, "renter@example.com")

	view := submitValidReview(t, env, user)
	if err := env.app.DeleteAccount(user.ID); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if _, ok := env.app.UserFromToken("ignored"); ok {
		t.Fatalf("no token should resolve after deletion")
	}
	if _, found, _ := env.store.GetReview(view.ID); found {
		t.Fatalf("owned review should be gone")
	}
}

func TestUserFromTokenRejectsUnknownUser(t *testing.T) {
	env := newTestApp(t)
	sessions := store.NewJWTSessionStore("test-secret", time.Hour)
	token, err := sessions.NewSession("ghost-user")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok := env.app.UserFromToken(token); ok {
		t.Fatalf("token for a nonexistent user must not authenticate")
	}
}

func TestNewRequiresStorageAndSecret(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error without database URL or store")
	}
	if _, err := New(Config{Store: store.NewMemoryStore()}); err == nil {
		t.Fatalf("expected error without jwt secret or session store")
	}
}

var errStorageDown = errors.New("storage down")
