package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dbicalho1/rate-my-landlord/internal/auth"
	"github.com/dbicalho1/rate-my-landlord/internal/domain"
	"github.com/dbicalho1/rate-my-landlord/internal/geocode"
	"github.com/dbicalho1/rate-my-landlord/internal/ratelimit"
	"github.com/dbicalho1/rate-my-landlord/internal/store"
	"github.com/dbicalho1/rate-my-landlord/internal/util"
)

// Geocoder resolves a free-text address to coordinates, best-effort.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (geocode.Location, bool, error)
}

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL string
	JWTSecret   string
	SessionTTL  time.Duration

	Store    store.Store
	Sessions store.SessionStore
	Limiter  *ratelimit.SubmissionLimiter
	Geocoder Geocoder
}

// App wires storage, sessions, the submission throttle, and geocoding into
// the application service behind the HTTP layer.
type App struct {
	store    store.Store
	sessions store.SessionStore
	limiter  *ratelimit.SubmissionLimiter
	geocoder Geocoder
}

// New constructs the application. The limiter is owned here: one instance
// per process, created at startup and shared by reference.
func New(cfg Config) (*App, error) {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = time.Hour
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		if strings.TrimSpace(cfg.JWTSecret) == "" {
			return nil, fmt.Errorf("jwtSecret is required")
		}
		sessionStore = store.NewJWTSessionStore(cfg.JWTSecret, cfg.SessionTTL)
	}

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.NewSubmissionLimiter(60*time.Second, false)
	}

	return &App{
		store:    dataStore,
		sessions: sessionStore,
		limiter:  limiter,
		geocoder: cfg.Geocoder,
	}, nil
}

// SignUp registers a new user and issues a session token.
func (a *App) SignUp(email, password string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return domain.User{}, "", ErrEmailAndPasswordRequired
	}
	if !strings.Contains(email, "@") {
		return domain.User{}, "", ErrInvalidEmail
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.User{}, "", err
	}
	exists, err := a.store.HasUserEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.User{}, "", ErrEmailAlreadyExists
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           util.NewID(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.store.SaveUser(user); err != nil {
		// Two concurrent signups can both pass the pre-check; the unique
		// index decides.
		if err == store.ErrDuplicateKey {
			return domain.User{}, "", ErrEmailAlreadyExists
		}
		return domain.User{}, "", fmt.Errorf("save user: %w", err)
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue session token: %w", err)
	}
	return user, token, nil
}

// Login validates credentials and issues a session token.
func (a *App) Login(email, password string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return domain.User{}, "", ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue session token: %w", err)
	}
	return user, token, nil
}

// UserFromToken resolves a user from a session token.
func (a *App) UserFromToken(token string) (domain.User, bool) {
	uid, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(uid)
	if err != nil || !found {
		return domain.User{}, false
	}
	return user, true
}

// DeleteAccount removes the user and all owned reviews and bookmarks.
func (a *App) DeleteAccount(userID string) error {
	if err := a.store.DeleteUser(userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
