package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dbicalho1/rate-my-landlord/internal/app"
	"github.com/dbicalho1/rate-my-landlord/internal/auth"
	"github.com/dbicalho1/rate-my-landlord/internal/domain"
	"github.com/dbicalho1/rate-my-landlord/internal/ratelimit"
	"github.com/dbicalho1/rate-my-landlord/internal/util"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App

	AllowedOrigins []string

	// Redis-backed per-IP limits for the auth endpoints. Left unconfigured
	// (empty RedisAddr) the endpoints are unlimited.
	RedisAddr                string
	RedisPassword            string
	SignupRateLimitPerMinute int
	LoginRateLimitPerMinute  int
	TrustedProxyCIDRs        []string
}

// Server exposes the review API over HTTP.
type Server struct {
	app            *app.App
	mux            *http.ServeMux
	allowedOrigins []string
	trustedProxies *util.TrustedProxies
	signupLimiter  *ratelimit.FixedWindowLimiter
	loginLimiter   *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("app is required")
	}
	trusted, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		return nil, fmt.Errorf("parse trusted proxies: %w", err)
	}

	var signupLimiter, loginLimiter *ratelimit.FixedWindowLimiter
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		signupLimit := cfg.SignupRateLimitPerMinute
		if signupLimit <= 0 {
			signupLimit = 5
		}
		loginLimit := cfg.LoginRateLimitPerMinute
		if loginLimit <= 0 {
			loginLimit = 10
		}
		signupLimiter, err = ratelimit.NewFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "rml:ratelimit:signup", signupLimit, time.Minute)
		if err != nil {
			return nil, fmt.Errorf("init signup limiter: %w", err)
		}
		loginLimiter, err = ratelimit.NewFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "rml:ratelimit:login", loginLimit, time.Minute)
		if err != nil {
			return nil, fmt.Errorf("init login limiter: %w", err)
		}
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	s := &Server{
		app:            cfg.App,
		mux:            http.NewServeMux(),
		allowedOrigins: origins,
		trustedProxies: trusted,
		signupLimiter:  signupLimiter,
		loginLimiter:   loginLimiter,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler with the middleware chain applied.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithCORS(s.allowedOrigins, s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	s.mux.HandleFunc("/signup", s.handleSignup)
	s.mux.HandleFunc("/login", s.handleLogin)
	s.mux.Handle("/me", s.authenticated(s.handleMe))

	s.mux.HandleFunc("/reviews", s.handleReviews)
	s.mux.Handle("/my-reviews", s.authenticated(s.handleMyReviews))

	s.mux.Handle("/bookmarks", s.authenticated(s.handleBookmarks))
	s.mux.Handle("/bookmarks/", s.authenticated(s.handleBookmarkByReviewID))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authorize(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) authorize(r *http.Request) (domain.User, bool) {
	token, ok := bearerToken(r)
	if !ok {
		return domain.User{}, false
	}
	return s.app.UserFromToken(token)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.signupLimiter, "too many signup attempts") {
		return
	}
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, token, err := s.app.SignUp(req.Email, req.Password)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.loginLimiter, "too many login attempts") {
		return
	}
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, token, err := s.app.Login(req.Email, req.Password)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, user)
	case http.MethodDelete:
		if err := s.app.DeleteAccount(user.ID); err != nil {
			writeAppError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleReviews(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		// Listing is public; a bearer token only adds bookmark decoration.
		viewerID := ""
		if user, ok := s.authorize(r); ok {
			viewerID = user.ID
		}
		views, err := s.app.ListReviews(viewerID, queryLimit(r))
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, views)
	case http.MethodPost:
		s.authenticated(s.handleSubmitReview).ServeHTTP(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request, user domain.User) {
	var input app.ReviewInput
	if !decodeJSON(w, r, &input) {
		return
	}
	view, err := s.app.SubmitReview(r.Context(), user, input)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleMyReviews(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	views, err := s.app.ListMyReviews(user)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

type bookmarkRequest struct {
	ReviewID string `json:"reviewId"`
}

func (s *Server) handleBookmarks(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		views, err := s.app.ListBookmarks(user)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, views)
	case http.MethodPost:
		var req bookmarkRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.ReviewID) == "" {
			writeError(w, http.StatusBadRequest, "reviewId is required")
			return
		}
		view, err := s.app.CreateBookmark(user, req.ReviewID)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, view)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleBookmarkByReviewID(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	reviewID := strings.TrimPrefix(r.URL.Path, "/bookmarks/")
	if reviewID == "" || strings.Contains(reviewID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err := s.app.DeleteBookmark(user, reviewID); err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, msg string) bool {
	if limiter.Allow(util.ClientIP(r, s.trustedProxies)) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

func queryLimit(r *http.Request) int {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return limit
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAppError maps application errors to HTTP responses. Validation
// failures carry per-field detail, throttle denials carry the retry window,
// everything unrecognized is a 500 with the detail kept server-side.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *app.ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation failed",
			"fields": vErr.Fields,
		})
		return
	}
	var rlErr *app.RateLimitError
	if errors.As(err, &rlErr) {
		w.Header().Set("Retry-After", strconv.Itoa(rlErr.RetryAfterSeconds))
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":      rlErr.Error(),
			"retryAfter": rlErr.RetryAfterSeconds,
		})
		return
	}

	switch {
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrEmailAndPasswordRequired),
		errors.Is(err, app.ErrInvalidEmail),
		errors.Is(err, app.ErrEmailAlreadyExists),
		errors.Is(err, app.ErrBookmarkExists),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrPasswordTooLong):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrReviewNotFound),
		errors.Is(err, app.ErrBookmarkNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		util.LoggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
