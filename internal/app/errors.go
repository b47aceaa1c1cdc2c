package app

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidCredentials is shown to end users and deliberately does not
	// reveal whether the email exists.
	ErrInvalidCredentials = errors.New("Incorrect email address or password")

	ErrEmailAndPasswordRequired = errors.New("email and password required")
	ErrInvalidEmail             = errors.New("invalid email address")
	ErrEmailAlreadyExists       = errors.New("email already registered")

	ErrReviewNotFound   = errors.New("review not found")
	ErrBookmarkExists   = errors.New("review already bookmarked")
	ErrBookmarkNotFound = errors.New("bookmark not found")
)

// ValidationError reports schema-level input problems with per-field detail.
// It is produced before any side effect occurs.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

// RateLimitError is routine backpressure from the submission throttle, not an
// application fault. RetryAfterSeconds is always at least 1.
type RateLimitError struct {
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("Review submissions limited to one per minute. Try again in %d seconds.", e.RetryAfterSeconds)
}
