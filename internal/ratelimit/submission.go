package ratelimit

import (
	"sync"
	"time"
)

// SubmissionLimiter enforces at most one accepted review submission per user
// inside a rolling window. State is an in-process map of each user's last
// accepted submission time, guarded by one lock; entries are never evicted,
// so the map grows with the number of distinct submitting users.
type SubmissionLimiter struct {
	window   time.Duration
	disabled bool
	now      func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// SubmissionOption customizes a SubmissionLimiter.
type SubmissionOption func(*SubmissionLimiter)

// WithClock substitutes the time source, for tests with synthetic clocks.
func WithClock(now func() time.Time) SubmissionOption {
	return func(l *SubmissionLimiter) {
		if now != nil {
			l.now = now
		}
	}
}

// NewSubmissionLimiter builds a limiter for the given window. A disabled
// limiter (or a zero window) allows everything and records nothing.
func NewSubmissionLimiter(window time.Duration, disabled bool, opts ...SubmissionOption) *SubmissionLimiter {
	l := &SubmissionLimiter{
		window:   window,
		disabled: disabled,
		now:      func() time.Time { return time.Now().UTC() },
		last:     make(map[string]time.Time),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

func (l *SubmissionLimiter) active() bool {
	return !l.disabled && l.window > 0
}

// Check reports whether the user may submit now. When denied, retryAfter is
// the whole seconds the user must still wait, rounded up with a floor of 1.
func (l *SubmissionLimiter) Check(userID string) (allowed bool, retryAfter int) {
	if !l.active() {
		return true, 0
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	last, ok := l.last[userID]
	if !ok {
		return true, 0
	}
	elapsed := now.Sub(last)
	if elapsed >= l.window {
		return true, 0
	}
	return false, int((l.window - elapsed).Seconds()) + 1
}

// Record stamps the user's last accepted submission time. Callers invoke it
// only after the review has been persisted, so a failed write never consumes
// the user's window. A disabled limiter records nothing.
func (l *SubmissionLimiter) Record(userID string) {
	if !l.active() {
		return
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last[userID] = now
}
