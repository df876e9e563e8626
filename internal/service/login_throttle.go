package service

import (
	"context"
	"strings"
	"time"
)

type attemptStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Count(ctx context.Context, key string) (int64, time.Duration, error)
	Reset(ctx context.Context, key string) error
}

// LoginThrottle limits failed logins per username within a fixed window. A nil throttle or
// one without a store allows everything.
type LoginThrottle struct {
	store       attemptStore
	maxAttempts int
	window      time.Duration
}

// NewLoginThrottle constructs a throttle; maxAttempts <= 0 disables it.
func NewLoginThrottle(store attemptStore, maxAttempts int, window time.Duration) *LoginThrottle {
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &LoginThrottle{store: store, maxAttempts: maxAttempts, window: window}
}

func (t *LoginThrottle) enabled() bool {
	return t != nil && t.store != nil && t.maxAttempts > 0
}

// Allow reports whether another attempt for username may proceed and, if not, how long to wait.
func (t *LoginThrottle) Allow(ctx context.Context, username string) (time.Duration, bool, error) {
	if !t.enabled() {
		return 0, true, nil
	}
	count, ttl, err := t.store.Count(ctx, attemptKey(username))
	if err != nil {
		return 0, false, err
	}
	if count >= int64(t.maxAttempts) {
		return ttl, false, nil
	}
	return 0, true, nil
}

// Failure records a failed attempt.
func (t *LoginThrottle) Failure(ctx context.Context, username string) error {
	if !t.enabled() {
		return nil
	}
	_, _, err := t.store.Increment(ctx, attemptKey(username), t.window)
	return err
}

// Success clears the failure counter.
func (t *LoginThrottle) Success(ctx context.Context, username string) error {
	if !t.enabled() {
		return nil
	}
	return t.store.Reset(ctx, attemptKey(username))
}

func attemptKey(username string) string {
	return "login_attempts:" + strings.ToLower(strings.TrimSpace(username))
}
