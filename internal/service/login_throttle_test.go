package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingAttemptStore struct {
	counts map[string]int64
	err    error
}

func (s *countingAttemptStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if s.err != nil {
		return 0, 0, s.err
	}
	s.counts[key]++
	return s.counts[key], window, nil
}

func (s *countingAttemptStore) Count(ctx context.Context, key string) (int64, time.Duration, error) {
	if s.err != nil {
		return 0, 0, s.err
	}
	return s.counts[key], time.Minute, nil
}

func (s *countingAttemptStore) Reset(ctx context.Context, key string) error {
	delete(s.counts, key)
	return s.err
}

func TestLoginThrottle(t *testing.T) {
	store := &countingAttemptStore{counts: map[string]int64{}}
	throttle := NewLoginThrottle(store, 2, time.Minute)
	ctx := context.Background()

	_, allowed, err := throttle.Allow(ctx, "Alice")
	require.NoError(t, err)
	assert.True(t, allowed)

	require.NoError(t, throttle.Failure(ctx, "alice"))
	require.NoError(t, throttle.Failure(ctx, " ALICE "))

	wait, allowed, err := throttle.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, wait)

	require.NoError(t, throttle.Success(ctx, "alice"))
	_, allowed, _ = throttle.Allow(ctx, "alice")
	assert.True(t, allowed)
}

func TestLoginThrottleDisabled(t *testing.T) {
	var nilThrottle *LoginThrottle
	_, allowed, err := nilThrottle.Allow(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.NoError(t, nilThrottle.Failure(context.Background(), "alice"))

	store := &countingAttemptStore{counts: map[string]int64{}, err: errors.New("redis down")}
	_, allowed, err = NewLoginThrottle(store, 0, 0).Allow(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, allowed)
}
