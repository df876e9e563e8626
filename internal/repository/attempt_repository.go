package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptRepository keeps fixed-window counters in Redis.
type AttemptRepository struct {
	client *redis.Client
}

// NewAttemptRepository constructs the counter repository.
func NewAttemptRepository(client *redis.Client) *AttemptRepository {
	return &AttemptRepository{client: client}
}

// Increment bumps the counter for key, starting a new window on the first hit, and returns the
// count and the remaining window.
func (r *AttemptRepository) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if r.client == nil {
		return 0, 0, fmt.Errorf("redis client is nil")
	}
	if key == "" || window <= 0 {
		return 0, 0, fmt.Errorf("invalid attempt window")
	}

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("increment attempt key: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("set attempt key ttl: %w", err)
		}
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("read attempt key ttl: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}

	return count, ttl, nil
}

// Count returns the current counter value and remaining window without changing it.
func (r *AttemptRepository) Count(ctx context.Context, key string) (int64, time.Duration, error) {
	if r.client == nil {
		return 0, 0, fmt.Errorf("redis client is nil")
	}

	count, err := r.client.Get(ctx, key).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("read attempt key: %w", err)
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("read attempt key ttl: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	return count, ttl, nil
}

// Reset clears the counter.
func (r *AttemptRepository) Reset(ctx context.Context, key string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("reset attempt key: %w", err)
	}
	return nil
}
