package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/user-auth-api/internal/models"
	"github.com/noah-isme/user-auth-api/internal/repository"
)

func newTestCache(t *testing.T, metrics *MetricsService) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheService(repository.NewCacheRepository(client), metrics, time.Minute, zap.NewNop()), mr
}

type listCountingStore struct {
	*memUserStore
	listCalls int
}

func (s *listCountingStore) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	s.listCalls++
	return s.memUserStore.List(ctx, filter)
}

func TestCacheServiceDisabled(t *testing.T) {
	var nilCache *CacheService
	assert.False(t, nilCache.Enabled())
	assert.False(t, nilCache.Get(context.Background(), "k", &struct{}{}))
	nilCache.Set(context.Background(), "k", 1, 0)
	nilCache.Invalidate(context.Background(), "k*")

	cache := NewCacheService(nil, nil, 0, nil)
	assert.False(t, cache.Enabled())
}

func TestCacheServiceRoundTripAndMetrics(t *testing.T) {
	metrics := NewMetricsService()
	cache, mr := newTestCache(t, metrics)
	ctx := context.Background()

	var got map[string]int
	assert.False(t, cache.Get(ctx, "users:list:a", &got))

	cache.Set(ctx, "users:list:a", map[string]int{"n": 1}, 0)
	assert.Equal(t, time.Minute, mr.TTL("users:list:a"))
	require.True(t, cache.Get(ctx, "users:list:a", &got))
	assert.Equal(t, 1, got["n"])

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("miss")))

	cache.Invalidate(ctx, "users:list:*")
	assert.False(t, cache.Get(ctx, "users:list:a", &got))
}

func TestCacheServiceReportsMissWhenRedisDown(t *testing.T) {
	cache, mr := newTestCache(t, nil)
	mr.Close()

	var got int
	assert.False(t, cache.Get(context.Background(), "users:list:a", &got))
	cache.Set(context.Background(), "users:list:a", 1, 0)
}

func TestUserServiceListUsesCache(t *testing.T) {
	store := &listCountingStore{memUserStore: newMemUserStore(&models.User{ID: "1", Username: "alice", PasswordHash: "hash"})}
	cache, _ := newTestCache(t, nil)
	svc := NewUserService(store, NewBcryptHasher(4), nil, nil, zap.NewNop())
	svc.AttachCache(cache)
	ctx := context.Background()
	filter := models.UserFilter{Page: 1, PageSize: 10}

	_, _, err := svc.List(ctx, filter)
	require.NoError(t, err)
	users, pagination, err := svc.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 1, store.listCalls)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
	assert.Empty(t, users[0].PasswordHash)
	assert.Equal(t, 1, pagination.TotalCount)

	_, err = svc.Signup(ctx, models.SignupRequest{
		Username: "bob", Contact: "x", Password: "secret", PasswordConfirm: "secret",
	}, models.RequestMeta{})
	require.NoError(t, err)

	users, _, err = svc.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 2, store.listCalls)
	assert.Len(t, users, 2)
}
