package cache

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/user-auth-api/pkg/config"
)

func TestNewRedisDisabled(t *testing.T) {
	client, err := NewRedis(context.Background(), config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewRedisConnects(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedis(context.Background(), config.RedisConfig{Enabled: true, Host: mr.Host(), Port: atoi(t, mr.Port())})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, Pinger{Client: client}.Ping(context.Background()))
}

func TestNewRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	port := atoi(t, mr.Port())
	mr.Close()

	_, err := NewRedis(context.Background(), config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: port})
	assert.Error(t, err)
}

func atoi(t *testing.T, raw string) int {
	t.Helper()
	n, err := strconv.Atoi(raw)
	require.NoError(t, err)
	return n
}
