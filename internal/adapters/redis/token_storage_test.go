package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/helpdesk-console/internal/ports"
)

var _ ports.TokenStorage = (*TokenStorage)(nil)

// setupTestRedis starts an in-process Redis for the test.
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestTokenStorage_SetAndGet(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewTokenStorage(client)

	require.NoError(t, store.Set("token", "access-1"))

	v, ok := store.Get("token")
	assert.True(t, ok)
	assert.Equal(t, "access-1", v)

	// Keys are namespaced and never expire.
	raw, err := mr.Get("helpdesk:session:token")
	require.NoError(t, err)
	assert.Equal(t, "access-1", raw)
	assert.Zero(t, mr.TTL("helpdesk:session:token"))
}

func TestTokenStorage_GetNonExistent(t *testing.T) {
	_, client := setupTestRedis(t)
	store := NewTokenStorage(client)

	_, ok := store.Get("refreshToken")
	assert.False(t, ok)
}

func TestTokenStorage_Remove(t *testing.T) {
	_, client := setupTestRedis(t)
	store := NewTokenStorage(client)

	require.NoError(t, store.Set("refreshToken", "refresh-1"))
	require.NoError(t, store.Remove("refreshToken"))
	require.NoError(t, store.Remove("refreshToken"))
	require.NoError(t, store.Remove(""))

	_, ok := store.Get("refreshToken")
	assert.False(t, ok)
}

func TestTokenStorage_CustomPrefix(t *testing.T) {
	_, client := setupTestRedis(t)
	store := NewTokenStorageWithOptions(client, TokenStorageOptions{Prefix: "desk-a:"})
	other := NewTokenStorage(client)

	require.NoError(t, store.Set("token", "a"))

	_, ok := other.Get("token")
	assert.False(t, ok)
	n, err := client.Exists(context.Background(), "desk-a:token").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestTokenStorage_EmptyKey(t *testing.T) {
	_, client := setupTestRedis(t)
	store := NewTokenStorage(client)

	assert.Error(t, store.Set("", "x"))
}

func TestTokenStorage_Unavailable(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewTokenStorage(client)
	require.NoError(t, store.Set("token", "a"))

	mr.Close()

	_, ok := store.Get("token")
	assert.False(t, ok)
	assert.Error(t, store.Set("token", "b"))
	assert.Error(t, store.Remove("token"))
}
