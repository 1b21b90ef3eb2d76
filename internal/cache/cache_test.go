package cache

import (
	"context"
	"testing"
	"time"

	go_store "github.com/eko/gocache/store/go_cache/v4"
	redis_store "github.com/eko/gocache/store/redis/v4"
	"github.com/jon4hz/subgen/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryCache_SetGet(t *testing.T) {
	c, err := New[item](&config.CacheConfig{Type: config.CacheTypeMemory}, "test:", 0)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", item{Name: "a", Count: 3}))

	got, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, item{Name: "a", Count: 3}, got)

	_, err = c.Get(ctx, "missing")
	assert.Error(t, err)
}

func TestMemoryCache_PrefixesDoNotCollide(t *testing.T) {
	shared := newMemoryStore()
	first := NewPrefixedCache[item](shared, "one:", 0)
	second := NewPrefixedCache[item](shared, "two:", 0)
	ctx := context.Background()

	require.NoError(t, first.Set(ctx, "k", item{Name: "first"}))
	require.NoError(t, second.Set(ctx, "k", item{Name: "second"}))

	got, err := first.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)
}

func TestMemoryCache_Expiration(t *testing.T) {
	c, err := New[item](&config.CacheConfig{Type: config.CacheTypeMemory}, "ttl:", 50*time.Millisecond)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", item{Name: "a"}))
	time.Sleep(100 * time.Millisecond)

	_, err = c.Get(ctx, "a")
	assert.Error(t, err)
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New[item](&config.CacheConfig{Type: "memcached"}, "x:", 0)
	assert.Error(t, err)

	_, err = New[item](nil, "x:", 0)
	assert.Error(t, err)
}

func TestNew_Redis(t *testing.T) {
	// the client connects lazily, so construction works without a server
	c, err := New[item](&config.CacheConfig{Type: config.CacheTypeRedis, RedisURL: "127.0.0.1:6379"}, "x:", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, redis_store.RedisType, c.GetType())
}

func TestNew_MemoryType(t *testing.T) {
	c, err := New[item](&config.CacheConfig{}, "x:", 0)
	require.NoError(t, err)
	assert.Equal(t, go_store.GoCacheType, c.GetType())
}
