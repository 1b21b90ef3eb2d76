package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	go_store "github.com/eko/gocache/store/go_cache/v4"
	redis_store "github.com/eko/gocache/store/redis/v4"
	"github.com/jon4hz/subgen/internal/config"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// PrefixedCache stores JSON encoded values of type T under a common key prefix.
type PrefixedCache[T any] struct {
	cache     *cache.Cache[any]
	storeType string
	prefix    string
	ttl       time.Duration
}

// New creates a prefixed cache on the engine selected in the configuration.
// Values expire after ttl, zero keeps them until evicted.
func New[T any](cfg *config.CacheConfig, prefix string, ttl time.Duration) (*PrefixedCache[T], error) {
	if cfg == nil {
		return nil, fmt.Errorf("cache config is required")
	}

	var s store.StoreInterface
	switch cfg.Type {
	case config.CacheTypeMemory, "":
		s = newMemoryStore()
	case config.CacheTypeRedis:
		s = newRedisStore(cfg)
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}

	return NewPrefixedCache[T](s, prefix, ttl), nil
}

// NewPrefixedCache creates a new prefixed cache on s. Several prefixed
// caches may share one store.
func NewPrefixedCache[T any](s store.StoreInterface, prefix string, ttl time.Duration) *PrefixedCache[T] {
	return &PrefixedCache[T]{
		cache:     cache.New[any](s),
		storeType: s.GetType(),
		prefix:    prefix,
		ttl:       ttl,
	}
}

func (p *PrefixedCache[T]) key(key string) string {
	return p.prefix + key
}

// Get retrieves a value from the cache with the prefixed key.
func (p *PrefixedCache[T]) Get(ctx context.Context, key string) (T, error) {
	value, err := p.cache.Get(ctx, p.key(key))
	if err != nil {
		return *new(T), err
	}

	// the memory store hands back what was stored, redis returns a string
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return *new(T), fmt.Errorf("unexpected cache value type %T", value)
	}

	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return *new(T), err
	}
	return result, nil
}

// Set stores a value in the cache with the prefixed key.
func (p *PrefixedCache[T]) Set(ctx context.Context, key string, object T) error {
	data, err := json.Marshal(object)
	if err != nil {
		return err
	}
	var options []store.Option
	if p.ttl > 0 {
		options = append(options, store.WithExpiration(p.ttl))
	}
	return p.cache.Set(ctx, p.key(key), data, options...)
}

// GetType returns the type of the underlying store, e.g. "redis".
func (p *PrefixedCache[T]) GetType() string {
	return p.storeType
}

func newMemoryStore() store.StoreInterface {
	gocacheClient := gocache.New(gocache.NoExpiration, 10*time.Minute)
	return go_store.NewGoCache(gocacheClient)
}

func newRedisStore(cfg *config.CacheConfig) store.StoreInterface {
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})
	return redis_store.NewRedis(redisClient)
}
