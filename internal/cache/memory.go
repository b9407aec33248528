package cache

import (
	"context"
	"encoding/json"
	"fmt"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is an in-process cache tier. Entries never expire within a
// session; the process lifetime is the eviction policy.
type MemoryCache struct {
	store *gocache.Cache
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{store: gocache.New(gocache.NoExpiration, 0)}
}

// Set stores a value in the cache.
func (mc *MemoryCache) Set(_ context.Context, key string, value any) error {
	mc.store.Set(key, value, gocache.NoExpiration)
	return nil
}

// Get retrieves a value from the cache. A missing key returns an empty
// string and no error, matching the Redis tier.
func (mc *MemoryCache) Get(_ context.Context, key string) (any, error) {
	value, found := mc.store.Get(key)
	if !found {
		return "", nil
	}
	return value, nil
}

// GetJSON retrieves a JSON string and unmarshals it into the given value.
func (mc *MemoryCache) GetJSON(ctx context.Context, key string, value any) error {
	v, err := mc.Get(ctx, key)
	if err != nil {
		return err
	}

	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("cache value for %q is not a string: %T", key, v)
	}
	if s == "" {
		return nil
	}

	if err := json.Unmarshal([]byte(s), &value); err != nil {
		return fmt.Errorf("unmarshaling cached JSON for %q: %w", key, err)
	}
	return nil
}

// SetJSON stores a struct as a JSON string.
func (mc *MemoryCache) SetJSON(ctx context.Context, key string, value any) error {
	t, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling JSON for cache key %q: %w", key, err)
	}
	return mc.Set(ctx, key, string(t))
}
