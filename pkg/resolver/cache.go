package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores per-identifier resolutions between pipeline runs so that
// repeated lookups of the same accession skip the remote service.
type Cache interface {
	Get(ctx context.Context, id string) (Resolution, bool, error)
	Set(ctx context.Context, id string, res Resolution) error
}

// MemoryCache is an in-process Cache safe for concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Resolution
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Resolution)}
}

// Get returns a cached resolution if one exists.
func (c *MemoryCache) Get(_ context.Context, id string) (Resolution, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.entries[id]
	return res, ok, nil
}

// Set stores a resolution.
func (c *MemoryCache) Set(_ context.Context, id string, res Resolution) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = res
	return nil
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

const keyPrefixResolution = "resolution:"

// RedisCache is a Redis-backed Cache with per-entry TTL. Entries are stored
// as JSON under "resolution:<id>".
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed cache. A zero ttl stores entries
// without expiry.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns a cached resolution if one exists.
func (c *RedisCache) Get(ctx context.Context, id string) (Resolution, bool, error) {
	data, err := c.client.Get(ctx, keyPrefixResolution+id).Bytes()
	if err == redis.Nil {
		return Resolution{}, false, nil
	}
	if err != nil {
		return Resolution{}, false, fmt.Errorf("failed to get cached resolution: %w", err)
	}

	var res Resolution
	if err := json.Unmarshal(data, &res); err != nil {
		return Resolution{}, false, fmt.Errorf("failed to unmarshal cached resolution: %w", err)
	}
	return res, true, nil
}

// Set stores a resolution.
func (c *RedisCache) Set(ctx context.Context, id string, res Resolution) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal resolution: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefixResolution+id, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache resolution: %w", err)
	}
	return nil
}

// Verify interface compliance
var (
	_ Cache = (*MemoryCache)(nil)
	_ Cache = (*RedisCache)(nil)
)
