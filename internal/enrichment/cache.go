package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// DefaultCacheSize is the number of batches the memory cache keeps.
const DefaultCacheSize = 512

// DefaultRedisKeyPrefix namespaces cache entries in a shared Redis.
const DefaultRedisKeyPrefix = "bibliomatch:enrich:"

// Cache stores oracle answers by batch key.
type Cache interface {
	// Get returns the cached answer. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) (map[string]Fields, bool, error)
	// Set stores an answer.
	Set(ctx context.Context, key string, value map[string]Fields) error
}

// MemoryCache is a bounded in-process LRU. A zero TTL keeps entries until they
// are evicted by size.
type MemoryCache struct {
	lru *expirable.LRU[string, map[string]Fields]
}

// NewMemoryCache creates an in-process cache.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &MemoryCache{lru: expirable.NewLRU[string, map[string]Fields](size, nil, ttl)}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string) (map[string]Fields, bool, error) {
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	return maps.Clone(v), true, nil
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key string, value map[string]Fields) error {
	c.lru.Add(key, maps.Clone(value))
	return nil
}

// Len returns the number of cached batches.
func (c *MemoryCache) Len() int { return c.lru.Len() }

// RedisCache shares oracle answers between service replicas. Values are stored
// as JSON.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache wraps an existing client. An empty prefix uses
// DefaultRedisKeyPrefix; a zero TTL stores keys without expiry.
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) (map[string]Fields, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var out map[string]Fields
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false, fmt.Errorf("decode cached enrichment: %w", err)
	}
	return out, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, value map[string]Fields) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode enrichment: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
