package povguard

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// GrantCache is a read-through Redis cache of matrix lookups. A nil client
// disables caching entirely; the engine then always hits the store.
type GrantCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewGrantCache returns a cache with the given key prefix and TTL.
func NewGrantCache(client *redis.Client, prefix string, ttl time.Duration) *GrantCache {
	if prefix == "" {
		prefix = "povguard:"
	}
	if ttl == 0 {
		ttl = 30 * time.Minute
	}
	return &GrantCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *GrantCache) key(role Role, resourceType ResourceType, action ResourceAction) string {
	return fmt.Sprintf("%sgrant:%s:%s:%s", c.prefix, role, resourceType, action)
}

// Get returns the cached enabled flag and whether the key was present. Cache
// errors read as a miss so the store stays the source of truth.
func (c *GrantCache) Get(ctx context.Context, role Role, resourceType ResourceType, action ResourceAction) (bool, bool) {
	if c == nil || c.client == nil {
		return false, false
	}
	val, err := c.client.Get(ctx, c.key(role, resourceType, action)).Result()
	if err != nil {
		return false, false
	}
	return val == "true", true
}

// Set caches the enabled flag for one matrix key. Absent rows are cached as
// disabled, which is what default-deny means.
func (c *GrantCache) Set(ctx context.Context, role Role, resourceType ResourceType, action ResourceAction, enabled bool) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Set(ctx, c.key(role, resourceType, action), strconv.FormatBool(enabled), c.ttl)
}

// Invalidate drops the cached entry for one matrix key.
func (c *GrantCache) Invalidate(ctx context.Context, role Role, resourceType ResourceType, action ResourceAction) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, c.key(role, resourceType, action))
}

// Flush drops every cached grant.
func (c *GrantCache) Flush(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	keys, err := c.client.Keys(ctx, c.prefix+"grant:*").Result()
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		return c.client.Del(ctx, keys...).Err()
	}
	return nil
}
