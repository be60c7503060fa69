package reelcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry is what a public slug resolves to.
type Entry struct {
	ReelAssetID string `json:"reelAssetId"`
	URL         string `json:"url"`
}

// Cache keeps slug resolutions in Redis
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

// New creates a new reel cache
func New(redisClient *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		redis: redisClient,
		ttl:   ttl,
	}
}

func key(slug string) string {
	return fmt.Sprintf("reel:slug:%s", slug)
}

// Get returns the cached entry for slug. A miss is (nil, nil).
func (c *Cache) Get(ctx context.Context, slug string) (*Entry, error) {
	raw, err := c.redis.Get(ctx, key(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read reel cache: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode reel cache entry: %w", err)
	}
	return &entry, nil
}

// Set stores entry for slug with the configured TTL
func (c *Cache) Set(ctx context.Context, slug string, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode reel cache entry: %w", err)
	}

	if err := c.redis.Set(ctx, key(slug), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write reel cache: %w", err)
	}
	return nil
}

// Delete drops the entry for slug
func (c *Cache) Delete(ctx context.Context, slug string) error {
	if err := c.redis.Del(ctx, key(slug)).Err(); err != nil {
		return fmt.Errorf("failed to delete reel cache entry: %w", err)
	}
	return nil
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}
