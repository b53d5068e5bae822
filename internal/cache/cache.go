// Package cache provides an optional Redis-backed cache for resolved URLs.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "short:"

const defaultTTL = 24 * time.Hour

// URLCache caches short code to original URL mappings. Entries never outlive
// the URL's expiration because Set caps the TTL at the remaining lifetime.
type URLCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *URLCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &URLCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached original URL for a short code. Lookup failures are
// treated as cache misses.
func (c *URLCache) Get(ctx context.Context, shortCode string) (string, bool) {
	val, err := c.client.Get(ctx, keyPrefix+shortCode).Result()
	if err != nil {
		return "", false
	}

	return val, true
}

// Set caches an original URL under its short code. A non-positive ttl falls
// back to the configured default; a ttl above the default is capped to it.
func (c *URLCache) Set(ctx context.Context, shortCode, originalURL string, ttl time.Duration) {
	if ttl <= 0 || ttl > c.ttl {
		ttl = c.ttl
	}

	c.client.Set(ctx, keyPrefix+shortCode, originalURL, ttl)
}

// Delete drops the cached entry for a short code, if any.
func (c *URLCache) Delete(ctx context.Context, shortCode string) {
	c.client.Del(ctx, keyPrefix+shortCode)
}
