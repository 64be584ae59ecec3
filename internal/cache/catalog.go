// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// catalog.go caches rendered course listings in Valkey. Listings are keyed
// by their normalized filter so repeated storefront queries skip the
// database; any course write clears every listing.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// catalogKeyPrefix is the Valkey key prefix for cached listings.
	catalogKeyPrefix = "catalog:"

	// DefaultCatalogTTL is how long a listing stays cached.
	DefaultCatalogTTL = 5 * time.Minute
)

// CatalogCache manages course listing caching in Valkey. A nil
// *CatalogCache is valid and never hits.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache creates a new catalog cache backed by the given Valkey client.
func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	if ttl == 0 {
		ttl = DefaultCatalogTTL
	}
	return &CatalogCache{client: client, ttl: ttl}
}

// ListingKey normalizes listing query parameters into a cache key. Parameter
// order does not matter.
func ListingKey(params url.Values) string {
	if len(params) == 0 {
		return "all"
	}
	return params.Encode()
}

// Get retrieves a cached listing. Returns false on miss.
func (cc *CatalogCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if cc == nil {
		return nil, false
	}
	val, err := cc.client.Get(ctx, catalogKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("catalog cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("catalog cache hit", "key", key)
	return val, true
}

// Set stores a listing with the configured TTL.
func (cc *CatalogCache) Set(ctx context.Context, key string, body []byte) {
	if cc == nil {
		return
	}
	if err := cc.client.Set(ctx, catalogKeyPrefix+key, body, cc.ttl).Err(); err != nil {
		slog.Warn("catalog cache set error", "key", key, "error", err)
	}
}

// InvalidateAll removes all cached listings by scanning for the prefix.
func (cc *CatalogCache) InvalidateAll(ctx context.Context) {
	if cc == nil {
		return
	}
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, nextCursor, err := cc.client.Scan(ctx, cursor, catalogKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("catalog cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := cc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("catalog cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("catalog cache cleared", "deleted", deleted)
	}
}
