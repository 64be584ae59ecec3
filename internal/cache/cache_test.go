// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// testValkeyClient returns a Redis client for tests.
// Skips if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:        host + ":" + port,
		Password:    password,
		DB:          15, // Use DB 15 for tests.
		DialTimeout: time.Second,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, catalogKeyPrefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestConnectValkey(t *testing.T) {
	testValkeyClient(t)

	client, err := ConnectValkey(context.Background(), envOr("VALKEY_HOST", "localhost"), envOr("VALKEY_PORT", "6379"), os.Getenv("VALKEY_PASSWORD"))
	if err != nil {
		t.Fatalf("ConnectValkey: %v", err)
	}
	client.Close()
}

func TestConnectValkeyUnreachable(t *testing.T) {
	_, err := ConnectValkey(context.Background(), "127.0.0.1", "1", "")
	if err == nil {
		t.Error("expected error for unreachable Valkey")
	}
}

func TestListingKey(t *testing.T) {
	if got := ListingKey(nil); got != "all" {
		t.Errorf("ListingKey(nil) = %q, want all", got)
	}

	a := url.Values{"search": {"fiscal"}, "category": {"Fiscal"}}
	b := url.Values{"category": {"Fiscal"}, "search": {"fiscal"}}
	if ListingKey(a) != ListingKey(b) {
		t.Errorf("keys differ for the same parameters: %q vs %q", ListingKey(a), ListingKey(b))
	}
}

func TestNilCatalogCache(t *testing.T) {
	var cc *CatalogCache
	ctx := context.Background()

	cc.Set(ctx, "all", []byte("[]"))
	if _, ok := cc.Get(ctx, "all"); ok {
		t.Error("nil cache must never hit")
	}
	cc.InvalidateAll(ctx)
}

func TestCatalogCache_SetGetInvalidate(t *testing.T) {
	client := testValkeyClient(t)
	cc := NewCatalogCache(client, time.Minute)
	ctx := context.Background()

	if _, ok := cc.Get(ctx, "all"); ok {
		t.Fatal("expected miss on empty cache")
	}

	cc.Set(ctx, "all", []byte(`[{"title":"Curso Fiscal"}]`))
	cc.Set(ctx, "category=Fiscal", []byte(`[]`))

	got, ok := cc.Get(ctx, "all")
	if !ok || string(got) != `[{"title":"Curso Fiscal"}]` {
		t.Fatalf("Get = %q, %v", got, ok)
	}

	cc.InvalidateAll(ctx)
	if _, ok := cc.Get(ctx, "all"); ok {
		t.Error("listing should be gone after InvalidateAll")
	}
	if _, ok := cc.Get(ctx, "category=Fiscal"); ok {
		t.Error("filtered listing should be gone after InvalidateAll")
	}
}

func TestCatalogCache_DefaultTTL(t *testing.T) {
	cc := NewCatalogCache(nil, 0)
	if cc.ttl != DefaultCatalogTTL {
		t.Errorf("ttl = %v, want %v", cc.ttl, DefaultCatalogTTL)
	}
}
