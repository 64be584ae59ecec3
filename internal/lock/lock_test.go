// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package lock

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_SerializesSameKey(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	var (
		inside  int32
		maxSeen int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "order-1")
			if err != nil {
				t.Error(err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
	assert.Equal(t, 0, l.size(), "entries are dropped after release")
}

func TestLocal_DifferentKeysDoNotBlock(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	unlockA, err := l.Lock(ctx, "a")
	require.NoError(t, err)
	defer unlockA()

	ctx2, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlockB, err := l.Lock(ctx2, "b")
	require.NoError(t, err)
	unlockB()
}

func TestLocal_ContextCancel(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock() // second call is a no-op
	assert.Equal(t, 0, l.size())
}

func testRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	host := os.Getenv("VALKEY_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("VALKEY_PORT")
	if port == "" {
		port = "6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:        host + ":" + port,
		Password:    os.Getenv("VALKEY_PASSWORD"),
		DB:          15,
		DialTimeout: time.Second,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := client.Keys(ctx, redisKeyPrefix+"test-*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})
	return client
}

func TestRedis_LockUnlock(t *testing.T) {
	client := testRedisClient(t)
	r := NewRedis(client, 5*time.Second)
	ctx := context.Background()

	unlock, err := r.Lock(ctx, "test-order")
	require.NoError(t, err)

	wctx, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer cancel()
	_, err = r.Lock(wctx, "test-order")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()

	unlock2, err := r.Lock(ctx, "test-order")
	require.NoError(t, err)
	unlock2()
}

func TestRedis_ReleaseKeepsForeignToken(t *testing.T) {
	client := testRedisClient(t)
	r := NewRedis(client, 5*time.Second)
	ctx := context.Background()

	unlock, err := r.Lock(ctx, "test-foreign")
	require.NoError(t, err)

	// Simulate expiry and takeover by another holder.
	require.NoError(t, client.Set(ctx, redisKeyPrefix+"test-foreign", "other", time.Minute).Err())
	unlock()

	val, err := client.Get(ctx, redisKeyPrefix+"test-foreign").Result()
	require.NoError(t, err)
	assert.Equal(t, "other", val)
}

func TestNewRedis_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, NewRedis(nil, 0).ttl)
}
