// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package session tracks revoked API tokens so that logging out takes
// effect before a token's natural expiry. Entries live only until the
// token would have expired anyway. The Valkey store is shared by every
// replica; Memory serves single-process deployments without Valkey.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces revocation keys in Valkey to avoid collisions.
const keyPrefix = "revoked:"

// Revoker records and checks revoked token ids.
type Revoker interface {
	// Revoke marks id as revoked until the given time.
	Revoke(ctx context.Context, id string, until time.Time) error
	// Revoked reports whether id has been revoked.
	Revoked(ctx context.Context, id string) (bool, error)
}

// Store is a Valkey-backed Revoker.
type Store struct {
	client *redis.Client
}

// NewStore creates a revocation store backed by the given Valkey client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Revoke implements Revoker. Tokens already past until are ignored.
func (s *Store) Revoke(ctx context.Context, id string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, keyPrefix+id, "1", ttl).Err(); err != nil {
		return fmt.Errorf("session revoke: %w", err)
	}
	return nil
}

// Revoked implements Revoker.
func (s *Store) Revoked(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("session lookup: %w", err)
	}
	return n > 0, nil
}

// Memory is an in-process Revoker. Expired entries are pruned on write.
type Memory struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemory creates an empty in-process revocation list.
func NewMemory() *Memory {
	return &Memory{revoked: make(map[string]time.Time), now: time.Now}
}

// Revoke implements Revoker.
func (m *Memory) Revoke(_ context.Context, id string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, exp := range m.revoked {
		if !exp.After(now) {
			delete(m.revoked, k)
		}
	}
	if until.After(now) {
		m.revoked[id] = until
	}
	return nil
}

// Revoked implements Revoker.
func (m *Memory) Revoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.revoked[id]
	return ok && exp.After(m.now()), nil
}
