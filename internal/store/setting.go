// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"coursestore/internal/database"
	"coursestore/internal/models"
)

// SettingStore manages storefront configuration in the database.
type SettingStore struct {
	db *database.DB
}

// NewSettingStore returns a new SettingStore backed by the given database.
func NewSettingStore(db *database.DB) *SettingStore {
	return &SettingStore{db: db}
}

// All returns every setting as a convenience map.
func (s *SettingStore) All(ctx context.Context) (models.Settings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	settings := make(models.Settings)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings[k] = v
	}
	return settings, rows.Err()
}

// Get returns a single setting by key, or the fallback if not found or empty.
func (s *SettingStore) Get(ctx context.Context, key, fallback string) (string, error) {
	var val string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return fallback, fmt.Errorf("get setting: %w", err)
	}
	if val == "" {
		return fallback, nil
	}
	return val, nil
}

// SetMany upserts the given settings in a single transaction. Keys not
// present in the map are left untouched.
func (s *SettingStore) SetMany(ctx context.Context, settings map[string]string) error {
	return s.db.InTx(ctx, func(tx *database.Tx) error {
		at := now()
		for k, v := range settings {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO settings (key, value, updated_at)
				VALUES ($1, $2, $3)
				ON CONFLICT (key)
				DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
				k, v, at,
			); err != nil {
				return fmt.Errorf("set setting %s: %w", k, err)
			}
		}
		return nil
	})
}
