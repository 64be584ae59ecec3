// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"

	"coursestore/internal/database"
	"coursestore/internal/models"
)

// CategoryStore manages the list of catalog categories.
type CategoryStore struct {
	db database.Querier
}

// NewCategoryStore creates a new CategoryStore.
func NewCategoryStore(db database.Querier) *CategoryStore {
	return &CategoryStore{db: db}
}

// List returns every managed category ordered by name.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Add inserts a category, ignoring names that already exist.
func (s *CategoryStore) Add(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (name, created_at) VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING`, name, now())
	if err != nil {
		return fmt.Errorf("add category: %w", err)
	}
	return nil
}

// Delete removes a managed category. Courses keep their category text.
func (s *CategoryStore) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE name = $1`, name); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
