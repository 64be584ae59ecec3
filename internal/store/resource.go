// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"coursestore/internal/database"
	"coursestore/internal/models"
)

// ResourceStore persists downloadable resources.
type ResourceStore struct {
	db database.Querier
}

// NewResourceStore creates a new ResourceStore.
func NewResourceStore(db database.Querier) *ResourceStore {
	return &ResourceStore{db: db}
}

// List returns resource metadata without payloads, newest first.
func (s *ResourceStore) List(ctx context.Context) ([]models.Resource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, type, content_type, size, storage_key, created_at
		FROM resources ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	resources := []models.Resource{}
	for rows.Next() {
		var r models.Resource
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.Type, &r.ContentType, &r.Size, &r.StorageKey, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

// FindByID returns a resource including its payload. Returns nil if not found.
func (s *ResourceStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Resource, error) {
	r := &models.Resource{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, type, content_type, size, data_url, storage_key, created_at
		FROM resources WHERE id = $1
	`, id).Scan(&r.ID, &r.Name, &r.Description, &r.Type, &r.ContentType, &r.Size, &r.DataURL, &r.StorageKey, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find resource: %w", err)
	}
	return r, nil
}

// Create inserts a resource.
func (s *ResourceStore) Create(ctx context.Context, r *models.Resource) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resources (id, name, description, type, content_type, size, data_url, storage_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.ID, r.Name, r.Description, r.Type, r.ContentType, r.Size, r.DataURL, r.StorageKey, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("create resource: %w", err)
	}
	return nil
}

// Delete removes a resource row.
func (s *ResourceStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM resources WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	return nil
}
