// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package resource manages downloadable files. Payloads arrive as data
// URIs; when object storage is configured the decoded bytes are offloaded
// to the bucket and only the object key is kept in the database.
package resource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"coursestore/internal/apperr"
	"coursestore/internal/database"
	"coursestore/internal/datauri"
	"coursestore/internal/models"
	"coursestore/internal/storage"
	"coursestore/internal/store"
)

// MaxSize is the largest accepted decoded payload (50 MB).
const MaxSize = 50 << 20

// Blobs is the object storage used for offloaded payloads.
type Blobs interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Service stores and serves resources.
type Service struct {
	resources *store.ResourceStore
	blobs     Blobs
}

// NewService creates a resource Service. blobs may be nil.
func NewService(db *database.DB, blobs Blobs) *Service {
	return &Service{resources: store.NewResourceStore(db), blobs: blobs}
}

// CreateInput is the upload payload.
type CreateInput struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	DataURL     string `json:"dataUrl"`
	Description string `json:"description"`
}

// Payload is a resource's decoded content.
type Payload struct {
	Name        string
	ContentType string
	Data        []byte
}

// List returns resource metadata without payloads.
func (s *Service) List(ctx context.Context) ([]models.Resource, error) {
	return s.resources.List(ctx)
}

// Create validates and stores a resource.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Resource, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.DataURL == "" {
		return nil, apperr.Invalid("Name and dataUrl are required")
	}
	uri, err := datauri.Parse(in.DataURL)
	if err != nil {
		return nil, apperr.Invalid("dataUrl is not a valid data URI")
	}
	if len(uri.Data) > MaxSize {
		return nil, apperr.Invalid("Resource exceeds the 50 MB limit")
	}

	r := &models.Resource{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Type:        strings.TrimSpace(in.Type),
		ContentType: uri.MediaType,
		Size:        int64(len(uri.Data)),
	}
	if s.blobs != nil {
		r.StorageKey = objectKey(r.ID)
		if err := s.blobs.Put(ctx, r.StorageKey, r.ContentType, uri.Data); err != nil {
			return nil, err
		}
	} else {
		r.DataURL = in.DataURL
	}

	if err := s.resources.Create(ctx, r); err != nil {
		if r.IsOffloaded() {
			if derr := s.blobs.Delete(ctx, r.StorageKey); derr != nil {
				slog.Warn("orphaned resource object", "key", r.StorageKey, "error", derr)
			}
		}
		return nil, err
	}
	slog.Info("resource created", "resource_id", r.ID, "size", r.Size, "offloaded", r.IsOffloaded())
	return r, nil
}

// Download returns a resource's decoded payload.
func (s *Service) Download(ctx context.Context, id uuid.UUID) (*Payload, error) {
	r, err := s.resources.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apperr.NotFound("Resource not found")
	}

	p := &Payload{Name: r.Name, ContentType: r.ContentType}
	if r.IsOffloaded() {
		if s.blobs == nil {
			return nil, apperr.Unavailable("Object storage is not configured")
		}
		data, err := s.blobs.Get(ctx, r.StorageKey)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("Resource content not found")
		}
		if err != nil {
			return nil, err
		}
		p.Data = data
		return p, nil
	}

	uri, err := datauri.Parse(r.DataURL)
	if err != nil {
		return nil, fmt.Errorf("decode resource %s: %w", r.ID, err)
	}
	p.Data = uri.Data
	if p.ContentType == "" {
		p.ContentType = uri.MediaType
	}
	return p, nil
}

// Delete removes a resource and its stored object.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	r, err := s.resources.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if r == nil {
		return apperr.NotFound("Resource not found")
	}
	if err := s.resources.Delete(ctx, id); err != nil {
		return err
	}
	if r.IsOffloaded() && s.blobs != nil {
		if err := s.blobs.Delete(ctx, r.StorageKey); err != nil {
			slog.Warn("delete resource object failed", "key", r.StorageKey, "error", err)
		}
	}
	return nil
}

func objectKey(id uuid.UUID) string {
	return "resources/" + id.String()
}
