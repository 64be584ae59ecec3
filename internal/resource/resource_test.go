// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package resource

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursestore/internal/database/dbtest"
	"coursestore/internal/storage"
)

type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memBlobs) Put(_ context.Context, key, _ string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memBlobs) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, storage.ErrNotFound)
	}
	return b, nil
}

func (m *memBlobs) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

const pdfURI = "data:application/pdf;base64,JVBERi0xLjQ="

func TestCreateInline(t *testing.T) {
	s := NewService(dbtest.New(t), nil)
	ctx := context.Background()

	r, err := s.Create(ctx, CreateInput{Name: " Guía SAT ", Type: "pdf", DataURL: pdfURI})
	require.NoError(t, err)
	assert.Equal(t, "Guía SAT", r.Name)
	assert.Equal(t, "application/pdf", r.ContentType)
	assert.EqualValues(t, 8, r.Size)
	assert.False(t, r.IsOffloaded())

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].DataURL, "listings carry no payload")

	p, err := s.Download(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(p.Data))
	assert.Equal(t, "application/pdf", p.ContentType)
}

func TestCreateOffloaded(t *testing.T) {
	blobs := &memBlobs{objects: map[string][]byte{}}
	s := NewService(dbtest.New(t), blobs)
	ctx := context.Background()

	r, err := s.Create(ctx, CreateInput{Name: "Guía", DataURL: pdfURI})
	require.NoError(t, err)
	assert.True(t, r.IsOffloaded())
	assert.Equal(t, "%PDF-1.4", string(blobs.objects["resources/"+r.ID.String()]))

	p, err := s.Download(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(p.Data))

	require.NoError(t, s.Delete(ctx, r.ID))
	assert.Empty(t, blobs.objects)
	_, err = s.Download(ctx, r.ID)
	assert.True(t, errdefs.IsNotFound(err))
}

func TestCreateValidation(t *testing.T) {
	s := NewService(dbtest.New(t), nil)
	ctx := context.Background()

	_, err := s.Create(ctx, CreateInput{Name: "", DataURL: pdfURI})
	assert.True(t, errdefs.IsInvalidArgument(err))

	_, err = s.Create(ctx, CreateInput{Name: "x", DataURL: "https://example.com/file.pdf"})
	assert.True(t, errdefs.IsInvalidArgument(err))

	assert.True(t, errdefs.IsNotFound(s.Delete(ctx, uuid.New())))
}
