// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Resource is a downloadable file attached to the storefront. The payload is
// either inlined as a data URI or held in object storage under StorageKey.
type Resource struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	DataURL     string    `json:"-"`
	StorageKey  string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}

// IsOffloaded reports whether the payload lives in object storage.
func (r *Resource) IsOffloaded() bool {
	return r.StorageKey != ""
}
