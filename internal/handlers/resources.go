// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"coursestore/internal/resource"
	"coursestore/internal/slug"
)

// Resources groups the downloadable resource handlers.
type Resources struct {
	resources *resource.Service
}

// NewResources creates the resource handlers.
func NewResources(svc *resource.Service) *Resources {
	return &Resources{resources: svc}
}

// List handles GET /api/resources. Payloads are never listed.
func (h *Resources) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.resources.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Create handles POST /api/resources.
func (h *Resources) Create(w http.ResponseWriter, r *http.Request) {
	var in resource.CreateInput
	if err := decodeJSON(w, r, &in, maxUploadBody); err != nil {
		writeError(w, r, err)
		return
	}
	if err := checkLen("Name", in.Name, maxTitleLen); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.resources.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Download handles GET /api/resources/{id}/download.
func (h *Resources) Download(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.resources.Download(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ct := p.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Length", strconv.Itoa(len(p.Data)))
	w.Header().Set("Content-Disposition", contentDisposition(p.Name))
	w.WriteHeader(http.StatusOK)
	w.Write(p.Data)
}

// Delete handles DELETE /api/resources/{id}.
func (h *Resources) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.resources.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{"Resource deleted"})
}

// contentDisposition names the download with an ASCII fallback for old
// clients and the original UTF-8 name for the rest (RFC 6266).
func contentDisposition(name string) string {
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, slug.Filename(name), url.PathEscape(name))
}
