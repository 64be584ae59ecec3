// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"coursestore/internal/catalog"
)

// Catalog groups course and category handlers.
type Catalog struct {
	catalog *catalog.Service
}

// NewCatalog creates the catalog handlers.
func NewCatalog(svc *catalog.Service) *Catalog {
	return &Catalog{catalog: svc}
}

// List handles GET /api/courses. The body comes from the listing cache
// when warm, so it is written as-is.
func (h *Catalog) List(w http.ResponseWriter, r *http.Request) {
	f, err := catalog.ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := h.catalog.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(body)
}

// Get handles GET /api/courses/{id}.
func (h *Catalog) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ListAll handles GET /api/admin/courses.
func (h *Catalog) ListAll(w http.ResponseWriter, r *http.Request) {
	courses, err := h.catalog.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

// Create handles POST /api/courses.
func (h *Catalog) Create(w http.ResponseWriter, r *http.Request) {
	var in catalog.CourseInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validateCourse(in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.catalog.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// Update handles PUT /api/courses/{id}. Absent fields keep their value.
func (h *Catalog) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in catalog.CourseInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validateCourse(in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.catalog.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete handles DELETE /api/courses/{id}.
func (h *Catalog) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.catalog.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{"Course deleted"})
}

// Categories handles GET /api/categories.
func (h *Catalog) Categories(w http.ResponseWriter, r *http.Request) {
	names, err := h.catalog.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// AddCategory handles POST /api/categories.
func (h *Catalog) AddCategory(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := checkLen("Category", in.Name, maxCategoryLen); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.catalog.AddCategory(r.Context(), in.Name); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, message{"Category saved"})
}

// DeleteCategory handles DELETE /api/categories/{name}.
func (h *Catalog) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteCategory(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{"Category deleted"})
}
