// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"

	"coursestore/internal/apperr"
	"coursestore/internal/auth"
	"coursestore/internal/database"
	"coursestore/internal/models"
	"coursestore/internal/store"
)

// Admin groups user and settings management.
type Admin struct {
	auth     *auth.Service
	users    *store.UserStore
	settings *store.SettingStore
}

// NewAdmin creates the administration handlers.
func NewAdmin(db *database.DB, svc *auth.Service) *Admin {
	return &Admin{
		auth:     svc,
		users:    store.NewUserStore(db),
		settings: store.NewSettingStore(db),
	}
}

// Users handles GET /api/users.
func (h *Admin) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type createUserInput struct {
	auth.RegisterInput
	Role models.Role `json:"role"`
}

// CreateUser handles POST /api/users. The role defaults to "user".
func (h *Admin) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in createUserInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validateProfile(in.Email, in.FirstName, in.LastName); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validatePassword(in.Password); err != nil {
		writeError(w, r, err)
		return
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	u, err := h.auth.CreateUser(r.Context(), in.RegisterInput, in.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// SetStatus handles PUT /api/users/{id}/status.
func (h *Admin) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in statusInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if id == caller(r).UserID && in.Status == models.UserBlocked {
		writeError(w, r, apperr.Invalid("You cannot block your own account"))
		return
	}
	if err := h.auth.SetStatus(r.Context(), id, in.Status); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{"User status updated"})
}

// SetRole handles PUT /api/users/{id}/role.
func (h *Admin) SetRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in roleInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.auth.SetRole(r.Context(), id, in.Role); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{"User role updated"})
}

// Settings handles GET /api/settings.
func (h *Admin) Settings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.All(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// SaveSettings handles POST /api/settings. Only the supplied keys change.
func (h *Admin) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Settings map[string]string `json:"settings"`
	}
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if len(in.Settings) == 0 {
		writeError(w, r, apperr.Invalid("settings is required"))
		return
	}
	for k, v := range in.Settings {
		if strings.TrimSpace(k) == "" {
			writeError(w, r, apperr.Invalid("Setting keys must not be empty"))
			return
		}
		if err := checkLen("Setting "+k, v, maxSettingLen); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if err := h.settings.SetMany(r.Context(), in.Settings); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{"Settings saved"})
}
