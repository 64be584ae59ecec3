// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"coursestore/internal/auth"
	"coursestore/internal/models"
)

// Auth groups account handlers.
type Auth struct {
	auth *auth.Service
}

// NewAuth creates the account handlers.
func NewAuth(svc *auth.Service) *Auth {
	return &Auth{auth: svc}
}

// Register handles POST /api/auth/register.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validateProfile(in.Email, in.FirstName, in.LastName); err != nil {
		writeError(w, r, err)
		return
	}
	if in.Password != "" {
		if err := validatePassword(in.Password); err != nil {
			writeError(w, r, err)
			return
		}
	}
	res, err := h.auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Login handles POST /api/auth/login.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.auth.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Logout handles POST /api/auth/logout by revoking the caller's token.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), caller(r).Claims); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{"Logged out"})
}

// Me handles GET /api/me.
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.auth.Me(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Recover handles POST /api/auth/recover. The answer is the same whether
// or not the email exists.
func (h *Auth) Recover(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.auth.RequestReset(r.Context(), in.Email); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{auth.RecoverMessage})
}

// Reset handles POST /api/auth/reset.
func (h *Auth) Reset(w http.ResponseWriter, r *http.Request) {
	var in auth.ResetInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if in.NewPassword != "" {
		if err := validatePassword(in.NewPassword); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if err := h.auth.ResetPassword(r.Context(), in); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{"Password updated"})
}

// ChangePassword handles PUT /api/users/password.
func (h *Auth) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var in auth.ChangePasswordInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if in.NewPassword != "" {
		if err := validatePassword(in.NewPassword); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if err := h.auth.ChangePassword(r.Context(), caller(r).UserID, in); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{"Password updated"})
}

// TOTPSetup handles POST /api/auth/2fa/setup.
func (h *Auth) TOTPSetup(w http.ResponseWriter, r *http.Request) {
	setup, err := h.auth.SetupTOTP(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, setup)
}

// TOTPEnable handles POST /api/auth/2fa/enable.
func (h *Auth) TOTPEnable(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Code string `json:"code"`
	}
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.auth.EnableTOTP(r.Context(), caller(r).UserID, in.Code); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"totpEnabled": true})
}

// roleInput and statusInput are admin account updates.
type roleInput struct {
	Role models.Role `json:"role"`
}

type statusInput struct {
	Status models.UserStatus `json:"status"`
}
