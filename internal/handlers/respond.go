// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the JSON HTTP handlers of the course store API.
// Handlers are grouped by concern and receive their dependencies through
// the handler struct. Errors are answered as {"error": message} with the
// status chosen by apperr.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"coursestore/internal/apperr"
	"coursestore/internal/auth"
	"coursestore/internal/middleware"
)

// maxBodySize caps JSON request bodies. Resource uploads carry base64
// payloads and use maxUploadBody instead.
const (
	maxBodySize   = 1 << 20
	maxUploadBody = 70 << 20
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response failed", "error", err)
	}
}

// writeError answers with the error's client message. Unclassified errors
// are logged with the request and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable && status != http.StatusGatewayTimeout {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": apperr.Message(err)})
}

// decodeJSON reads a JSON body of at most limit bytes into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apperr.Invalid("Request body too large")
		case errors.Is(err, io.EOF):
			return apperr.Invalid("Request body is required")
		default:
			return apperr.Invalid("Invalid JSON body")
		}
	}
	return nil
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	return decodeJSON(w, r, dst, maxBodySize)
}

// uuidParam parses a UUID URL parameter.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.Invalid("Invalid " + name)
	}
	return id, nil
}

// caller returns the authenticated principal. Routes using it sit behind
// middleware.RequireAuth.
func caller(r *http.Request) *auth.Principal {
	return middleware.PrincipalFromCtx(r.Context())
}

type message struct {
	Message string `json:"message"`
}
