// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"
	"strings"

	"coursestore/internal/apperr"
	"coursestore/internal/auth"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

// PrincipalKey is the context key for the authenticated caller.
const PrincipalKey contextKey = "principal"

// Authenticator resolves a bearer token to a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*auth.Principal, error)
}

// Authenticate loads the caller from an "Authorization: Bearer" header.
// Requests without the header pass through anonymously; a header with a
// bad, revoked or blocked token is rejected.
func Authenticate(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			p, err := a.Authenticate(r.Context(), raw)
			if err != nil {
				writeError(w, apperr.Status(err), apperr.Message(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireAuth rejects anonymous requests with 401.
// Must be applied after Authenticate.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PrincipalFromCtx(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff returns 403 unless the caller is an admin or editor.
func RequireStaff(next http.Handler) http.Handler {
	return requireRole(next, (*auth.Principal).IsStaff)
}

// RequireAdmin returns 403 unless the caller is an admin.
func RequireAdmin(next http.Handler) http.Handler {
	return requireRole(next, (*auth.Principal).IsAdmin)
}

func requireRole(next http.Handler, allowed func(*auth.Principal) bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFromCtx(r.Context())
		if p == nil {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !allowed(p) {
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *auth.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// PrincipalFromCtx returns the authenticated caller, or nil.
func PrincipalFromCtx(ctx context.Context) *auth.Principal {
	p, _ := ctx.Value(PrincipalKey).(*auth.Principal)
	return p
}
