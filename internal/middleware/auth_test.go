// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"coursestore/internal/apperr"
	"coursestore/internal/auth"
	"coursestore/internal/models"
)

type fakeAuthenticator map[string]*auth.Principal

func (f fakeAuthenticator) Authenticate(_ context.Context, raw string) (*auth.Principal, error) {
	if raw == "blocked" {
		return nil, apperr.Forbidden("Account blocked")
	}
	p, ok := f[raw]
	if !ok {
		return nil, apperr.Unauthenticated("Invalid or expired token")
	}
	return p, nil
}

// okHandler is a simple handler that records whether it was invoked.
func okHandler() (http.Handler, *bool) {
	var called bool
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	return h, &called
}

func principal(role models.Role) *auth.Principal {
	return &auth.Principal{UserID: uuid.New(), Email: "test@example.com", Role: role}
}

func TestAuthenticate(t *testing.T) {
	user := principal(models.RoleUser)
	authn := Authenticate(fakeAuthenticator{"good": user})

	t.Run("anonymous passes through", func(t *testing.T) {
		var got *auth.Principal
		h := authn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = PrincipalFromCtx(r.Context())
		}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != http.StatusOK || got != nil {
			t.Errorf("got status %d principal %v, want 200 and nil", rr.Code, got)
		}
	})

	t.Run("valid token loads principal", func(t *testing.T) {
		var got *auth.Principal
		h := authn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = PrincipalFromCtx(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		h.ServeHTTP(httptest.NewRecorder(), req)
		if got != user {
			t.Errorf("principal: got %v, want %v", got, user)
		}
	})

	for _, tc := range []struct {
		token string
		want  int
	}{
		{"bad", http.StatusUnauthorized},
		{"blocked", http.StatusForbidden},
	} {
		t.Run("rejects "+tc.token, func(t *testing.T) {
			next, called := okHandler()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)
			rr := httptest.NewRecorder()
			authn(next).ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Errorf("status: got %d, want %d", rr.Code, tc.want)
			}
			if *called {
				t.Error("next handler should not run")
			}
		})
	}
}

func TestRoleGates(t *testing.T) {
	tests := []struct {
		name string
		mw   func(http.Handler) http.Handler
		p    *auth.Principal
		want int
	}{
		{"auth anonymous", RequireAuth, nil, http.StatusUnauthorized},
		{"auth user", RequireAuth, principal(models.RoleUser), http.StatusOK},
		{"staff anonymous", RequireStaff, nil, http.StatusUnauthorized},
		{"staff user", RequireStaff, principal(models.RoleUser), http.StatusForbidden},
		{"staff editor", RequireStaff, principal(models.RoleEditor), http.StatusOK},
		{"staff admin", RequireStaff, principal(models.RoleAdmin), http.StatusOK},
		{"admin editor", RequireAdmin, principal(models.RoleEditor), http.StatusForbidden},
		{"admin admin", RequireAdmin, principal(models.RoleAdmin), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, _ := okHandler()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.p != nil {
				req = req.WithContext(WithPrincipal(req.Context(), tt.p))
			}
			rr := httptest.NewRecorder()
			tt.mw(next).ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestPrincipalFromCtx_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), PrincipalKey, "not-a-principal")
	if got := PrincipalFromCtx(ctx); got != nil {
		t.Errorf("expected nil for wrong type, got %+v", got)
	}
}
