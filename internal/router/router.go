// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up the HTTP routes and middleware chains of the
// course store API. Routes are grouped by the access they require.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"coursestore/internal/handlers"
	"coursestore/internal/metrics"
	"coursestore/internal/middleware"
)

// Handlers bundles every handler group the router mounts.
type Handlers struct {
	Auth      *handlers.Auth
	Catalog   *handlers.Catalog
	Cart      *handlers.Cart
	Commerce  *handlers.Commerce
	Checkout  *handlers.Checkout
	Learning  *handlers.Learning
	Admin     *handlers.Admin
	Resources *handlers.Resources
	System    *handlers.System
}

// Options configures the global middleware.
type Options struct {
	Authenticator middleware.Authenticator
	Metrics       *metrics.Metrics
	// Origins lists the storefront origins allowed by CORS.
	Origins []string
	// AuthLimiter throttles the credential endpoints. Nil disables it.
	AuthLimiter *middleware.RateLimiter
}

// New creates the chi router with all middleware and route groups wired up.
func New(opts Options, h Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Metrics(opts.Metrics))
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.CORS(opts.Origins...))
	r.Use(middleware.Authenticate(opts.Authenticator))

	r.Handle("/metrics", opts.Metrics.Handler())

	limit := func(next http.Handler) http.Handler { return next }
	if opts.AuthLimiter != nil {
		limit = opts.AuthLimiter.Middleware
	}

	r.Route("/api", func(r chi.Router) {
		// Public.
		r.Get("/health", h.System.Health)
		r.Get("/db-check", h.System.DBCheck)

		r.Get("/courses", h.Catalog.List)
		r.Get("/courses/{id}", h.Catalog.Get)
		r.Get("/categories", h.Catalog.Categories)
		r.Get("/settings", h.Admin.Settings)
		r.Post("/coupons/validate", h.Commerce.ValidateCoupon)

		r.Route("/cart", func(r chi.Router) {
			r.Post("/add", h.Cart.Add)
			r.Post("/remove", h.Cart.Remove)
			r.Post("/update", h.Cart.Update)
			r.Post("/quote", h.Cart.Quote)
		})

		r.Post("/stripe/webhook", h.Checkout.Webhook)

		r.Route("/auth", func(r chi.Router) {
			r.With(limit).Post("/register", h.Auth.Register)
			r.With(limit).Post("/login", h.Auth.Login)
			r.With(limit).Post("/recover", h.Auth.Recover)
			r.With(limit).Post("/reset", h.Auth.Reset)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/logout", h.Auth.Logout)
				r.Post("/2fa/setup", h.Auth.TOTPSetup)
				r.Post("/2fa/enable", h.Auth.TOTPEnable)
			})
		})

		// Signed-in users.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/me", h.Auth.Me)
			r.With(limit).Put("/users/password", h.Auth.ChangePassword)

			r.Post("/checkout/session", h.Checkout.Session)
			r.Post("/checkout/verify-session", h.Checkout.VerifySession)

			r.Get("/orders", h.Commerce.Orders)
			r.Get("/my-courses", h.Learning.MyCourses)
			r.Get("/dashboard", h.Learning.Dashboard)
			r.Post("/progress", h.Learning.Progress)
			r.Get("/membership", h.Learning.Membership)

			r.Get("/resources", h.Resources.List)
			r.Get("/resources/{id}/download", h.Resources.Download)
		})

		// Catalog staff (admin or editor).
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireStaff)

			r.Get("/admin/courses", h.Catalog.ListAll)
			r.Post("/courses", h.Catalog.Create)
			r.Put("/courses/{id}", h.Catalog.Update)
			r.Delete("/courses/{id}", h.Catalog.Delete)

			r.Post("/categories", h.Catalog.AddCategory)
			r.Delete("/categories/{name}", h.Catalog.DeleteCategory)

			r.Post("/resources", h.Resources.Create)
			r.Delete("/resources/{id}", h.Resources.Delete)
		})

		// Administrators.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Get("/users", h.Admin.Users)
			r.Post("/users", h.Admin.CreateUser)
			r.Put("/users/{id}/status", h.Admin.SetStatus)
			r.Put("/users/{id}/role", h.Admin.SetRole)
			r.Post("/admin/users/{userId}/membership", h.Learning.GrantMembership)

			r.Post("/settings", h.Admin.SaveSettings)

			r.Get("/coupons", h.Commerce.Coupons)
			r.Post("/coupons", h.Commerce.CreateCoupon)
			r.Delete("/coupons/{id}", h.Commerce.DeleteCoupon)

			r.Delete("/orders/{id}", h.Commerce.DeleteOrder)
		})
	})

	return r
}
