// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"coursestore/internal/auth"
	"coursestore/internal/cache"
	"coursestore/internal/catalog"
	"coursestore/internal/checkout"
	"coursestore/internal/config"
	"coursestore/internal/database"
	"coursestore/internal/enrollment"
	"coursestore/internal/handlers"
	"coursestore/internal/lock"
	"coursestore/internal/mail"
	"coursestore/internal/metrics"
	"coursestore/internal/middleware"
	"coursestore/internal/payment"
	"coursestore/internal/pricing"
	"coursestore/internal/resource"
	"coursestore/internal/router"
	"coursestore/internal/scheduler"
	"coursestore/internal/session"
	"coursestore/internal/storage"
	"coursestore/internal/store"
)

// Auth endpoints accept this many attempts per client per window.
const (
	authRateLimit  = 10
	authRateWindow = time.Minute
)

func serveCmd() *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap()
			if err != nil {
				return err
			}
			return serve(cfg, seed || cfg.IsDev())
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "seed initial data before serving (always on in development)")
	return cmd
}

func serve(cfg *config.Config, seed bool) error {
	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"db_driver", cfg.DBDriver,
		"checkout", cfg.CheckoutEnabled(),
		"cache", cfg.CacheEnabled(),
		"mail", cfg.MailEnabled(),
		"s3", cfg.S3Enabled(),
	)

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if seed {
		if err := database.Seed(context.Background(), db); err != nil {
			return fmt.Errorf("seed database: %w", err)
		}
	}

	m := metrics.New()

	// Valkey is optional. Without it listings are not cached, finalize
	// locks are process-local and token revocations do not survive a restart.
	var (
		valkey   *redis.Client
		listings *cache.CatalogCache
		locker   lock.Locker
		revoker  session.Revoker
	)
	if cfg.CacheEnabled() {
		valkey, err = cache.ConnectValkey(context.Background(), cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			return err
		}
		defer valkey.Close()
		listings = cache.NewCatalogCache(valkey, cache.DefaultCatalogTTL)
		locker = lock.NewRedis(valkey, lock.DefaultTTL)
		revoker = session.NewStore(valkey)
		slog.Info("valkey connected", "host", cfg.ValkeyHost)
	} else {
		slog.Warn("valkey not configured, running with in-process cache and locks")
	}

	var gateway payment.Gateway
	if cfg.CheckoutEnabled() {
		gateway = payment.NewStripe(payment.StripeConfig{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			Currency:      cfg.StripeCurrency,
		})
	} else {
		slog.Warn("stripe not configured, checkout endpoints disabled")
	}

	var sender mail.Sender
	if cfg.MailEnabled() {
		sender = mail.NewSMTP(mail.SMTPConfig{
			Host:     cfg.MailHost,
			Port:     cfg.MailPort,
			User:     cfg.MailUser,
			Password: cfg.MailPassword,
			From:     cfg.MailFrom,
			FromName: "CourseStore",
		})
	} else {
		slog.Warn("smtp not configured, reset codes will only be logged")
	}

	var blobs resource.Blobs
	s3, err := storage.New(storage.Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
	})
	if err != nil {
		return fmt.Errorf("init object storage: %w", err)
	}
	if s3 != nil {
		blobs = s3
		slog.Info("s3 storage configured", "endpoint", cfg.S3Endpoint, "bucket", s3.Bucket())
	}

	// Services.
	grants := enrollment.NewService(db, m)
	authSvc := auth.NewService(db, auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL), grants, revoker, sender)
	calc := pricing.NewCalculator(store.NewCourseStore(db), store.NewSettingStore(db), store.NewCouponStore(db))
	checkoutSvc := checkout.NewService(db, calc, grants, gateway, locker, m, checkout.Config{AppURL: cfg.AppURL})
	catalogSvc := catalog.NewService(db, listings)
	resourceSvc := resource.NewService(db, blobs)

	// Background jobs. Reconciliation needs the payment gateway.
	jobs := scheduler.New(m)
	var reconciler scheduler.Reconciler
	if checkoutSvc.Enabled() {
		reconciler = checkoutSvc
	}
	if err := jobs.Register(scheduler.Specs{
		Reconcile: cfg.ReconcileSchedule,
		Expiry:    cfg.ExpirySchedule,
		Purge:     "@hourly",
	}, reconciler, grants, store.NewPasswordResetStore(db)); err != nil {
		return err
	}
	jobs.Start()

	limiter := middleware.NewRateLimiter(authRateLimit, authRateWindow)
	defer limiter.Stop()

	r := router.New(router.Options{
		Authenticator: authSvc,
		Metrics:       m,
		Origins:       cfg.CORSOrigins,
		AuthLimiter:   limiter,
	}, router.Handlers{
		Auth:      handlers.NewAuth(authSvc),
		Catalog:   handlers.NewCatalog(catalogSvc),
		Cart:      handlers.NewCart(calc),
		Commerce:  handlers.NewCommerce(db),
		Checkout:  handlers.NewCheckout(checkoutSvc),
		Learning:  handlers.NewLearning(grants),
		Admin:     handlers.NewAdmin(db, authSvc),
		Resources: handlers.NewResources(resourceSvc),
		System:    handlers.NewSystem(db),
	})

	// WriteTimeout leaves room for the payment provider call and for large
	// resource downloads.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		jobs.Stop(context.Background())
		return fmt.Errorf("server failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	jobs.Stop(ctx)

	slog.Info("server stopped gracefully")
	return nil
}
