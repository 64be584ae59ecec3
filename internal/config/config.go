// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret is the development signing key. Load refuses it in production.
const DefaultJWTSecret = "coursestore-dev-secret-change-me"

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host     string
	Port     string
	Env      string // "development", "production", "testing"
	AppURL   string // public base URL used for payment redirects
	LogLevel string
	// Origins allowed to call the API from a browser
	CORSOrigins []string

	// Database selection: "sqlite" (embedded) or "postgres"
	DBDriver   string
	SQLitePath string

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache). Empty host disables it.
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Token issuing
	JWTSecret string
	TokenTTL  time.Duration

	// Stripe. An empty secret key disables checkout.
	StripeSecretKey     string
	StripeWebhookSecret string
	StripeCurrency      string

	// SMTP. An empty user disables delivery and codes are only logged.
	MailHost     string
	MailPort     string
	MailUser     string
	MailPassword string
	MailFrom     string

	// S3-compatible object storage for resource payloads (optional)
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string

	// Cron specs for background jobs
	ReconcileSchedule string
	ExpirySchedule    string
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. A .env file in the working directory is
// loaded first if present; real environment variables take precedence.
// Returns an error if critical values are missing in production mode.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to read .env file", "error", err)
	}

	cfg := &Config{
		Host:     envOrDefault("APP_HOST", "0.0.0.0"),
		Port:     envOrDefault("APP_PORT", envOrDefault("PORT", "8080")),
		Env:      envOrDefault("APP_ENV", "development"),
		LogLevel: envOrDefault("LOG_LEVEL", "info"),

		DBDriver:   strings.ToLower(envOrDefault("DB_DRIVER", "sqlite")),
		SQLitePath: envOrDefault("SQLITE_PATH", "coursestore.db"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "coursestore"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "coursestore"),

		ValkeyHost:     os.Getenv("VALKEY_HOST"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		JWTSecret: envOrDefault("JWT_SECRET", DefaultJWTSecret),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripeCurrency:      strings.ToLower(envOrDefault("STRIPE_CURRENCY", "mxn")),

		MailHost:     envOrDefault("MAIL_HOST", "smtp.gmail.com"),
		MailPort:     envOrDefault("MAIL_PORT", "587"),
		MailUser:     os.Getenv("MAIL_USER"),
		MailPassword: envOrDefault("MAIL_PASSWORD", os.Getenv("MAIL_PASS")),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    os.Getenv("S3_BUCKET"),

		ReconcileSchedule: envOrDefault("RECONCILE_SCHEDULE", "@every 10m"),
		ExpirySchedule:    envOrDefault("EXPIRY_SCHEDULE", "0 3 * * *"),
	}
	cfg.AppURL = strings.TrimRight(envOrDefault("APP_URL", envOrDefault("CLIENT_URL", "http://localhost:"+cfg.Port)), "/")
	cfg.MailFrom = envOrDefault("MAIL_FROM", cfg.MailUser)
	cfg.CORSOrigins = splitList(envOrDefault("CORS_ORIGINS", cfg.AppURL))

	ttl, err := time.ParseDuration(envOrDefault("TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("parse TOKEN_TTL: %w", err)
	}
	cfg.TokenTTL = ttl

	switch cfg.DBDriver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", cfg.DBDriver)
	}

	if cfg.Env == "production" {
		if cfg.JWTSecret == DefaultJWTSecret {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		if cfg.DBDriver == "postgres" && cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the connection string for the selected driver.
func (c *Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.SQLitePath
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// CheckoutEnabled reports whether a payment gateway key is configured.
func (c *Config) CheckoutEnabled() bool {
	return c.StripeSecretKey != ""
}

// CacheEnabled reports whether a Valkey host is configured.
func (c *Config) CacheEnabled() bool {
	return c.ValkeyHost != ""
}

// MailEnabled reports whether SMTP credentials are configured.
func (c *Config) MailEnabled() bool {
	return c.MailUser != ""
}

// S3Enabled reports whether resource payloads go to object storage.
func (c *Config) S3Enabled() bool {
	return c.S3Endpoint != "" && c.S3Bucket != ""
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
