// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Default credentials for the seeded administrator.
const (
	SeedAdminEmail    = "admin@coursestore.local"
	SeedAdminPassword = "admin"
)

type seedLesson struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

type seedModule struct {
	ID      int          `json:"id"`
	Title   string       `json:"title"`
	Lessons []seedLesson `json:"lessons"`
}

// Seed populates the database with initial data: membership pricing
// settings, a default admin user and two sample courses. Each part is
// skipped when its data already exists.
func Seed(ctx context.Context, db *DB) error {
	now := time.Now().UTC()

	for key, value := range map[string]string{
		"membership_price":       "999",
		"membership_price_offer": "",
	} {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, $3)
			ON CONFLICT (key) DO NOTHING`, key, value, now); err != nil {
			return fmt.Errorf("seed setting %s: %w", key, err)
		}
	}

	if err := seedAdmin(ctx, db, now); err != nil {
		return err
	}
	return seedCourses(ctx, db, now)
}

func seedAdmin(ctx context.Context, db *DB, now time.Time) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}
	if count > 0 {
		slog.Info("users already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, role, status, totp_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, uuid.New(), SeedAdminEmail, string(hash), "Admin", "User", "admin", "active", false, now, now)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", SeedAdminEmail,
		"password", SeedAdminPassword,
	)
	return nil
}

func seedCourses(ctx context.Context, db *DB, now time.Time) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM courses").Scan(&count); err != nil {
		return fmt.Errorf("seed check courses: %w", err)
	}
	if count > 0 {
		return nil
	}

	modules, err := json.Marshal([]seedModule{{
		ID:    1,
		Title: "Introducción",
		Lessons: []seedLesson{
			{ID: 1, Title: "Bienvenida", URL: "https://www.youtube.com/watch?v=xyz"},
		},
	}})
	if err != nil {
		return fmt.Errorf("seed modules: %w", err)
	}

	samples := []struct {
		title, description, price, category, image string
	}{
		{
			"Curso Fiscal 2024", "Aprende todo sobre las nuevas reformas.", "99.00", "Fiscal",
			"https://images.unsplash.com/photo-1554224155-8d04cb21cd6c?auto=format&fit=crop&q=80&w=600",
		},
		{
			"Contabilidad para No Contadores", "Domina los números de tu negocio.", "49.00", "Contabilidad",
			"https://images.unsplash.com/photo-1454165804606-c3d57bc86b40?auto=format&fit=crop&q=80&w=600",
		},
	}
	for _, c := range samples {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO courses (id, title, description, price, image, category, status, modules, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, uuid.New(), c.title, c.description, c.price, c.image, c.category, "active", string(modules), now, now); err != nil {
			return fmt.Errorf("seed course %q: %w", c.title, err)
		}
	}

	slog.Info("sample courses seeded", "count", len(samples))
	return nil
}
