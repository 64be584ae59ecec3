// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package dbtest provides a migrated in-memory database for tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"coursestore/internal/database"
)

// New opens a private in-memory SQLite database, applies every migration and
// registers cleanup. Each call returns an independent, empty schema.
func New(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.Connect(database.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// User inserts an active user with role "user" and returns its id.
func User(t testing.TB, db *database.DB, email string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	now := time.Now().UTC()
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO users (id, email, password_hash, first_name, last_name, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, 'Test', 'User', 'user', 'active', $4, $5)
	`, id, email, "$2a$10$placeholder", now, now)
	if err != nil {
		t.Fatalf("insert user %s: %v", email, err)
	}
	return id
}

// Course inserts an active course with one module of two lessons and
// returns its id. price is a decimal string such as "100.00".
func Course(t testing.TB, db *database.DB, title, price string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	now := time.Now().UTC()
	modules := `[{"id":1,"title":"Intro","lessons":[{"id":1,"title":"Bienvenida"},{"id":2,"title":"Cierre"}]}]`
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO courses (id, title, description, price, image, category, status, modules, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'Fiscal', 'active', $6, $7, $8)
	`, id, title, "Descripción de "+title, price, "https://placehold.co/600x400", modules, now, now)
	if err != nil {
		t.Fatalf("insert course %s: %v", title, err)
	}
	return id
}
