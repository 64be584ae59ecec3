// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"coursestore/internal/database"
	"coursestore/internal/models"
)

// PasswordResetStore persists one-time password reset codes.
type PasswordResetStore struct {
	db database.Querier
}

// NewPasswordResetStore creates a new PasswordResetStore.
func NewPasswordResetStore(db database.Querier) *PasswordResetStore {
	return &PasswordResetStore{db: db}
}

// WithTx returns a PasswordResetStore that runs its statements inside tx.
func (s *PasswordResetStore) WithTx(tx *database.Tx) *PasswordResetStore {
	return &PasswordResetStore{db: tx}
}

// Create stores a new code. Earlier codes for the same email stay valid
// until they expire or are used.
func (s *PasswordResetStore) Create(ctx context.Context, r *models.PasswordReset) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO password_resets (id, email, code, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.ID, r.Email, r.Code, r.ExpiresAt, false, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}
	return nil
}

// FindValid returns an unused code for email that has not expired at t.
// Returns nil if there is none.
func (s *PasswordResetStore) FindValid(ctx context.Context, email, code string, at time.Time) (*models.PasswordReset, error) {
	r := &models.PasswordReset{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, code, expires_at, used, created_at
		FROM password_resets
		WHERE email = $1 AND code = $2 AND used = FALSE AND expires_at > $3
		ORDER BY created_at DESC
		LIMIT 1
	`, email, code, at).Scan(&r.ID, &r.Email, &r.Code, &r.ExpiresAt, &r.Used, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find password reset: %w", err)
	}
	return r, nil
}

// Consume marks a code as used. It reports false if the code was already
// consumed, so two concurrent resets cannot both succeed.
func (s *PasswordResetStore) Consume(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE password_resets SET used = TRUE WHERE id = $1 AND used = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("consume password reset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume password reset: %w", err)
	}
	return n == 1, nil
}

// Purge deletes codes that expired before the given time or were used.
func (s *PasswordResetStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM password_resets WHERE expires_at < $1 OR used = TRUE`, before)
	if err != nil {
		return 0, fmt.Errorf("purge password resets: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge password resets: %w", err)
	}
	return n, nil
}
