// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"coursestore/internal/database"
	"coursestore/internal/models"
)

const userColumns = `id, email, password_hash, first_name, last_name, role, status, totp_secret, totp_enabled, created_at, updated_at`

// UserStore handles all user-related database operations.
type UserStore struct {
	db database.Querier
}

// NewUserStore creates a new UserStore with the given database connection.
func NewUserStore(db database.Querier) *UserStore {
	return &UserStore{db: db}
}

// WithTx returns a UserStore that runs its statements inside tx.
func (s *UserStore) WithTx(tx *database.Tx) *UserStore {
	return &UserStore{db: tx}
}

func scanUser(row rowScanner, u *models.User) error {
	return row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role,
		&u.Status, &u.TOTPSecret, &u.TOTPEnabled, &u.CreatedAt, &u.UpdatedAt,
	)
}

// FindByEmail retrieves a user by their email address. Returns nil if not found.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u := &models.User{}
	err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email), u)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

// FindByID retrieves a user by their UUID. Returns nil if not found.
func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u := &models.User{}
	err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id), u)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// List returns all users, newest first, with the sum of their settled orders.
func (s *UserStore) List(ctx context.Context) ([]models.UserSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.email, u.password_hash, u.first_name, u.last_name, u.role, u.status,
		       u.totp_secret, u.totp_enabled, u.created_at, u.updated_at, COALESCE(o.spent, 0)
		FROM users u
		LEFT JOIN (
			SELECT user_id, SUM(total) AS spent FROM orders
			WHERE status IN ('paid', 'completed')
			GROUP BY user_id
		) o ON o.user_id = u.id
		ORDER BY u.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.UserSummary
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(
			&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role, &u.Status,
			&u.TOTPSecret, &u.TOTPEnabled, &u.CreatedAt, &u.UpdatedAt, &u.Spent,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Create inserts a new user. The password must already be hashed. Returns
// ErrDuplicate if the email is taken.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.Status == "" {
		u.Status = models.UserActive
	}
	u.CreatedAt = now()
	u.UpdatedAt = u.CreatedAt

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, role, status, totp_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (email) DO NOTHING
	`, u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role, u.Status, false, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if n == 0 {
		return ErrDuplicate
	}
	return nil
}

// UpdatePassword replaces a user's password hash.
func (s *UserStore) UpdatePassword(ctx context.Context, userID uuid.UUID, hash string) error {
	return s.exec(ctx, "update password", `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`, hash, now(), userID)
}

// UpdatePasswordByEmail replaces the password hash of the account owning email.
func (s *UserStore) UpdatePasswordByEmail(ctx context.Context, email, hash string) error {
	return s.exec(ctx, "update password", `UPDATE users SET password_hash = $1, updated_at = $2 WHERE email = $3`, hash, now(), email)
}

// SetStatus blocks or unblocks a user.
func (s *UserStore) SetStatus(ctx context.Context, userID uuid.UUID, status models.UserStatus) error {
	return s.exec(ctx, "set user status", `UPDATE users SET status = $1, updated_at = $2 WHERE id = $3`, status, now(), userID)
}

// SetRole changes a user's role.
func (s *UserStore) SetRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	return s.exec(ctx, "set user role", `UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`, role, now(), userID)
}

// SetTOTPSecret saves the TOTP secret for a user (during 2FA setup).
func (s *UserStore) SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error {
	return s.exec(ctx, "set totp secret", `UPDATE users SET totp_secret = $1, updated_at = $2 WHERE id = $3`, secret, now(), userID)
}

// EnableTOTP marks 2FA as active for a user (after successful code verification).
func (s *UserStore) EnableTOTP(ctx context.Context, userID uuid.UUID) error {
	return s.exec(ctx, "enable totp", `UPDATE users SET totp_enabled = TRUE, updated_at = $1 WHERE id = $2`, now(), userID)
}

// exec runs a single-row update and reports a missing row as sql.ErrNoRows.
func (s *UserStore) exec(ctx context.Context, op, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", op, sql.ErrNoRows)
	}
	return nil
}

// Credentials is an (id, hash) pair used by the rehash maintenance command.
type Credentials struct {
	ID   uuid.UUID
	Hash string
}

// ListCredentials returns every user's id and stored password hash.
func (s *UserStore) ListCredentials(ctx context.Context) ([]Credentials, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, password_hash FROM users`)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var out []Credentials
	for rows.Next() {
		var c Credentials
		if err := rows.Scan(&c.ID, &c.Hash); err != nil {
			return nil, fmt.Errorf("scan credentials: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
