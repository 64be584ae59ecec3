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

const membershipColumns = `id, user_id, status, start_date, end_date, payment_id, created_at`

// MembershipStore handles membership persistence.
type MembershipStore struct {
	db database.Querier
}

// NewMembershipStore creates a new MembershipStore.
func NewMembershipStore(db database.Querier) *MembershipStore {
	return &MembershipStore{db: db}
}

// WithTx returns a MembershipStore that runs its statements inside tx.
func (s *MembershipStore) WithTx(tx *database.Tx) *MembershipStore {
	return &MembershipStore{db: tx}
}

func scanMembership(row rowScanner, m *models.Membership) error {
	return row.Scan(&m.ID, &m.UserID, &m.Status, &m.StartDate, &m.EndDate, &m.PaymentID, &m.CreatedAt)
}

// Grant inserts an active membership. payment_id is unique, so granting
// twice for the same payment is a no-op; the result reports whether a new
// row was created.
func (s *MembershipStore) Grant(ctx context.Context, m *models.Membership) (bool, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Status == "" {
		m.Status = models.MembershipActive
	}
	m.CreatedAt = now()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO memberships (id, user_id, status, start_date, end_date, payment_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (payment_id) DO NOTHING
	`, m.ID, m.UserID, m.Status, m.StartDate, m.EndDate, m.PaymentID, m.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("grant membership: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("grant membership: %w", err)
	}
	return n == 1, nil
}

// Active returns the user's entitling membership at t, preferring the one
// that lasts longest. Returns nil if the user has none.
func (s *MembershipStore) Active(ctx context.Context, userID uuid.UUID, at time.Time) (*models.Membership, error) {
	m := &models.Membership{}
	err := scanMembership(s.db.QueryRowContext(ctx, `
		SELECT `+membershipColumns+` FROM memberships
		WHERE user_id = $1 AND status = $2 AND end_date > $3
		ORDER BY end_date DESC
		LIMIT 1
	`, userID, models.MembershipActive, at), m)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active membership: %w", err)
	}
	return m, nil
}

// CountByPayment returns how many memberships reference a payment id.
func (s *MembershipStore) CountByPayment(ctx context.Context, paymentID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memberships WHERE payment_id = $1`, paymentID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count memberships: %w", err)
	}
	return n, nil
}

// ExpireEnded marks active memberships whose end date is not after at as
// expired and returns how many rows changed.
func (s *MembershipStore) ExpireEnded(ctx context.Context, at time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE memberships SET status = $1 WHERE status = $2 AND end_date <= $3
	`, models.MembershipExpired, models.MembershipActive, at)
	if err != nil {
		return 0, fmt.Errorf("expire memberships: %w", err)
	}
	return res.RowsAffected()
}
