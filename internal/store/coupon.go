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

const couponColumns = `id, code, discount, type, status, used_count, created_at`

// CouponStore handles discount code persistence.
type CouponStore struct {
	db database.Querier
}

// NewCouponStore creates a new CouponStore.
func NewCouponStore(db database.Querier) *CouponStore {
	return &CouponStore{db: db}
}

// WithTx returns a CouponStore that runs its statements inside tx.
func (s *CouponStore) WithTx(tx *database.Tx) *CouponStore {
	return &CouponStore{db: tx}
}

func scanCoupon(row rowScanner, c *models.Coupon) error {
	return row.Scan(&c.ID, &c.Code, &c.Discount, &c.Type, &c.Status, &c.UsedCount, &c.CreatedAt)
}

// List returns all coupons, newest first.
func (s *CouponStore) List(ctx context.Context) ([]models.Coupon, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	coupons := []models.Coupon{}
	for rows.Next() {
		var c models.Coupon
		if err := scanCoupon(rows, &c); err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

// FindByCode looks up a coupon by its exact code. Returns nil if not found.
func (s *CouponStore) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	c := &models.Coupon{}
	err := scanCoupon(s.db.QueryRowContext(ctx, `SELECT `+couponColumns+` FROM coupons WHERE code = $1`, code), c)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find coupon: %w", err)
	}
	return c, nil
}

// Create inserts a coupon. Returns ErrDuplicate if the code is taken.
func (s *CouponStore) Create(ctx context.Context, c *models.Coupon) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Type == "" {
		c.Type = "percentage"
	}
	if c.Status == "" {
		c.Status = models.CouponActive
	}
	c.CreatedAt = now()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO coupons (id, code, discount, type, status, used_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (code) DO NOTHING
	`, c.ID, c.Code, c.Discount, c.Type, c.Status, 0, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create coupon: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrDuplicate
	}
	return nil
}

// Delete removes a coupon by id.
func (s *CouponStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM coupons WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	return nil
}

// IncrementUsed atomically bumps the usage counter of a code.
func (s *CouponStore) IncrementUsed(ctx context.Context, code string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE coupons SET used_count = used_count + 1 WHERE code = $1`, code); err != nil {
		return fmt.Errorf("increment coupon usage: %w", err)
	}
	return nil
}
