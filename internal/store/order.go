// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"coursestore/internal/database"
	"coursestore/internal/models"
)

const orderColumns = `id, user_id, total, status, items, coupon_code, session_id, created_at, paid_at`

// OrderStore handles order persistence.
type OrderStore struct {
	db database.Querier
}

// NewOrderStore creates a new OrderStore.
func NewOrderStore(db database.Querier) *OrderStore {
	return &OrderStore{db: db}
}

// WithTx returns an OrderStore that runs its statements inside tx.
func (s *OrderStore) WithTx(tx *database.Tx) *OrderStore {
	return &OrderStore{db: tx}
}

func scanOrder(row rowScanner) (*models.Order, error) {
	o := &models.Order{}
	var items []byte
	if err := row.Scan(
		&o.ID, &o.UserID, &o.Total, &o.Status, &items, &o.CouponCode,
		&o.SessionID, &o.CreatedAt, &o.PaidAt,
	); err != nil {
		return nil, err
	}
	o.Items = []models.OrderItem{}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("decode items of order %s: %w", o.ID, err)
		}
	}
	return o, nil
}

func (s *OrderStore) findOne(ctx context.Context, where string, arg any) (*models.Order, error) {
	o, err := scanOrder(s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	return o, nil
}

// FindByID retrieves an order. Returns nil if not found.
func (s *OrderStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.findOne(ctx, `id = $1`, id)
}

// FindBySessionID retrieves the order bound to a payment session. Returns nil if not found.
func (s *OrderStore) FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	return s.findOne(ctx, `session_id = $1`, sessionID)
}

// Create inserts a pending order with its item snapshot.
func (s *OrderStore) Create(ctx context.Context, o *models.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = models.OrderPending
	}
	o.CreatedAt = now()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, total, status, items, coupon_code, session_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, o.ID, o.UserID, o.Total, o.Status, string(items), o.CouponCode, o.SessionID, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// SetSessionID binds a payment session to an order.
func (s *OrderStore) SetSessionID(ctx context.Context, id uuid.UUID, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE orders SET session_id = $1 WHERE id = $2`, sessionID, id); err != nil {
		return fmt.Errorf("set order session: %w", err)
	}
	return nil
}

// MarkPaid moves a pending order to paid. It reports whether this call made
// the transition; an order that is already paid is left untouched.
func (s *OrderStore) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, paid_at = $2
		WHERE id = $3 AND status = $4
	`, models.OrderPaid, at, id, models.OrderPending)
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}
	return n == 1, nil
}

func (s *OrderStore) list(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// ListByUser returns a user's orders, newest first.
func (s *OrderStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// ListAll returns every order, newest first.
func (s *OrderStore) ListAll(ctx context.Context) ([]models.Order, error) {
	return s.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

// ListPendingWithSession returns pending orders that were handed to the
// payment gateway and were created inside [from, to).
func (s *OrderStore) ListPendingWithSession(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	return s.list(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE status = $1 AND session_id IS NOT NULL AND created_at >= $2 AND created_at < $3
		ORDER BY created_at
	`, models.OrderPending, from, to)
}

// Delete removes an order by id.
func (s *OrderStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}
