// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the payment lifecycle of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderCompleted OrderStatus = "completed"
)

// MembershipProductID is the cart id of the annual membership.
const MembershipProductID = "membership-annual"

// OrderItem is a requested line as captured at checkout time.
type OrderItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// IsMembership reports whether the line is the annual membership.
func (i OrderItem) IsMembership() bool {
	return i.ID == MembershipProductID
}

// Order is a purchase. Total is computed server-side when the order is created.
type Order struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"userId"`
	Total      decimal.Decimal `json:"total"`
	Status     OrderStatus     `json:"status"`
	Items      []OrderItem     `json:"items"`
	CouponCode string          `json:"couponCode,omitempty"`
	SessionID  *string         `json:"sessionId,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	PaidAt     *time.Time      `json:"paidAt,omitempty"`
}

// IsSettled reports whether payment has been received.
func (o *Order) IsSettled() bool {
	return o.Status == OrderPaid || o.Status == OrderCompleted
}
