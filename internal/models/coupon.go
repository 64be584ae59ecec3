// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CouponStatus controls whether a code can be redeemed.
type CouponStatus string

const (
	CouponActive   CouponStatus = "active"
	CouponInactive CouponStatus = "inactive"
)

// Coupon is a percentage discount code.
type Coupon struct {
	ID        uuid.UUID       `json:"id"`
	Code      string          `json:"code"`
	Discount  decimal.Decimal `json:"discount"` // percent, 0-100
	Type      string          `json:"type"`
	Status    CouponStatus    `json:"status"`
	UsedCount int             `json:"usedCount"`
	CreatedAt time.Time       `json:"createdAt"`
}

// IsActive reports whether the coupon can be applied.
func (c *Coupon) IsActive() bool {
	return c.Status == CouponActive
}

// Multiplier returns 1 - discount/100.
func (c *Coupon) Multiplier() decimal.Decimal {
	return decimal.NewFromInt(1).Sub(c.Discount.Div(decimal.NewFromInt(100)))
}
