// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package pricing resolves cart items to prices. Courses are priced from the
// catalog (offer price first), the annual membership from settings, and a
// coupon multiplier is applied per line with rounding to cents.
package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"coursestore/internal/apperr"
	"coursestore/internal/models"
)

// Membership product presentation.
const (
	MembershipName        = "Membresía Anual (Todo Incluido)"
	MembershipImage       = "https://placehold.co/600x400?text=VIP"
	MembershipDescription = "Acceso ilimitado a todos los cursos por 1 año"
)

var one = decimal.NewFromInt(1)

// CourseFinder looks up catalog courses.
type CourseFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
}

// SettingsReader loads the settings map.
type SettingsReader interface {
	All(ctx context.Context) (models.Settings, error)
}

// CouponFinder looks up discount codes.
type CouponFinder interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
}

// Product is a priceable item as presented to the shopper.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
}

// Line is a priced cart line.
type Line struct {
	Product   Product         `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"` // after discount, rounded to cents
	Amount    decimal.Decimal `json:"amount"`
}

// Quote is the result of pricing a set of items.
type Quote struct {
	Lines      []Line          `json:"lines"`
	Multiplier decimal.Decimal `json:"-"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	Total      decimal.Decimal `json:"total"`
}

// Calculator prices products and carts.
type Calculator struct {
	courses  CourseFinder
	settings SettingsReader
	coupons  CouponFinder
}

// NewCalculator creates a Calculator.
func NewCalculator(courses CourseFinder, settings SettingsReader, coupons CouponFinder) *Calculator {
	return &Calculator{courses: courses, settings: settings, coupons: coupons}
}

// Product resolves a product id. Unknown ids, including ids that are not
// course UUIDs, yield a not-found error.
func (c *Calculator) Product(ctx context.Context, id string) (*Product, error) {
	if id == models.MembershipProductID {
		settings, err := c.settings.All(ctx)
		if err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}
		return &Product{
			ID:          models.MembershipProductID,
			Name:        MembershipName,
			Price:       settings.MembershipPrice(),
			Image:       MembershipImage,
			Description: MembershipDescription,
		}, nil
	}

	courseID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.NotFound(fmt.Sprintf("Product %s not found", id))
	}
	course, err := c.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if course == nil {
		return nil, apperr.NotFound(fmt.Sprintf("Product %s not found", id))
	}
	return &Product{
		ID:          course.ID.String(),
		Name:        course.Title,
		Price:       course.EffectivePrice(),
		Image:       course.Image,
		Description: course.Description,
	}, nil
}

// Multiplier returns the discount multiplier for a coupon code, together with
// the coupon when one applies. Unknown and inactive codes yield 1 and no error.
func (c *Calculator) Multiplier(ctx context.Context, code string) (decimal.Decimal, *models.Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return one, nil, nil
	}
	coupon, err := c.coupons.FindByCode(ctx, code)
	if err != nil {
		return one, nil, fmt.Errorf("load coupon: %w", err)
	}
	if coupon == nil || !coupon.IsActive() {
		return one, nil, nil
	}
	return coupon.Multiplier(), coupon, nil
}

// Price resolves every item and applies multiplier. Any unknown product
// fails the whole quote. A zero quantity counts as one; the membership line
// is always a single unit.
func (c *Calculator) Price(ctx context.Context, items []models.OrderItem, multiplier decimal.Decimal) (*Quote, error) {
	q := &Quote{
		Lines:      make([]Line, 0, len(items)),
		Multiplier: multiplier,
		Subtotal:   decimal.Zero,
		Total:      decimal.Zero,
	}

	for _, item := range items {
		qty, err := normalizeQuantity(item)
		if err != nil {
			return nil, err
		}
		p, err := c.Product(ctx, item.ID)
		if err != nil {
			return nil, err
		}

		unit := ApplyDiscount(p.Price, multiplier)
		amount := unit.Mul(decimal.NewFromInt(int64(qty)))
		q.Lines = append(q.Lines, Line{Product: *p, Quantity: qty, UnitPrice: unit, Amount: amount})
		q.Subtotal = q.Subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(qty))))
		q.Total = q.Total.Add(amount)
	}
	q.Discount = q.Subtotal.Sub(q.Total)
	return q, nil
}

// ApplyDiscount multiplies price by multiplier and rounds half-up to cents.
func ApplyDiscount(price, multiplier decimal.Decimal) decimal.Decimal {
	return price.Mul(multiplier).Round(2)
}

// ToMinorUnits converts a cent-rounded amount to integer minor currency units.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func normalizeQuantity(item models.OrderItem) (int, error) {
	switch {
	case item.ID == "":
		return 0, apperr.Invalid("Item id is required")
	case item.Quantity < 0:
		return 0, apperr.Invalid("Quantity must be positive")
	case item.Quantity == 0, item.IsMembership():
		return 1, nil
	default:
		return item.Quantity, nil
	}
}
