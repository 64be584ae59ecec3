// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pricing

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursestore/internal/apperr"
	"coursestore/internal/models"
)

type fakeCourses map[uuid.UUID]*models.Course

func (f fakeCourses) FindByID(_ context.Context, id uuid.UUID) (*models.Course, error) {
	return f[id], nil
}

type fakeSettings models.Settings

func (f fakeSettings) All(context.Context) (models.Settings, error) {
	return models.Settings(f), nil
}

type fakeCoupons map[string]*models.Coupon

func (f fakeCoupons) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	return f[code], nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	calc    *Calculator
	fiscal  *models.Course
	offered *models.Course
}

func newFixture() *fixture {
	fiscal := &models.Course{ID: uuid.New(), Title: "Curso Fiscal", Price: dec("99")}
	offered := &models.Course{ID: uuid.New(), Title: "Contabilidad", Price: dec("49"), PriceOffer: decimal.NewNullDecimal(dec("33.33"))}
	courses := fakeCourses{fiscal.ID: fiscal, offered.ID: offered}
	settings := fakeSettings{models.SettingMembershipPrice: "999", models.SettingMembershipPriceOffer: ""}
	coupons := fakeCoupons{
		"PROMO15": {Code: "PROMO15", Discount: dec("15"), Status: models.CouponActive},
		"OLD50":   {Code: "OLD50", Discount: dec("50"), Status: models.CouponInactive},
	}
	return &fixture{calc: NewCalculator(courses, settings, coupons), fiscal: fiscal, offered: offered}
}

func TestPrice_TotalIsSumOfRoundedLines(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	mult, coupon, err := f.calc.Multiplier(ctx, "PROMO15")
	require.NoError(t, err)
	require.NotNil(t, coupon)

	q, err := f.calc.Price(ctx, []models.OrderItem{
		{ID: f.fiscal.ID.String(), Quantity: 2},
		{ID: f.offered.ID.String(), Quantity: 1},
		{ID: models.MembershipProductID, Quantity: 3},
	}, mult)
	require.NoError(t, err)
	require.Len(t, q.Lines, 3)

	// 99 * 0.85 = 84.15; 33.33 * 0.85 = 28.3305 -> 28.33; 999 * 0.85 = 849.15
	assert.True(t, q.Lines[0].UnitPrice.Equal(dec("84.15")))
	assert.True(t, q.Lines[0].Amount.Equal(dec("168.30")))
	assert.True(t, q.Lines[1].UnitPrice.Equal(dec("28.33")), "offer price is used: %s", q.Lines[1].UnitPrice)
	assert.Equal(t, 1, q.Lines[2].Quantity, "membership is always a single unit")
	assert.True(t, q.Lines[2].UnitPrice.Equal(dec("849.15")))

	assert.True(t, q.Total.Equal(dec("1045.78")), "total %s", q.Total)
	assert.True(t, q.Subtotal.Equal(dec("1230.33")), "subtotal %s", q.Subtotal)
	assert.True(t, q.Discount.Equal(q.Subtotal.Sub(q.Total)))
}

func TestApplyDiscountRoundsHalfUp(t *testing.T) {
	tests := []struct{ price, mult, want string }{
		{"10.005", "1", "10.01"},
		{"0.125", "1", "0.13"},
		{"19.99", "0.9", "17.99"}, // 17.991
		{"33.35", "0.5", "16.68"}, // 16.675
		{"100", "0", "0"},
	}
	for _, tt := range tests {
		got := ApplyDiscount(dec(tt.price), dec(tt.mult))
		assert.True(t, got.Equal(dec(tt.want)), "%s * %s = %s, want %s", tt.price, tt.mult, got, tt.want)
	}
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(8415), ToMinorUnits(dec("84.15")))
	assert.Equal(t, int64(99900), ToMinorUnits(dec("999")))
}

func TestMultiplier_UnknownAndInactiveAreIgnored(t *testing.T) {
	f := newFixture()
	for _, code := range []string{"", "NOPE", "OLD50"} {
		mult, coupon, err := f.calc.Multiplier(context.Background(), code)
		require.NoError(t, err)
		assert.Nil(t, coupon)
		assert.True(t, mult.Equal(decimal.NewFromInt(1)), "code %q", code)
	}
}

func TestPrice_UnknownProductFailsWholeQuote(t *testing.T) {
	f := newFixture()
	for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
		_, err := f.calc.Price(context.Background(), []models.OrderItem{
			{ID: f.fiscal.ID.String(), Quantity: 1},
			{ID: id, Quantity: 1},
		}, decimal.NewFromInt(1))
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, apperr.Status(err))
	}
}

func TestPrice_NegativeQuantity(t *testing.T) {
	f := newFixture()
	_, err := f.calc.Price(context.Background(), []models.OrderItem{{ID: f.fiscal.ID.String(), Quantity: -1}}, decimal.NewFromInt(1))
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))
}

func TestMembershipPriceFromSettings(t *testing.T) {
	calc := NewCalculator(fakeCourses{}, fakeSettings{models.SettingMembershipPriceOffer: "799"}, fakeCoupons{})
	p, err := calc.Product(context.Background(), models.MembershipProductID)
	require.NoError(t, err)
	assert.True(t, p.Price.Equal(dec("799")))
	assert.Equal(t, MembershipName, p.Name)
}

func TestCartAdd(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.fiscal.ID.String()

	cart, err := f.calc.Add(ctx, Cart{}, id, 1)
	require.NoError(t, err)
	cart, err = f.calc.Add(ctx, cart, id, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity, "adding again increments quantity")

	cart, err = f.calc.Add(ctx, cart, models.MembershipProductID, 5)
	require.NoError(t, err)
	again, err := f.calc.Add(ctx, cart, models.MembershipProductID, 1)
	require.NoError(t, err)
	assert.Equal(t, cart, again, "membership can only be added once")
	assert.Equal(t, 1, again.Items[1].Quantity)

	before := again
	_, err = f.calc.Add(ctx, before, uuid.NewString(), 1)
	require.Error(t, err)
	var ae *apperr.Error
	assert.True(t, errors.As(err, &ae))
	assert.Len(t, before.Items, 2, "failed add leaves the cart untouched")
}

func TestCartRemoveAndUpdate(t *testing.T) {
	cart := Cart{Items: []CartItem{{ID: "a", Quantity: 1}, {ID: "b", Quantity: 2}}}

	assert.Equal(t, cart, Remove(cart, "missing"))
	assert.Equal(t, []CartItem{{ID: "b", Quantity: 2}}, Remove(cart, "a").Items)

	assert.Equal(t, cart, Update(cart, "missing", 9))
	assert.Equal(t, 7, Update(cart, "b", 7).Items[1].Quantity)
	assert.Len(t, Update(cart, "b", 0).Items, 1)

	m := Cart{Items: []CartItem{{ID: models.MembershipProductID, Quantity: 1}}}
	assert.Equal(t, 1, Update(m, models.MembershipProductID, 4).Items[0].Quantity)
}

func TestReprice(t *testing.T) {
	f := newFixture()
	cart := Cart{Items: []CartItem{{ID: f.fiscal.ID.String(), Quantity: 1}, {ID: "", Quantity: 1}}}

	priced, err := f.calc.Reprice(context.Background(), cart, "PROMO15")
	require.NoError(t, err)
	require.Len(t, priced.Items, 1, "blank lines are dropped")
	assert.Equal(t, "Curso Fiscal", priced.Items[0].Product.Name)
	assert.True(t, priced.Subtotal.Equal(dec("99")))
	assert.True(t, priced.Total.Equal(dec("84.15")))
	assert.True(t, priced.Discount.Equal(dec("14.85")))
	require.NotNil(t, priced.Coupon)
}
