// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMembershipPrice(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		want     string
	}{
		{"offer wins", Settings{SettingMembershipPrice: "999", SettingMembershipPriceOffer: "799"}, "799"},
		{"empty offer falls back", Settings{SettingMembershipPrice: "1200", SettingMembershipPriceOffer: ""}, "1200"},
		{"garbage offer falls back", Settings{SettingMembershipPrice: "1200", SettingMembershipPriceOffer: "gratis"}, "1200"},
		{"zero falls back", Settings{SettingMembershipPrice: "0"}, "999"},
		{"nothing configured", Settings{}, "999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.settings.MembershipPrice()
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("MembershipPrice() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCouponMultiplier(t *testing.T) {
	c := Coupon{Discount: decimal.NewFromInt(15)}
	if !c.Multiplier().Equal(decimal.RequireFromString("0.85")) {
		t.Errorf("Multiplier() = %s, want 0.85", c.Multiplier())
	}
}
