// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "github.com/shopspring/decimal"

// Well-known settings keys.
const (
	SettingMembershipPrice      = "membership_price"
	SettingMembershipPriceOffer = "membership_price_offer"
)

// DefaultMembershipPrice applies when neither membership setting is usable.
var DefaultMembershipPrice = decimal.NewFromInt(999)

// Settings is a convenience map for accessing settings by key.
type Settings map[string]string

// Get returns the value for a key, or the fallback if the key doesn't exist.
func (s Settings) Get(key, fallback string) string {
	if v, ok := s[key]; ok && v != "" {
		return v
	}
	return fallback
}

// MembershipPrice resolves the membership price: the offer when set and
// numeric, then the regular price, then DefaultMembershipPrice.
func (s Settings) MembershipPrice() decimal.Decimal {
	for _, key := range []string{SettingMembershipPriceOffer, SettingMembershipPrice} {
		if v := s.Get(key, ""); v != "" {
			if d, err := decimal.NewFromString(v); err == nil && d.IsPositive() {
				return d
			}
		}
	}
	return DefaultMembershipPrice
}
