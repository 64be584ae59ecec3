// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"coursestore/internal/apperr"
	"coursestore/internal/catalog"
)

// Validation limits for user-supplied text.
const (
	maxTitleLen       = 300
	maxDescriptionLen = 100_000
	maxURLLen         = 2_000
	maxCategoryLen    = 100
	maxNameLen        = 200
	maxEmailLen       = 254
	maxPasswordLen    = 72
	minPasswordLen    = 6
	maxCouponCodeLen  = 50
	maxSettingLen     = 10_000
)

func tooLong(field string, max int) error {
	return apperr.Invalid(fmt.Sprintf("%s is too long (max %d characters)", field, max))
}

func checkLen(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return tooLong(field, max)
	}
	return nil
}

// validateCourse checks the length of supplied course fields.
func validateCourse(in catalog.CourseInput) error {
	checks := []struct {
		field string
		value *string
		max   int
	}{
		{"Title", in.Title, maxTitleLen},
		{"Description", in.Description, maxDescriptionLen},
		{"Image", in.Image, maxURLLen},
		{"Video", in.VideoPromo, maxURLLen},
		{"Category", in.Category, maxCategoryLen},
	}
	for _, c := range checks {
		if c.value == nil {
			continue
		}
		if err := checkLen(c.field, *c.value, c.max); err != nil {
			return err
		}
	}
	return nil
}

// validatePassword enforces the password policy on new passwords. bcrypt
// ignores input past 72 bytes, so longer passwords are refused.
func validatePassword(p string) error {
	if utf8.RuneCountInString(p) < minPasswordLen {
		return apperr.Invalid(fmt.Sprintf("Password must be at least %d characters", minPasswordLen))
	}
	if len(p) > maxPasswordLen {
		return apperr.Invalid(fmt.Sprintf("Password must be at most %d bytes", maxPasswordLen))
	}
	return nil
}

// validateProfile checks sign-up fields.
func validateProfile(email, first, last string) error {
	if err := checkLen("Email", email, maxEmailLen); err != nil {
		return err
	}
	if err := checkLen("First name", first, maxNameLen); err != nil {
		return err
	}
	return checkLen("Last name", last, maxNameLen)
}

// validateCoupon checks a coupon code and its percentage.
func validateCoupon(code string, discount decimal.Decimal) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return apperr.Invalid("Code is required")
	}
	if err := checkLen("Code", code, maxCouponCodeLen); err != nil {
		return err
	}
	if discount.IsNegative() || discount.GreaterThan(decimal.NewFromInt(100)) {
		return apperr.Invalid("Discount must be between 0 and 100")
	}
	return nil
}
