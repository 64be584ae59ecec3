// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CourseStatus controls catalog visibility.
type CourseStatus string

const (
	CourseActive   CourseStatus = "active"
	CourseInactive CourseStatus = "inactive"
)

// Course is a sellable catalog item with its syllabus.
type Course struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	// DescriptionHTML is rendered from Description on single-course reads.
	DescriptionHTML string              `json:"descriptionHtml,omitempty"`
	Price           decimal.Decimal     `json:"price"`
	PriceOffer      decimal.NullDecimal `json:"priceOffer"`
	Image           string              `json:"image"`
	VideoPromo      string              `json:"videoPromo"`
	Category        string              `json:"category"`
	Status          CourseStatus        `json:"status"`
	Modules         []Module            `json:"modules"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// EffectivePrice is the offer price when set, otherwise the list price.
func (c *Course) EffectivePrice() decimal.Decimal {
	if c.PriceOffer.Valid {
		return c.PriceOffer.Decimal
	}
	return c.Price
}

// ModulesCount is the number of modules in the syllabus.
func (c *Course) ModulesCount() int {
	return len(c.Modules)
}

// MarshalJSON adds the derived modulesCount field.
func (c Course) MarshalJSON() ([]byte, error) {
	type alias Course
	return json.Marshal(struct {
		alias
		ModulesCount int `json:"modulesCount"`
	}{alias(c), len(c.Modules)})
}

// Module is an ordered group of lessons.
type Module struct {
	ID      FlexID   `json:"id"`
	Title   string   `json:"title"`
	Lessons []Lesson `json:"lessons"`
}

// Lesson is a single unit of content inside a module.
type Lesson struct {
	ID       FlexID `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// FlexID is an identifier supplied by clients either as a JSON number or a
// JSON string. It is stored as text and written back in its original form.
type FlexID string

// UnmarshalJSON accepts numbers and strings.
func (id *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a number or string: %w", err)
	}
	*id = FlexID(n.String())
	return nil
}

// MarshalJSON writes numeric ids as numbers and everything else as strings.
func (id FlexID) MarshalJSON() ([]byte, error) {
	if id != "" && json.Valid([]byte(id)) {
		var n json.Number
		if json.Unmarshal([]byte(id), &n) == nil {
			return []byte(id), nil
		}
	}
	return json.Marshal(string(id))
}

// CourseFilter narrows catalog listings.
type CourseFilter struct {
	Search          string
	Category        string
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	IncludeInactive bool
}
