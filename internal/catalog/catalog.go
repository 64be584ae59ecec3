// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalog manages courses and categories. Public listings are
// served through the Valkey listing cache when one is configured, and
// every course write clears it.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"coursestore/internal/apperr"
	"coursestore/internal/cache"
	"coursestore/internal/database"
	"coursestore/internal/markdown"
	"coursestore/internal/models"
	"coursestore/internal/store"
)

// Service implements catalog operations.
type Service struct {
	courses    *store.CourseStore
	categories *store.CategoryStore
	cache      *cache.CatalogCache
}

// NewService creates a catalog Service. listings may be nil.
func NewService(db *database.DB, listings *cache.CatalogCache) *Service {
	return &Service{
		courses:    store.NewCourseStore(db),
		categories: store.NewCategoryStore(db),
		cache:      listings,
	}
}

// ParseFilter builds a public listing filter from query parameters.
func ParseFilter(q url.Values) (models.CourseFilter, error) {
	f := models.CourseFilter{
		Search:   strings.TrimSpace(q.Get("search")),
		Category: strings.TrimSpace(q.Get("category")),
	}
	for name, dst := range map[string]**decimal.Decimal{"minPrice": &f.MinPrice, "maxPrice": &f.MaxPrice} {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return f, apperr.Invalid(name + " must be a number")
		}
		*dst = &d
	}
	return f, nil
}

func listingKey(f models.CourseFilter) string {
	v := url.Values{}
	if f.Search != "" {
		v.Set("search", strings.ToLower(f.Search))
	}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if f.MinPrice != nil {
		v.Set("minPrice", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		v.Set("maxPrice", f.MaxPrice.String())
	}
	return cache.ListingKey(v)
}

// List returns the active courses matching f as a JSON array, from the
// cache when possible.
func (s *Service) List(ctx context.Context, f models.CourseFilter) (json.RawMessage, error) {
	f.IncludeInactive = false
	key := listingKey(f)
	if body, ok := s.cache.Get(ctx, key); ok {
		return body, nil
	}

	courses, err := s.courses.List(ctx, f)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(courses)
	if err != nil {
		return nil, fmt.Errorf("encode courses: %w", err)
	}
	s.cache.Set(ctx, key, body)
	return body, nil
}

// ListAll returns every course including inactive ones.
func (s *Service) ListAll(ctx context.Context) ([]models.Course, error) {
	return s.courses.List(ctx, models.CourseFilter{IncludeInactive: true})
}

// Get returns a course with its description rendered to HTML.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	c, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("Course not found")
	}
	html, err := markdown.ToHTML(c.Description)
	if err != nil {
		slog.Warn("render course description failed", "course_id", c.ID, "error", err)
	} else {
		c.DescriptionHTML = html
	}
	return c, nil
}

// CourseInput is a course write. Absent fields keep their current value on
// update. PriceOffer accepts null to clear the offer.
type CourseInput struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Price       *decimal.Decimal     `json:"price"`
	PriceOffer  json.RawMessage      `json:"priceOffer"`
	Image       *string              `json:"image"`
	VideoPromo  *string              `json:"videoPromo"`
	Category    *string              `json:"category"`
	Status      *models.CourseStatus `json:"status"`
	Modules     *[]models.Module     `json:"modules"`
}

func (in CourseInput) apply(c *models.Course) error {
	if in.Title != nil {
		c.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.Price != nil {
		c.Price = *in.Price
	}
	if len(in.PriceOffer) > 0 {
		raw := strings.TrimSpace(string(in.PriceOffer))
		switch raw {
		case "null", `""`:
			c.PriceOffer = decimal.NullDecimal{}
		default:
			var d decimal.Decimal
			if err := json.Unmarshal(in.PriceOffer, &d); err != nil {
				return apperr.Invalid("priceOffer must be a number")
			}
			c.PriceOffer = decimal.NewNullDecimal(d)
		}
	}
	if in.Image != nil {
		c.Image = strings.TrimSpace(*in.Image)
	}
	if in.VideoPromo != nil {
		c.VideoPromo = strings.TrimSpace(*in.VideoPromo)
	}
	if in.Category != nil {
		c.Category = strings.TrimSpace(*in.Category)
	}
	if in.Status != nil {
		c.Status = *in.Status
	}
	if in.Modules != nil {
		c.Modules = *in.Modules
	}
	return validate(c)
}

func validate(c *models.Course) error {
	switch {
	case c.Title == "":
		return apperr.Invalid("Title is required")
	case c.Price.IsNegative():
		return apperr.Invalid("Price must not be negative")
	case c.PriceOffer.Valid && c.PriceOffer.Decimal.IsNegative():
		return apperr.Invalid("Offer price must not be negative")
	case c.Status != models.CourseActive && c.Status != models.CourseInactive:
		return apperr.Invalid("Status must be active or inactive")
	}
	return nil
}

// Create adds a course. It is active unless a status is given.
func (s *Service) Create(ctx context.Context, in CourseInput) (*models.Course, error) {
	c := &models.Course{Status: models.CourseActive, Modules: []models.Module{}}
	if in.Price == nil {
		return nil, apperr.Invalid("Price is required")
	}
	if err := in.apply(c); err != nil {
		return nil, err
	}
	if err := s.courses.Create(ctx, c); err != nil {
		return nil, err
	}
	s.cache.InvalidateAll(ctx)
	slog.Info("course created", "course_id", c.ID, "title", c.Title)
	return c, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in CourseInput) (*models.Course, error) {
	c, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("Course not found")
	}
	if err := in.apply(c); err != nil {
		return nil, err
	}
	if err := s.courses.Update(ctx, c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("Course not found")
		}
		return nil, err
	}
	s.cache.InvalidateAll(ctx)
	slog.Info("course updated", "course_id", c.ID)
	return c, nil
}

// Delete removes a course together with its enrollments.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.courses.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("Course not found")
	}
	s.cache.InvalidateAll(ctx)
	slog.Info("course deleted", "course_id", id)
	return nil
}

// Categories returns the sorted union of managed categories and the
// categories in use by courses.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	managed, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	used, err := s.courses.Categories(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(managed)+len(used))
	out := make([]string, 0, len(managed)+len(used))
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, c := range managed {
		add(c.Name)
	}
	for _, name := range used {
		add(name)
	}
	sort.Strings(out)
	return out, nil
}

// AddCategory inserts a managed category. Existing names are ignored.
func (s *Service) AddCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Invalid("Category name is required")
	}
	return s.categories.Add(ctx, name)
}

// DeleteCategory removes a managed category. Courses keep their category.
func (s *Service) DeleteCategory(ctx context.Context, name string) error {
	return s.categories.Delete(ctx, strings.TrimSpace(name))
}
