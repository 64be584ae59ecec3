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
	"strconv"
	"strings"

	"github.com/google/uuid"

	"coursestore/internal/database"
	"coursestore/internal/models"
)

const courseColumns = `id, title, description, price, price_offer, image, video_promo, category, status, modules, created_at, updated_at`

// CourseStore handles catalog persistence.
type CourseStore struct {
	db database.Querier
}

// NewCourseStore creates a new CourseStore.
func NewCourseStore(db database.Querier) *CourseStore {
	return &CourseStore{db: db}
}

func scanCourse(row rowScanner) (*models.Course, error) {
	c := &models.Course{}
	var modules []byte
	if err := row.Scan(
		&c.ID, &c.Title, &c.Description, &c.Price, &c.PriceOffer, &c.Image,
		&c.VideoPromo, &c.Category, &c.Status, &modules, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Modules = []models.Module{}
	if len(modules) > 0 {
		if err := json.Unmarshal(modules, &c.Modules); err != nil {
			return nil, fmt.Errorf("decode modules of course %s: %w", c.ID, err)
		}
	}
	return c, nil
}

// FindByID retrieves a course by id. Returns nil if not found.
func (s *CourseStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	c, err := scanCourse(s.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find course: %w", err)
	}
	return c, nil
}

// List returns courses matching the filter, newest first. Search matches
// title or description case-insensitively; price bounds apply to the list price.
func (s *CourseStore) List(ctx context.Context, f models.CourseFilter) ([]models.Course, error) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if !f.IncludeInactive {
		conds = append(conds, "status = "+next(models.CourseActive))
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		conds = append(conds, "(LOWER(title) LIKE "+next(pattern)+" OR LOWER(description) LIKE "+next(pattern)+")")
	}
	if f.Category != "" {
		conds = append(conds, "category = "+next(f.Category))
	}
	if f.MinPrice != nil {
		conds = append(conds, "price >= "+next(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		conds = append(conds, "price <= "+next(*f.MaxPrice))
	}

	query := `SELECT ` + courseColumns + ` FROM courses`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	courses := []models.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, *c)
	}
	return courses, rows.Err()
}

// Create inserts a course, assigning its id and timestamps.
func (s *CourseStore) Create(ctx context.Context, c *models.Course) error {
	modules, err := encodeModules(c.Modules)
	if err != nil {
		return err
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = models.CourseActive
	}
	c.CreatedAt = now()
	c.UpdatedAt = c.CreatedAt

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO courses (id, title, description, price, price_offer, image, video_promo, category, status, modules, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, c.ID, c.Title, c.Description, c.Price, c.PriceOffer, c.Image, c.VideoPromo,
		c.Category, c.Status, modules, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update overwrites every editable column of an existing course.
func (s *CourseStore) Update(ctx context.Context, c *models.Course) error {
	modules, err := encodeModules(c.Modules)
	if err != nil {
		return err
	}
	c.UpdatedAt = now()

	res, err := s.db.ExecContext(ctx, `
		UPDATE courses SET title = $1, description = $2, price = $3, price_offer = $4, image = $5,
			video_promo = $6, category = $7, status = $8, modules = $9, updated_at = $10
		WHERE id = $11
	`, c.Title, c.Description, c.Price, c.PriceOffer, c.Image, c.VideoPromo,
		c.Category, c.Status, modules, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update course: %w", sql.ErrNoRows)
	}
	return nil
}

// Delete removes a course. Returns false if it did not exist.
func (s *CourseStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete course: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete course: %w", err)
	}
	return n > 0, nil
}

// Categories returns the distinct non-empty categories used by courses.
func (s *CourseStore) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT category FROM courses WHERE category <> '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list course categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func encodeModules(modules []models.Module) (string, error) {
	if modules == nil {
		modules = []models.Module{}
	}
	b, err := json.Marshal(modules)
	if err != nil {
		return "", fmt.Errorf("encode modules: %w", err)
	}
	return string(b), nil
}
