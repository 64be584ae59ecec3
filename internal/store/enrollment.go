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
	"time"

	"github.com/google/uuid"

	"coursestore/internal/database"
	"coursestore/internal/models"
)

// EnrollmentStore handles course access and progress persistence.
type EnrollmentStore struct {
	db database.Querier
}

// NewEnrollmentStore creates a new EnrollmentStore.
func NewEnrollmentStore(db database.Querier) *EnrollmentStore {
	return &EnrollmentStore{db: db}
}

// WithTx returns an EnrollmentStore that runs its statements inside tx.
func (s *EnrollmentStore) WithTx(tx *database.Tx) *EnrollmentStore {
	return &EnrollmentStore{db: tx}
}

// Grant enrolls a user in a course with zero progress. The unique
// (user_id, course_id) key makes it idempotent; the result reports whether
// a new row was created.
func (s *EnrollmentStore) Grant(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	t := now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO enrollments (id, user_id, course_id, progress, total_hours_spent, completed_lessons, last_access, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, course_id) DO NOTHING
	`, uuid.New(), userID, courseID, 0, 0.0, "[]", t, t)
	if err != nil {
		return false, fmt.Errorf("grant course: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("grant course: %w", err)
	}
	return n == 1, nil
}

// Find returns a user's enrollment in a course. Returns nil if not enrolled.
func (s *EnrollmentStore) Find(ctx context.Context, userID, courseID uuid.UUID) (*models.Enrollment, error) {
	e := &models.Enrollment{}
	var lessons []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, course_id, progress, total_hours_spent, completed_lessons, last_access, created_at
		FROM enrollments WHERE user_id = $1 AND course_id = $2
	`, userID, courseID).Scan(
		&e.ID, &e.UserID, &e.CourseID, &e.Progress, &e.TotalHoursSpent, &lessons, &e.LastAccess, &e.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	if e.CompletedLessons, err = decodeLessons(lessons); err != nil {
		return nil, err
	}
	return e, nil
}

// Count returns how many enrollments a user has in a course (0 or 1).
func (s *EnrollmentStore) Count(ctx context.Context, userID, courseID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM enrollments WHERE user_id = $1 AND course_id = $2`, userID, courseID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return n, nil
}

// ProgressUpdate lists the fields a progress write may change. Nil fields
// are left as they are; HoursToAdd is added to the running total.
type ProgressUpdate struct {
	Progress         *int
	HoursToAdd       float64
	CompletedLessons []models.FlexID
}

// UpdateProgress applies u to an enrollment and refreshes last_access to at.
// It reports false when the user is not enrolled in the course.
func (s *EnrollmentStore) UpdateProgress(ctx context.Context, userID, courseID uuid.UUID, u ProgressUpdate, at time.Time) (bool, error) {
	var (
		sets []string
		args []any
	)
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	sets = append(sets, "last_access = "+next(at))
	if u.Progress != nil {
		sets = append(sets, "progress = "+next(*u.Progress))
	}
	if u.HoursToAdd != 0 {
		sets = append(sets, "total_hours_spent = total_hours_spent + "+next(u.HoursToAdd))
	}
	if u.CompletedLessons != nil {
		b, err := json.Marshal(u.CompletedLessons)
		if err != nil {
			return false, fmt.Errorf("encode completed lessons: %w", err)
		}
		sets = append(sets, "completed_lessons = "+next(string(b)))
	}

	query := "UPDATE enrollments SET " + strings.Join(sets, ", ") +
		" WHERE user_id = " + next(userID) + " AND course_id = " + next(courseID)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update progress: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update progress: %w", err)
	}
	return n > 0, nil
}

// ListMyCourses returns a user's enrollments joined with their courses,
// most recently accessed first.
func (s *EnrollmentStore) ListMyCourses(ctx context.Context, userID uuid.UUID) ([]models.MyCourse, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.title, c.image, c.description, e.progress, e.last_access, c.modules, e.completed_lessons
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1
		ORDER BY e.last_access DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list my courses: %w", err)
	}
	defer rows.Close()

	courses := []models.MyCourse{}
	for rows.Next() {
		var (
			mc               models.MyCourse
			modules, lessons []byte
		)
		if err := rows.Scan(&mc.ID, &mc.Name, &mc.Image, &mc.Description, &mc.Progress, &mc.LastAccess, &modules, &lessons); err != nil {
			return nil, fmt.Errorf("scan my course: %w", err)
		}
		mc.Modules = []models.Module{}
		if len(modules) > 0 {
			if err := json.Unmarshal(modules, &mc.Modules); err != nil {
				return nil, fmt.Errorf("decode modules: %w", err)
			}
		}
		if mc.CompletedLessons, err = decodeLessons(lessons); err != nil {
			return nil, err
		}
		courses = append(courses, mc)
	}
	return courses, rows.Err()
}

// Dashboard aggregates a user's enrollments: courses with progress of 100 or
// more count as completed, hours are summed, and the most recently accessed
// course is returned with its title and image.
func (s *EnrollmentStore) Dashboard(ctx context.Context, userID uuid.UUID) (*models.Dashboard, error) {
	d := &models.Dashboard{}
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN progress >= 100 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(total_hours_spent), 0)
		FROM enrollments WHERE user_id = $1
	`, userID).Scan(&d.Stats.Completed, &d.Stats.TotalHours)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}

	lc := &models.LastCourse{}
	err = s.db.QueryRowContext(ctx, `
		SELECT c.id, c.title, c.image, e.progress, e.last_access
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1
		ORDER BY e.last_access DESC
		LIMIT 1
	`, userID).Scan(&lc.ID, &lc.Title, &lc.Image, &lc.Progress, &lc.LastAccess)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("dashboard last course: %w", err)
	default:
		d.LastCourse = lc
	}
	return d, nil
}

func decodeLessons(b []byte) ([]models.FlexID, error) {
	lessons := []models.FlexID{}
	if len(b) == 0 {
		return lessons, nil
	}
	if err := json.Unmarshal(b, &lessons); err != nil {
		return nil, fmt.Errorf("decode completed lessons: %w", err)
	}
	return lessons, nil
}
