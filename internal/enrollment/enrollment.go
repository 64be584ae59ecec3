// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package enrollment grants course access and memberships and tracks
// student progress. Grants are idempotent: enrollments are unique per
// (user, course) and memberships per payment id, so repeated finalize
// calls for one order never duplicate entitlements.
package enrollment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"coursestore/internal/apperr"
	"coursestore/internal/database"
	"coursestore/internal/metrics"
	"coursestore/internal/models"
	"coursestore/internal/store"
)

// Service is the enrollment and membership engine.
type Service struct {
	db          *database.DB
	enrollments *store.EnrollmentStore
	memberships *store.MembershipStore
	courses     *store.CourseStore
	users       *store.UserStore
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewService creates a Service. m may be nil.
func NewService(db *database.DB, m *metrics.Metrics) *Service {
	return &Service{
		db:          db,
		enrollments: store.NewEnrollmentStore(db),
		memberships: store.NewMembershipStore(db),
		courses:     store.NewCourseStore(db),
		users:       store.NewUserStore(db),
		metrics:     m,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// MembershipTerm returns the end of a membership starting at start.
func MembershipTerm(start time.Time) time.Time {
	return start.AddDate(1, 0, 0)
}

// GrantCourse enrolls a user in a course with zero progress. It reports
// whether a new enrollment was created.
func (s *Service) GrantCourse(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return false, err
	}
	if course == nil {
		return false, apperr.NotFound("Course not found")
	}
	created, err := s.enrollments.Grant(ctx, userID, courseID)
	if err != nil {
		return false, err
	}
	if created {
		s.metrics.RecordGrants(1, 0)
	}
	return created, nil
}

// GrantMembership activates a one-year membership tied to paymentID.
// Granting again for the same payment returns the existing state with
// created=false.
func (s *Service) GrantMembership(ctx context.Context, userID uuid.UUID, paymentID string) (*models.Membership, bool, error) {
	m, created, err := s.grantMembership(ctx, s.memberships, userID, paymentID)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.metrics.RecordGrants(0, 1)
	}
	return m, created, nil
}

func (s *Service) grantMembership(ctx context.Context, ms *store.MembershipStore, userID uuid.UUID, paymentID string) (*models.Membership, bool, error) {
	start := s.now().Truncate(time.Microsecond)
	m := &models.Membership{
		UserID:    userID,
		Status:    models.MembershipActive,
		StartDate: start,
		EndDate:   MembershipTerm(start),
		PaymentID: paymentID,
	}
	created, err := ms.Grant(ctx, m)
	if err != nil {
		return nil, false, err
	}
	return m, created, nil
}

// ManualGrant gives a user a one-year membership on behalf of an
// administrator.
func (s *Service) ManualGrant(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("User not found")
	}
	m, _, err := s.GrantMembership(ctx, userID, models.ManualGrantPrefix+uuid.NewString())
	if err != nil {
		return nil, err
	}
	slog.Info("membership granted manually", "user_id", userID, "end_date", m.EndDate)
	return m, nil
}

// GrantResult counts the entitlements an order created.
type GrantResult struct {
	Enrollments int
	Memberships int
}

// GrantOrder performs the side effects of a paid order inside tx: one
// enrollment per course line and one membership for a membership line,
// keyed by the order id. Lines whose course no longer exists are skipped.
// Nothing is counted here; the caller records the result once tx commits.
func (s *Service) GrantOrder(ctx context.Context, tx *database.Tx, o *models.Order) (GrantResult, error) {
	var res GrantResult
	enrollments := s.enrollments.WithTx(tx)
	memberships := s.memberships.WithTx(tx)
	courses := store.NewCourseStore(tx)

	for _, item := range o.Items {
		if item.IsMembership() {
			_, created, err := s.grantMembership(ctx, memberships, o.UserID, o.ID.String())
			if err != nil {
				return res, err
			}
			if created {
				res.Memberships++
				slog.Info("membership activated", "user_id", o.UserID, "order_id", o.ID)
			}
			continue
		}

		courseID, err := uuid.Parse(item.ID)
		if err != nil {
			slog.Warn("order line is not a course", "order_id", o.ID, "item", item.ID)
			continue
		}
		c, err := courses.FindByID(ctx, courseID)
		if err != nil {
			return res, err
		}
		if c == nil {
			slog.Warn("order course no longer exists", "order_id", o.ID, "course_id", courseID)
			continue
		}
		created, err := enrollments.Grant(ctx, o.UserID, courseID)
		if err != nil {
			return res, err
		}
		if created {
			res.Enrollments++
			slog.Info("user enrolled", "user_id", o.UserID, "course_id", courseID, "order_id", o.ID)
		}
	}
	return res, nil
}

// ProgressInput carries the optional fields of a progress write.
type ProgressInput struct {
	Progress         *int
	HoursToAdd       *float64
	CompletedLessons []models.FlexID
}

func (in ProgressInput) validate() error {
	if in.Progress != nil && (*in.Progress < 0 || *in.Progress > 100) {
		return apperr.Invalid("progress must be between 0 and 100")
	}
	if in.HoursToAdd != nil && *in.HoursToAdd < 0 {
		return apperr.Invalid("hoursToAdd must not be negative")
	}
	return nil
}

// RecordProgress updates the supplied fields of an enrollment and always
// refreshes its last access. A member without an enrollment is enrolled on
// the first write.
func (s *Service) RecordProgress(ctx context.Context, userID, courseID uuid.UUID, in ProgressInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	u := store.ProgressUpdate{Progress: in.Progress, CompletedLessons: in.CompletedLessons}
	if in.HoursToAdd != nil {
		u.HoursToAdd = *in.HoursToAdd
	}

	at := s.now()
	found, err := s.enrollments.UpdateProgress(ctx, userID, courseID, u, at)
	if err != nil {
		return err
	}
	if found {
		return nil
	}

	m, err := s.memberships.Active(ctx, userID, at)
	if err != nil {
		return err
	}
	if m == nil {
		return apperr.NotFound("Not enrolled in this course")
	}
	if _, err := s.GrantCourse(ctx, userID, courseID); err != nil {
		return err
	}
	slog.Info("member enrolled on first access", "user_id", userID, "course_id", courseID)

	if _, err := s.enrollments.UpdateProgress(ctx, userID, courseID, u, at); err != nil {
		return err
	}
	return nil
}

// Dashboard returns the student's summary.
func (s *Service) Dashboard(ctx context.Context, userID uuid.UUID) (*models.Dashboard, error) {
	return s.enrollments.Dashboard(ctx, userID)
}

// MyCourses lists the student's enrolled courses.
func (s *Service) MyCourses(ctx context.Context, userID uuid.UUID) ([]models.MyCourse, error) {
	return s.enrollments.ListMyCourses(ctx, userID)
}

// Membership returns the user's current entitlement, or nil.
func (s *Service) Membership(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	return s.memberships.Active(ctx, userID, s.now())
}

// ExpireMemberships marks every membership past its end date as expired.
func (s *Service) ExpireMemberships(ctx context.Context) (int64, error) {
	n, err := s.memberships.ExpireEnded(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("expire memberships: %w", err)
	}
	s.metrics.RecordExpired(n)
	if n > 0 {
		slog.Info("memberships expired", "count", n)
	}
	return n, nil
}
