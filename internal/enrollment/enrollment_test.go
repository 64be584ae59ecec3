// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package enrollment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/containerd/errdefs"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursestore/internal/database"
	"coursestore/internal/database/dbtest"
	"coursestore/internal/metrics"
	"coursestore/internal/models"
	"coursestore/internal/store"
)

func newService(t *testing.T) (*Service, *database.DB) {
	t.Helper()
	db := dbtest.New(t)
	return NewService(db, nil), db
}

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestGrantCourse_Idempotent(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	user := dbtest.User(t, db, "ana@example.com")
	course := dbtest.Course(t, db, "Curso Fiscal", "100.00")

	created, err := s.GrantCourse(ctx, user, course)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.GrantCourse(ctx, user, course)
	require.NoError(t, err)
	assert.False(t, created)

	n, err := store.NewEnrollmentStore(db).Count(ctx, user, course)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	e, err := store.NewEnrollmentStore(db).Find(ctx, user, course)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, 0, e.Progress)
	assert.Equal(t, 0.0, e.TotalHoursSpent)
}

func TestGrantCourse_Concurrent(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	user := dbtest.User(t, db, "race@example.com")
	course := dbtest.Course(t, db, "Curso Concurrente", "50.00")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.GrantCourse(ctx, user, course)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := store.NewEnrollmentStore(db).Count(ctx, user, course)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestGrantCourse_UnknownCourse(t *testing.T) {
	s, db := newService(t)
	user := dbtest.User(t, db, "ana@example.com")

	_, err := s.GrantCourse(context.Background(), user, uuid.New())
	assert.True(t, errdefs.IsNotFound(err))
}

func TestGrantMembership_OncePerPayment(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	user := dbtest.User(t, db, "vip@example.com")

	m, created, err := s.GrantMembership(ctx, user, "order-1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.MembershipActive, m.Status)
	assert.Equal(t, m.StartDate.AddDate(1, 0, 0), m.EndDate)

	_, created, err = s.GrantMembership(ctx, user, "order-1")
	require.NoError(t, err)
	assert.False(t, created)

	n, err := store.NewMembershipStore(db).CountByPayment(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	active, err := s.Membership(ctx, user)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "order-1", active.PaymentID)
}

func TestManualGrant(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	user := dbtest.User(t, db, "gift@example.com")

	m, err := s.ManualGrant(ctx, user)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(m.PaymentID, models.ManualGrantPrefix))

	_, err = s.ManualGrant(ctx, uuid.New())
	assert.True(t, errdefs.IsNotFound(err))
}

func TestGrantOrder(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	user := dbtest.User(t, db, "buyer@example.com")
	a := dbtest.Course(t, db, "A", "100.00")
	b := dbtest.Course(t, db, "B", "50.00")

	order := &models.Order{
		UserID: user,
		Total:  decimal.RequireFromString("1149.00"),
		Items: []models.OrderItem{
			{ID: a.String(), Quantity: 1},
			{ID: b.String(), Quantity: 2},
			{ID: models.MembershipProductID, Quantity: 1},
			{ID: uuid.NewString(), Quantity: 1}, // deleted after checkout
			{ID: "not-a-course", Quantity: 1},
		},
	}
	require.NoError(t, store.NewOrderStore(db).Create(ctx, order))

	var res GrantResult
	err := db.InTx(ctx, func(tx *database.Tx) error {
		var err error
		res, err = s.GrantOrder(ctx, tx, order)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, GrantResult{Enrollments: 2, Memberships: 1}, res)

	// Replaying the same order creates nothing new.
	err = db.InTx(ctx, func(tx *database.Tx) error {
		var err error
		res, err = s.GrantOrder(ctx, tx, order)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, GrantResult{}, res)

	courses, err := s.MyCourses(ctx, user)
	require.NoError(t, err)
	assert.Len(t, courses, 2)

	n, err := store.NewMembershipStore(db).CountByPayment(ctx, order.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestGrantOrder_LeavesCountingToCaller(t *testing.T) {
	db := dbtest.New(t)
	m := metrics.New()
	s := NewService(db, m)
	ctx := context.Background()
	user := dbtest.User(t, db, "count@example.com")
	course := dbtest.Course(t, db, "A", "100.00")

	order := &models.Order{
		UserID: user,
		Total:  decimal.RequireFromString("1099.00"),
		Items:  []models.OrderItem{{ID: course.String(), Quantity: 1}, {ID: models.MembershipProductID, Quantity: 1}},
	}
	require.NoError(t, store.NewOrderStore(db).Create(ctx, order))

	err := db.InTx(ctx, func(tx *database.Tx) error {
		res, err := s.GrantOrder(ctx, tx, order)
		if err != nil {
			return err
		}
		assert.Equal(t, GrantResult{Enrollments: 1, Memberships: 1}, res)
		return errors.New("abort")
	})
	require.EqualError(t, err, "abort")

	n, err := store.NewEnrollmentStore(db).Count(ctx, user, course)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.EnrollmentsGrantedTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.MembershipsGrantedTotal))

	// Direct grants outside an order are counted as they happen.
	_, _, err = s.GrantMembership(ctx, user, "manual-1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MembershipsGrantedTotal))
}

func TestRecordProgress(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	user := dbtest.User(t, db, "student@example.com")
	course := dbtest.Course(t, db, "Curso", "100.00")
	_, err := s.GrantCourse(ctx, user, course)
	require.NoError(t, err)

	require.NoError(t, s.RecordProgress(ctx, user, course, ProgressInput{
		Progress:         intPtr(40),
		HoursToAdd:       floatPtr(1.5),
		CompletedLessons: []models.FlexID{"1"},
	}))
	require.NoError(t, s.RecordProgress(ctx, user, course, ProgressInput{HoursToAdd: floatPtr(2)}))

	e, err := store.NewEnrollmentStore(db).Find(ctx, user, course)
	require.NoError(t, err)
	assert.Equal(t, 40, e.Progress, "absent progress keeps the stored value")
	assert.InDelta(t, 3.5, e.TotalHoursSpent, 1e-9)
	assert.Equal(t, []models.FlexID{"1"}, e.CompletedLessons)

	// Progress is an overwrite and may go down.
	require.NoError(t, s.RecordProgress(ctx, user, course, ProgressInput{Progress: intPtr(10)}))
	e, err = store.NewEnrollmentStore(db).Find(ctx, user, course)
	require.NoError(t, err)
	assert.Equal(t, 10, e.Progress)
}

func TestRecordProgress_Validation(t *testing.T) {
	s, db := newService(t)
	user := dbtest.User(t, db, "student@example.com")
	course := dbtest.Course(t, db, "Curso", "100.00")
	ctx := context.Background()

	err := s.RecordProgress(ctx, user, course, ProgressInput{Progress: intPtr(101)})
	assert.True(t, errdefs.IsInvalidArgument(err))

	err = s.RecordProgress(ctx, user, course, ProgressInput{HoursToAdd: floatPtr(-1)})
	assert.True(t, errdefs.IsInvalidArgument(err))
}

func TestRecordProgress_NotEnrolled(t *testing.T) {
	s, db := newService(t)
	user := dbtest.User(t, db, "guest@example.com")
	course := dbtest.Course(t, db, "Curso", "100.00")

	err := s.RecordProgress(context.Background(), user, course, ProgressInput{Progress: intPtr(5)})
	assert.True(t, errdefs.IsNotFound(err))
}

func TestRecordProgress_MemberAutoEnroll(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	user := dbtest.User(t, db, "member@example.com")
	course := dbtest.Course(t, db, "Curso", "100.00")
	_, _, err := s.GrantMembership(ctx, user, "order-vip")
	require.NoError(t, err)

	require.NoError(t, s.RecordProgress(ctx, user, course, ProgressInput{Progress: intPtr(20)}))

	e, err := store.NewEnrollmentStore(db).Find(ctx, user, course)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, 20, e.Progress)
}

func TestDashboard(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	user := dbtest.User(t, db, "dash@example.com")
	a := dbtest.Course(t, db, "Terminado", "100.00")
	b := dbtest.Course(t, db, "En curso", "100.00")
	for _, c := range []uuid.UUID{a, b} {
		_, err := s.GrantCourse(ctx, user, c)
		require.NoError(t, err)
	}

	base := time.Now().UTC()
	s.now = func() time.Time { return base }
	require.NoError(t, s.RecordProgress(ctx, user, a, ProgressInput{Progress: intPtr(100), HoursToAdd: floatPtr(4)}))
	s.now = func() time.Time { return base.Add(time.Minute) }
	require.NoError(t, s.RecordProgress(ctx, user, b, ProgressInput{Progress: intPtr(30), HoursToAdd: floatPtr(1)}))

	d, err := s.Dashboard(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Stats.Completed)
	assert.InDelta(t, 5.0, d.Stats.TotalHours, 1e-9)
	require.NotNil(t, d.LastCourse)
	assert.Equal(t, b, d.LastCourse.ID)
	assert.Equal(t, "En curso", d.LastCourse.Title)
}

func TestExpireMemberships(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	user := dbtest.User(t, db, "old@example.com")

	past := time.Now().UTC().AddDate(-2, 0, 0)
	s.now = func() time.Time { return past }
	_, _, err := s.GrantMembership(ctx, user, "order-old")
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().UTC() }
	n, err := s.ExpireMemberships(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	m, err := s.Membership(ctx, user)
	require.NoError(t, err)
	assert.Nil(t, m)
}
