// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursestore/internal/metrics"
)

type fakeReconciler struct {
	n   int
	err error
}

func (f *fakeReconciler) Reconcile(context.Context) (int, error) { return f.n, f.err }

type fakeExpirer struct{ calls int }

func (f *fakeExpirer) ExpireMemberships(context.Context) (int64, error) {
	f.calls++
	return 2, nil
}

type fakePurger struct{ before time.Time }

func (f *fakePurger) Purge(_ context.Context, before time.Time) (int64, error) {
	f.before = before
	return 0, nil
}

func TestRunNowRecordsOutcome(t *testing.T) {
	m := metrics.New()
	s := New(m)

	s.RunNow(JobReconcile, ReconcileJob(&fakeReconciler{n: 1}))
	s.RunNow(JobReconcile, ReconcileJob(&fakeReconciler{err: errors.New("gateway down")}))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRunsTotal.WithLabelValues(JobReconcile, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRunsTotal.WithLabelValues(JobReconcile, "error")))
}

func TestJobsCallDependencies(t *testing.T) {
	s := New(nil)
	e := &fakeExpirer{}
	p := &fakePurger{}

	s.RunNow(JobExpiry, ExpiryJob(e))
	s.RunNow(JobPurgeResets, PurgeJob(p))

	assert.Equal(t, 1, e.calls)
	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), p.before, time.Minute)
}

func TestRegister(t *testing.T) {
	s := New(nil)
	err := s.Register(Specs{Reconcile: "@every 10m", Expiry: "0 3 * * *", Purge: "@hourly"},
		&fakeReconciler{}, &fakeExpirer{}, &fakePurger{})
	require.NoError(t, err)
	assert.Len(t, s.cron.Entries(), 3)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestRegister_SkipsMissing(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Register(Specs{Reconcile: "@every 10m", Expiry: "0 3 * * *"}, nil, &fakeExpirer{}, nil))
	assert.Len(t, s.cron.Entries(), 1)
}

func TestAdd_InvalidSpec(t *testing.T) {
	s := New(nil)
	assert.Error(t, s.Add("broken", "not a cron spec", func(context.Context) error { return nil }))
}
