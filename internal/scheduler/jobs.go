// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Job names.
const (
	JobReconcile   = "reconcile-payments"
	JobExpiry      = "expire-memberships"
	JobPurgeResets = "purge-password-resets"
)

// Reconciler finalizes paid orders whose confirmation was missed.
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// Expirer marks ended memberships as expired.
type Expirer interface {
	ExpireMemberships(ctx context.Context) (int64, error)
}

// ResetPurger deletes used and expired recovery codes.
type ResetPurger interface {
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// Specs are the cron expressions of the built-in jobs.
type Specs struct {
	Reconcile string
	Expiry    string
	Purge     string
}

// Register schedules the built-in jobs. A nil dependency skips its job.
func (s *Scheduler) Register(specs Specs, r Reconciler, e Expirer, p ResetPurger) error {
	if r != nil && specs.Reconcile != "" {
		if err := s.Add(JobReconcile, specs.Reconcile, ReconcileJob(r)); err != nil {
			return err
		}
	}
	if e != nil && specs.Expiry != "" {
		if err := s.Add(JobExpiry, specs.Expiry, ExpiryJob(e)); err != nil {
			return err
		}
	}
	if p != nil && specs.Purge != "" {
		if err := s.Add(JobPurgeResets, specs.Purge, PurgeJob(p)); err != nil {
			return err
		}
	}
	return nil
}

// ReconcileJob wraps a Reconciler.
func ReconcileJob(r Reconciler) Job {
	return func(ctx context.Context) error {
		n, err := r.Reconcile(ctx)
		if n > 0 {
			slog.Info("reconciled paid orders", "count", n)
		}
		return err
	}
}

// ExpiryJob wraps an Expirer.
func ExpiryJob(e Expirer) Job {
	return func(ctx context.Context) error {
		n, err := e.ExpireMemberships(ctx)
		if n > 0 {
			slog.Info("memberships expired", "count", n)
		}
		return err
	}
}

// PurgeJob wraps a ResetPurger. Expired codes are kept for a day.
func PurgeJob(p ResetPurger) Job {
	return func(ctx context.Context) error {
		n, err := p.Purge(ctx, time.Now().UTC().Add(-24*time.Hour))
		if n > 0 {
			slog.Info("password resets purged", "count", n)
		}
		return err
	}
}
