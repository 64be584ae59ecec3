// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package scheduler runs periodic maintenance with robfig/cron: payment
// reconciliation, membership expiry and recovery code cleanup. Overlapping
// runs of the same job are skipped and panics are recovered.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"coursestore/internal/metrics"
)

// DefaultJobTimeout bounds a single job run.
const DefaultJobTimeout = 5 * time.Minute

// Job is a unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler runs named jobs on cron specs.
type Scheduler struct {
	cron    *cron.Cron
	metrics *metrics.Metrics
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a Scheduler. m may be nil.
func New(m *metrics.Metrics) *Scheduler {
	logger := slogLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		), cron.WithLogger(logger)),
		metrics: m,
		timeout: DefaultJobTimeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Add registers job under name to run on spec, which accepts standard
// five-field cron expressions and descriptors such as "@every 10m".
func (s *Scheduler) Add(name, spec string, job Job) error {
	if _, err := s.cron.AddFunc(spec, func() { s.run(name, job) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	slog.Info("job scheduled", "job", name, "spec", spec)
	return nil
}

// RunNow executes a registered job body once, outside the schedule.
func (s *Scheduler) RunNow(name string, job Job) {
	s.run(name, job)
}

func (s *Scheduler) run(name string, job Job) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := job(ctx)
	s.metrics.RecordJob(name, err)
	if err != nil {
		slog.Error("job failed", "job", name, "duration", time.Since(start), "error", err)
		return
	}
	slog.Debug("job finished", "job", name, "duration", time.Since(start))
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		slog.Warn("scheduler stop timed out")
	}
}

// slogLogger adapts slog to cron.Logger.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
