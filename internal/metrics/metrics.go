// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package metrics defines the Prometheus collectors exported on /metrics.
// A nil *Metrics is valid; every Record method on it is a no-op, so
// services and tests can run without a registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coursestore"

// Checkout session outcomes.
const (
	CheckoutCreated = "created"
	CheckoutFailed  = "failed"
	CheckoutTimeout = "timeout"
)

// Finalize sources.
const (
	SourceWebhook   = "webhook"
	SourceVerify    = "verify"
	SourceReconcile = "reconcile"
)

// Metrics holds every collector of the service.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Checkout
	CheckoutSessionsTotal   *prometheus.CounterVec
	CheckoutSessionDuration prometheus.Histogram
	OrdersFinalizedTotal    *prometheus.CounterVec
	WebhookEventsTotal      *prometheus.CounterVec

	// Entitlements
	EnrollmentsGrantedTotal prometheus.Counter
	MembershipsGrantedTotal prometheus.Counter
	MembershipsExpiredTotal prometheus.Counter

	// Jobs
	JobRunsTotal *prometheus.CounterVec
}

// New creates the collectors on a private registry that also carries the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		HTTPRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		CheckoutSessionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkout_sessions_total",
				Help:      "Checkout sessions by outcome",
			},
			[]string{"result"},
		),
		CheckoutSessionDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "checkout_session_duration_seconds",
				Help:      "Time spent opening a payment session",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 12, 15},
			},
		),
		OrdersFinalizedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_finalized_total",
				Help:      "Orders transitioned to paid, by source",
			},
			[]string{"source"},
		),
		WebhookEventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_events_total",
				Help:      "Payment webhook events by type and outcome",
			},
			[]string{"type", "outcome"},
		),
		EnrollmentsGrantedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "enrollments_granted_total",
				Help:      "New course enrollments",
			},
		),
		MembershipsGrantedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "memberships_granted_total",
				Help:      "New memberships",
			},
		),
		MembershipsExpiredTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "memberships_expired_total",
				Help:      "Memberships moved to expired",
			},
		),
		JobRunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "job_runs_total",
				Help:      "Scheduled job runs by job and outcome",
			},
			[]string{"job", "outcome"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordHTTP records one served request.
func (m *Metrics) RecordHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, statusText(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// TrackInFlight counts a request as in flight until the returned func runs.
func (m *Metrics) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.HTTPRequestsInFlight.Inc()
	return m.HTTPRequestsInFlight.Dec
}

// RecordCheckout records a checkout session attempt.
func (m *Metrics) RecordCheckout(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.CheckoutSessionsTotal.WithLabelValues(result).Inc()
	m.CheckoutSessionDuration.Observe(d.Seconds())
}

// RecordFinalized records an order transition to paid.
func (m *Metrics) RecordFinalized(source string) {
	if m == nil {
		return
	}
	m.OrdersFinalizedTotal.WithLabelValues(source).Inc()
}

// RecordWebhook records a webhook delivery.
func (m *Metrics) RecordWebhook(eventType, outcome string) {
	if m == nil {
		return
	}
	m.WebhookEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

// RecordGrants records newly created enrollments and memberships.
func (m *Metrics) RecordGrants(enrollments, memberships int) {
	if m == nil {
		return
	}
	m.EnrollmentsGrantedTotal.Add(float64(enrollments))
	m.MembershipsGrantedTotal.Add(float64(memberships))
}

// RecordExpired records memberships moved to expired.
func (m *Metrics) RecordExpired(n int64) {
	if m == nil {
		return
	}
	m.MembershipsExpiredTotal.Add(float64(n))
}

// RecordJob records a scheduled job run.
func (m *Metrics) RecordJob(job string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.JobRunsTotal.WithLabelValues(job, outcome).Inc()
}

func statusText(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
