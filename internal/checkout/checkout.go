// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package checkout turns a cart into a pending order and a hosted payment
// session, and finalizes orders once the payment provider reports them
// paid. The webhook, the client verification call and the reconciliation
// job all converge on Finalize, which is serialized per order and
// idempotent.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"coursestore/internal/apperr"
	"coursestore/internal/database"
	"coursestore/internal/enrollment"
	"coursestore/internal/lock"
	"coursestore/internal/metrics"
	"coursestore/internal/models"
	"coursestore/internal/payment"
	"coursestore/internal/pricing"
	"coursestore/internal/store"
)

const (
	// DefaultSessionTimeout bounds the payment session call independently
	// of the provider SDK's own retries.
	DefaultSessionTimeout = 12 * time.Second

	// Reconciliation looks at pending orders younger than reconcileWindow
	// and older than reconcileGrace, leaving fresh ones to the webhook.
	reconcileWindow = 72 * time.Hour
	reconcileGrace  = 2 * time.Minute

	successPath = "/panel.html?payment_success=true&session_id={CHECKOUT_SESSION_ID}"
	cancelPath  = "/cart.html?canceled=true"
)

// ErrDisabled is returned by every operation when no gateway is configured.
var ErrDisabled = apperr.Unavailable("Payments are not configured")

// Config holds checkout settings.
type Config struct {
	// AppURL is the public base URL the provider redirects back to.
	AppURL string
	// SessionTimeout overrides DefaultSessionTimeout when positive.
	SessionTimeout time.Duration
}

// Service is the checkout orchestrator and payment callback handler.
type Service struct {
	db      *database.DB
	orders  *store.OrderStore
	coupons *store.CouponStore
	users   *store.UserStore
	pricing *pricing.Calculator
	grants  *enrollment.Service
	gateway payment.Gateway
	locker  lock.Locker
	metrics *metrics.Metrics
	appURL  string
	timeout time.Duration
	now     func() time.Time
}

// NewService creates a checkout Service. A nil gateway disables checkout;
// a nil locker serializes finalize within this process only.
func NewService(
	db *database.DB,
	calc *pricing.Calculator,
	grants *enrollment.Service,
	gateway payment.Gateway,
	locker lock.Locker,
	m *metrics.Metrics,
	cfg Config,
) *Service {
	if locker == nil {
		locker = lock.NewLocal()
	}
	timeout := cfg.SessionTimeout
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	return &Service{
		db:      db,
		orders:  store.NewOrderStore(db),
		coupons: store.NewCouponStore(db),
		users:   store.NewUserStore(db),
		pricing: calc,
		grants:  grants,
		gateway: gateway,
		locker:  locker,
		metrics: m,
		appURL:  strings.TrimRight(cfg.AppURL, "/"),
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Enabled reports whether a payment gateway is configured.
func (s *Service) Enabled() bool {
	return s.gateway != nil
}

// Session is the outcome of CreateSession.
type Session struct {
	URL     string        `json:"url"`
	OrderID uuid.UUID     `json:"orderId"`
	Order   *models.Order `json:"-"`
}

// CreateSession prices items, records a pending order and opens a hosted
// payment session for it. Unknown or inactive coupon codes are ignored. The
// order is written before the provider is contacted and stays pending if
// that call fails or times out.
func (s *Service) CreateSession(ctx context.Context, userID uuid.UUID, items []models.OrderItem, couponCode string) (*Session, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}
	if len(items) == 0 {
		return nil, apperr.Invalid("Cart is empty")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.Unauthenticated("User not found")
	}

	mult, coupon, err := s.pricing.Multiplier(ctx, couponCode)
	if err != nil {
		return nil, err
	}
	quote, err := s.pricing.Price(ctx, items, mult)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID: userID,
		Total:  quote.Total,
		Items:  make([]models.OrderItem, 0, len(quote.Lines)),
	}
	for _, l := range quote.Lines {
		order.Items = append(order.Items, models.OrderItem{ID: l.Product.ID, Quantity: l.Quantity})
	}
	if coupon != nil {
		order.CouponCode = coupon.Code
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	slog.Info("order created", "order_id", order.ID, "user_id", userID, "total", order.Total.StringFixed(2), "coupon", order.CouponCode)

	req := payment.SessionRequest{
		OrderID:    order.ID.String(),
		UserID:     userID.String(),
		CouponCode: order.CouponCode,
		Email:      user.Email,
		Lines:      sessionLines(quote, coupon),
		SuccessURL: s.appURL + successPath,
		CancelURL:  s.appURL + cancelPath,
	}

	start := time.Now()
	sess, err := s.openSession(ctx, req)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		s.metrics.RecordCheckout(metrics.CheckoutTimeout, time.Since(start))
		slog.Error("payment session timed out", "order_id", order.ID, "timeout", s.timeout)
		return nil, apperr.Timeout("Payment gateway timeout")
	case err != nil:
		s.metrics.RecordCheckout(metrics.CheckoutFailed, time.Since(start))
		slog.Error("payment session failed", "order_id", order.ID, "error", err)
		return nil, apperr.Unavailable(fmt.Sprintf("Payment gateway error: %v", err))
	}
	s.metrics.RecordCheckout(metrics.CheckoutCreated, time.Since(start))

	if err := s.orders.SetSessionID(ctx, order.ID, sess.ID); err != nil {
		return nil, err
	}
	order.SessionID = &sess.ID
	slog.Info("payment session opened", "order_id", order.ID, "session_id", sess.ID)

	return &Session{URL: sess.URL, OrderID: order.ID, Order: order}, nil
}

// openSession races the provider call against the session timeout. The
// call runs on its own goroutine so a provider that ignores ctx cannot hold
// the request past the deadline.
func (s *Service) openSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		sess *payment.Session
		err  error
	}
	done := make(chan result, 1)
	go func() {
		sess, err := s.gateway.CreateSession(ctx, req)
		done <- result{sess, err}
	}()

	select {
	case r := <-done:
		return r.sess, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func sessionLines(q *pricing.Quote, coupon *models.Coupon) []payment.LineItem {
	lines := make([]payment.LineItem, 0, len(q.Lines))
	for _, l := range q.Lines {
		name := l.Product.Name
		if coupon != nil && q.Multiplier.LessThan(decimal.NewFromInt(1)) {
			name += fmt.Sprintf(" (Desc. %s -%s%%)", coupon.Code, coupon.Discount.Round(0).String())
		}
		lines = append(lines, payment.LineItem{
			Name:       name,
			Image:      l.Product.Image,
			UnitAmount: pricing.ToMinorUnits(l.UnitPrice),
			Quantity:   int64(l.Quantity),
		})
	}
	return lines
}
