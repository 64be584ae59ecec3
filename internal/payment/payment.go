// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package payment abstracts the hosted checkout provider. The checkout
// orchestrator talks only to Gateway; Stripe is the production
// implementation.
package payment

import (
	"context"
	"errors"
)

// Session metadata keys. The gateway echoes them back on retrieval and in
// webhook payloads, which is how a paid session finds its order.
const (
	MetaOrderID = "orderId"
	MetaUserID  = "userId"
	MetaCoupon  = "coupon"
)

// Event types the callback handler acts on. Anything else is acknowledged
// and ignored.
const (
	EventCheckoutCompleted     = "checkout.session.completed"
	EventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

// Payment statuses that count as collected.
const (
	PaymentStatusPaid      = "paid"
	PaymentStatusNoPayment = "no_payment_required"
)

// ErrSessionNotFound is returned when the gateway has no such session.
var ErrSessionNotFound = errors.New("payment session not found")

// LineItem is one priced line sent to the hosted page.
type LineItem struct {
	Name        string
	Description string
	Image       string
	UnitAmount  int64 // minor currency units, discount already applied
	Quantity    int64
}

// SessionRequest describes a checkout session to open.
type SessionRequest struct {
	OrderID    string
	UserID     string
	CouponCode string
	Email      string
	Lines      []LineItem
	SuccessURL string
	CancelURL  string
}

// Session is the gateway's view of a checkout session.
type Session struct {
	ID            string
	URL           string
	PaymentStatus string
	Metadata      map[string]string
}

// Paid reports whether the session has collected payment.
func (s *Session) Paid() bool {
	return s.PaymentStatus == PaymentStatusPaid || s.PaymentStatus == PaymentStatusNoPayment
}

// OrderID returns the internal order id bound to the session.
func (s *Session) OrderID() string { return s.Metadata[MetaOrderID] }

// UserID returns the internal user id bound to the session.
func (s *Session) UserID() string { return s.Metadata[MetaUserID] }

// Event is a verified webhook notification. Session is set for checkout
// session events only.
type Event struct {
	ID      string
	Type    string
	Session *Session
}

// Completed reports whether the event signals a collected payment.
func (e *Event) Completed() bool {
	if e.Session == nil {
		return false
	}
	switch e.Type {
	case EventCheckoutCompleted:
		return e.Session.Paid()
	case EventAsyncPaymentSucceeded:
		return true
	}
	return false
}

// Gateway is a hosted checkout provider.
type Gateway interface {
	// CreateSession opens a hosted payment page.
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	// GetSession fetches a session, returning ErrSessionNotFound when the
	// gateway does not know the id.
	GetSession(ctx context.Context, id string) (*Session, error)
	// ParseWebhook authenticates a raw notification body against its
	// signature header and decodes it.
	ParseWebhook(payload []byte, signature string) (*Event, error)
}
