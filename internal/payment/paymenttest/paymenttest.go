// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package paymenttest provides an in-memory payment.Gateway for tests.
package paymenttest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"coursestore/internal/payment"
)

// Signature is the only signature header the fake accepts.
const Signature = "t=0,v1=fake"

// Gateway records created sessions and lets tests settle them.
type Gateway struct {
	mu       sync.Mutex
	sessions map[string]*payment.Session
	requests []payment.SessionRequest
	seq      int

	// CreateErr, when set, fails every CreateSession call.
	CreateErr error
	// Block, when non-nil, stalls CreateSession until it is closed. The
	// stall ignores ctx to mimic an unresponsive provider.
	Block chan struct{}
}

// New creates an empty fake gateway.
func New() *Gateway {
	return &Gateway{sessions: make(map[string]*payment.Session)}
}

// CreateSession implements payment.Gateway.
func (g *Gateway) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	if g.Block != nil {
		<-g.Block
	}
	if g.CreateErr != nil {
		return nil, g.CreateErr
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	id := fmt.Sprintf("cs_test_%d", g.seq)
	s := &payment.Session{
		ID:            id,
		URL:           "https://checkout.example.test/" + id,
		PaymentStatus: "unpaid",
		Metadata: map[string]string{
			payment.MetaOrderID: req.OrderID,
			payment.MetaUserID:  req.UserID,
			payment.MetaCoupon:  req.CouponCode,
		},
	}
	g.sessions[id] = s
	g.requests = append(g.requests, req)
	cp := *s
	return &cp, nil
}

// GetSession implements payment.Gateway.
func (g *Gateway) GetSession(_ context.Context, id string) (*payment.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[id]
	if !ok {
		return nil, payment.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

// ParseWebhook implements payment.Gateway. The payload is a JSON
// {"id","type","sessionId"} document referring to a known session.
func (g *Gateway) ParseWebhook(payload []byte, signature string) (*payment.Event, error) {
	if signature != Signature {
		return nil, errors.New("no signatures found matching the expected signature for payload")
	}
	var body struct {
		ID        string `json:"id"`
		Type      string `json:"type"`
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	ev := &payment.Event{ID: body.ID, Type: body.Type}
	if body.SessionID != "" {
		s, err := g.GetSession(context.Background(), body.SessionID)
		if err != nil {
			return nil, err
		}
		ev.Session = s
	}
	return ev, nil
}

// Pay marks a session as paid.
func (g *Gateway) Pay(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.sessions[id]; ok {
		s.PaymentStatus = payment.PaymentStatusPaid
	}
}

// Requests returns a copy of every session request received.
func (g *Gateway) Requests() []payment.SessionRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]payment.SessionRequest(nil), g.requests...)
}

// Event builds a webhook body the fake accepts under Signature.
func Event(eventType, sessionID string) []byte {
	b, _ := json.Marshal(map[string]string{"id": "evt_" + sessionID, "type": eventType, "sessionId": sessionID})
	return b
}
