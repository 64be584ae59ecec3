// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"io"
	"net/http"
	"strings"

	"coursestore/internal/apperr"
	"coursestore/internal/checkout"
)

// maxWebhookBody matches the payload cap Stripe documents for events.
const maxWebhookBody = 65536

// Checkout groups the payment handlers.
type Checkout struct {
	checkout *checkout.Service
}

// NewCheckout creates the payment handlers.
func NewCheckout(svc *checkout.Service) *Checkout {
	return &Checkout{checkout: svc}
}

// Session handles POST /api/checkout/session.
func (h *Checkout) Session(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Items      []itemInput `json:"items"`
		CouponCode string      `json:"couponCode"`
	}
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := h.checkout.CreateSession(r.Context(), caller(r).UserID, toOrderItems(in.Items), in.CouponCode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// VerifySession handles POST /api/checkout/verify-session.
func (h *Checkout) VerifySession(w http.ResponseWriter, r *http.Request) {
	var in struct {
		SessionID string `json:"sessionId"`
	}
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(in.SessionID) == "" {
		writeError(w, r, apperr.Invalid("sessionId is required"))
		return
	}
	res, err := h.checkout.VerifySession(r.Context(), in.SessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Webhook handles POST /api/stripe/webhook. The signature is computed over
// the exact bytes received, so the body is read raw.
func (h *Checkout) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, r, apperr.Invalid("Request body too large"))
		return
	}
	if err := h.checkout.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
