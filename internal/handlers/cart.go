// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"coursestore/internal/models"
	"coursestore/internal/pricing"
)

// itemInput is a cart or checkout line as sent by clients, which use
// either "quantity" or "qty".
type itemInput struct {
	ID       string `json:"id"`
	Quantity *int   `json:"quantity"`
	Qty      *int   `json:"qty"`
}

func (in itemInput) quantity() int {
	switch {
	case in.Quantity != nil:
		return *in.Quantity
	case in.Qty != nil:
		return *in.Qty
	default:
		return 0
	}
}

func toCart(items []itemInput) pricing.Cart {
	c := pricing.Cart{Items: make([]pricing.CartItem, 0, len(items))}
	for _, it := range items {
		c.Items = append(c.Items, pricing.CartItem{ID: it.ID, Quantity: it.quantity()})
	}
	return c
}

func toOrderItems(items []itemInput) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, models.OrderItem{ID: it.ID, Quantity: it.quantity()})
	}
	return out
}

// cartRequest is the body of every cart operation: the client's current
// cart plus the operation's arguments.
type cartRequest struct {
	Items      []itemInput `json:"items"`
	ID         string      `json:"id"`
	Quantity   *int        `json:"quantity"`
	Qty        *int        `json:"qty"`
	CouponCode string      `json:"couponCode"`
}

func (req cartRequest) quantity() int {
	return itemInput{Quantity: req.Quantity, Qty: req.Qty}.quantity()
}

// Cart groups the stateless cart handlers.
type Cart struct {
	pricing *pricing.Calculator
}

// NewCart creates the cart handlers.
func NewCart(calc *pricing.Calculator) *Cart {
	return &Cart{pricing: calc}
}

func (h *Cart) respond(w http.ResponseWriter, r *http.Request, cart pricing.Cart, coupon string) {
	priced, err := h.pricing.Reprice(r.Context(), cart, coupon)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, priced)
}

// Add handles POST /api/cart/add.
func (h *Cart) Add(w http.ResponseWriter, r *http.Request) {
	var req cartRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	cart, err := h.pricing.Add(r.Context(), toCart(req.Items), req.ID, req.quantity())
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, cart, req.CouponCode)
}

// Remove handles POST /api/cart/remove.
func (h *Cart) Remove(w http.ResponseWriter, r *http.Request) {
	var req cartRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, pricing.Remove(toCart(req.Items), req.ID), req.CouponCode)
}

// Update handles POST /api/cart/update.
func (h *Cart) Update(w http.ResponseWriter, r *http.Request) {
	var req cartRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, pricing.Update(toCart(req.Items), req.ID, req.quantity()), req.CouponCode)
}

// Quote handles POST /api/cart/quote.
func (h *Cart) Quote(w http.ResponseWriter, r *http.Request) {
	var req cartRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, toCart(req.Items), req.CouponCode)
}
