// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"coursestore/internal/apperr"
	"coursestore/internal/database"
	"coursestore/internal/models"
	"coursestore/internal/store"
)

// Commerce groups order and coupon handlers.
type Commerce struct {
	orders  *store.OrderStore
	coupons *store.CouponStore
}

// NewCommerce creates the order and coupon handlers.
func NewCommerce(db *database.DB) *Commerce {
	return &Commerce{
		orders:  store.NewOrderStore(db),
		coupons: store.NewCouponStore(db),
	}
}

// Orders handles GET /api/orders. Admins may list another user's orders
// with ?userId= or every order by omitting it.
func (h *Commerce) Orders(w http.ResponseWriter, r *http.Request) {
	p := caller(r)

	var (
		orders []models.Order
		err    error
	)
	switch q := r.URL.Query().Get("userId"); {
	case !p.IsAdmin():
		orders, err = h.orders.ListByUser(r.Context(), p.UserID)
	case q == "":
		orders, err = h.orders.ListAll(r.Context())
	default:
		id, perr := uuid.Parse(q)
		if perr != nil {
			writeError(w, r, apperr.Invalid("Invalid userId"))
			return
		}
		orders, err = h.orders.ListByUser(r.Context(), id)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// DeleteOrder handles DELETE /api/orders/{id}.
func (h *Commerce) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.orders.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if o == nil {
		writeError(w, r, apperr.NotFound("Order not found"))
		return
	}
	if err := h.orders.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{"Order deleted"})
}

// Coupons handles GET /api/coupons.
func (h *Commerce) Coupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, coupons)
}

type couponInput struct {
	Code     string              `json:"code"`
	Discount decimal.Decimal     `json:"discount"`
	Status   models.CouponStatus `json:"status"`
}

// CreateCoupon handles POST /api/coupons.
func (h *Commerce) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var in couponInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.Code = strings.TrimSpace(in.Code)
	if err := validateCoupon(in.Code, in.Discount); err != nil {
		writeError(w, r, err)
		return
	}
	if in.Status != "" && in.Status != models.CouponActive && in.Status != models.CouponInactive {
		writeError(w, r, apperr.Invalid("Status is not valid"))
		return
	}

	c := &models.Coupon{Code: in.Code, Discount: in.Discount, Status: in.Status}
	if err := h.coupons.Create(r.Context(), c); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, r, apperr.Conflict("Coupon code already exists"))
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// DeleteCoupon handles DELETE /api/coupons/{id}.
func (h *Commerce) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.coupons.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{"Coupon deleted"})
}

type couponValidation struct {
	Valid    bool            `json:"valid"`
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

// ValidateCoupon handles POST /api/coupons/validate. Usage is not counted
// here; it is counted when an order using the code is paid.
func (h *Commerce) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Code string `json:"code"`
	}
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	code := strings.TrimSpace(in.Code)
	if code == "" {
		writeError(w, r, apperr.Invalid("Code is required"))
		return
	}
	c, err := h.coupons.FindByCode(r.Context(), code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if c == nil || !c.IsActive() {
		writeError(w, r, apperr.NotFound("Invalid or inactive coupon"))
		return
	}
	writeJSON(w, http.StatusOK, couponValidation{Valid: true, Code: c.Code, Discount: c.Discount})
}
