// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"coursestore/internal/models"
)

// CartItem is a client-held cart line.
type CartItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// Cart is the client-held cart. The server never stores it; each operation
// takes the current cart and returns the new one.
type Cart struct {
	Items []CartItem `json:"items"`
}

// PricedItem is a cart line with its resolved product.
type PricedItem struct {
	ID       string  `json:"id"`
	Quantity int     `json:"quantity"`
	Product  Product `json:"product"`
}

// PricedCart is a cart with current prices.
type PricedCart struct {
	Items    []PricedItem    `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
	Coupon   *models.Coupon  `json:"coupon,omitempty"`
}

func (c Cart) index(id string) int {
	for i, item := range c.Items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (c Cart) clone() Cart {
	items := make([]CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		if item.ID != "" {
			items = append(items, item)
		}
	}
	return Cart{Items: items}
}

// Add adds qty units of a product. The membership is a single line: adding
// it again returns the cart unchanged. An unknown product fails and leaves
// the cart untouched.
func (c *Calculator) Add(ctx context.Context, cart Cart, productID string, qty int) (Cart, error) {
	next := cart.clone()
	if qty <= 0 {
		qty = 1
	}

	if productID == models.MembershipProductID {
		if next.index(productID) >= 0 {
			return next, nil
		}
		next.Items = append(next.Items, CartItem{ID: productID, Quantity: 1})
		return next, nil
	}

	if i := next.index(productID); i >= 0 {
		next.Items[i].Quantity += qty
		return next, nil
	}
	p, err := c.Product(ctx, productID)
	if err != nil {
		return cart, err
	}
	next.Items = append(next.Items, CartItem{ID: p.ID, Quantity: qty})
	return next, nil
}

// Remove drops a line. Unknown ids are a no-op.
func Remove(cart Cart, productID string) Cart {
	next := Cart{Items: make([]CartItem, 0, len(cart.Items))}
	for _, item := range cart.Items {
		if item.ID != productID && item.ID != "" {
			next.Items = append(next.Items, item)
		}
	}
	return next
}

// Update sets the quantity of a line. Unknown ids are a no-op and a
// quantity below one removes the line.
func Update(cart Cart, productID string, qty int) Cart {
	next := cart.clone()
	i := next.index(productID)
	if i < 0 {
		return next
	}
	if qty < 1 {
		return Remove(next, productID)
	}
	if productID == models.MembershipProductID {
		qty = 1
	}
	next.Items[i].Quantity = qty
	return next
}

// Reprice resolves the cart against the current catalog and settings and
// applies couponCode when it maps to an active coupon.
func (c *Calculator) Reprice(ctx context.Context, cart Cart, couponCode string) (*PricedCart, error) {
	multiplier, coupon, err := c.Multiplier(ctx, couponCode)
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, item := range cart.clone().Items {
		items = append(items, models.OrderItem{ID: item.ID, Quantity: item.Quantity})
	}
	q, err := c.Price(ctx, items, multiplier)
	if err != nil {
		return nil, err
	}

	out := &PricedCart{
		Items:    make([]PricedItem, 0, len(q.Lines)),
		Subtotal: q.Subtotal,
		Discount: q.Discount,
		Total:    q.Total,
		Coupon:   coupon,
	}
	for _, l := range q.Lines {
		out.Items = append(out.Items, PricedItem{ID: l.Product.ID, Quantity: l.Quantity, Product: l.Product})
	}
	return out, nil
}
