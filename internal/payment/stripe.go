// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

const (
	maxNameLength = 150
	fallbackName  = "Producto sin nombre"
)

// StripeConfig holds the Stripe credentials and session defaults.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	// APIURL overrides the API base URL. Empty uses api.stripe.com.
	APIURL string
}

// Stripe implements Gateway with Stripe Checkout.
type Stripe struct {
	api           *client.API
	webhookSecret string
	currency      string
}

// NewStripe creates a Stripe gateway.
func NewStripe(cfg StripeConfig) *Stripe {
	var backends *stripe.Backends
	if cfg.APIURL != "" {
		backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL:               stripe.String(cfg.APIURL),
			MaxNetworkRetries: stripe.Int64(0),
			LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
		})
		backends = &stripe.Backends{API: backend, Connect: backend, Uploads: backend}
	}
	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = "mxn"
	}
	return &Stripe{
		api:           client.New(cfg.SecretKey, backends),
		webhookSecret: cfg.WebhookSecret,
		currency:      currency,
	}
}

// CreateSession implements Gateway.
func (s *Stripe) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params := s.sessionParams(req)
	params.Context = ctx

	cs, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return fromStripe(cs), nil
}

func (s *Stripe) sessionParams(req SessionRequest) *stripe.CheckoutSessionParams {
	lines := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Lines))
	for _, l := range req.Lines {
		amount := l.UnitAmount
		if amount < 0 {
			amount = 0
		}
		qty := l.Quantity
		if qty < 1 {
			qty = 1
		}
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:   stripe.String(cleanName(l.Name)),
			Images: stripe.StringSlice(cleanImages(l.Image)),
		}
		if l.Description != "" {
			product.Description = stripe.String(l.Description)
		}
		lines = append(lines, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(s.currency),
				UnitAmount:  stripe.Int64(amount),
				ProductData: product,
			},
			Quantity: stripe.Int64(qty),
		})
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:          lines,
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		ClientReferenceID:  stripe.String(req.OrderID),
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.AddMetadata(MetaOrderID, req.OrderID)
	params.AddMetadata(MetaUserID, req.UserID)
	params.AddMetadata(MetaCoupon, req.CouponCode)
	return params
}

// GetSession implements Gateway.
func (s *Stripe) GetSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	cs, err := s.api.CheckoutSessions.Get(id, params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.HTTPStatusCode == http.StatusNotFound {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("retrieve checkout session: %w", err)
	}
	return fromStripe(cs), nil
}

// ParseWebhook implements Gateway. API version mismatches between the
// account and this SDK are tolerated; the fields read here are stable.
func (s *Stripe) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if s.webhookSecret == "" {
		return nil, errors.New("webhook secret not configured")
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, err
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	if strings.HasPrefix(out.Type, "checkout.session.") && ev.Data != nil {
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.Session = fromStripe(&cs)
	}
	return out, nil
}

func fromStripe(cs *stripe.CheckoutSession) *Session {
	meta := cs.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	return &Session{
		ID:            cs.ID,
		URL:           cs.URL,
		PaymentStatus: string(cs.PaymentStatus),
		Metadata:      meta,
	}
}

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallbackName
	}
	if r := []rune(name); len(r) > maxNameLength {
		return string(r[:maxNameLength])
	}
	return name
}

// cleanImages keeps only absolute http(s) URLs; Stripe rejects the rest.
func cleanImages(image string) []string {
	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return []string{image}
	}
	return []string{}
}
