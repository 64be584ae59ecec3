// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testSecret = "whsec_test_secret"

func sign(t *testing.T, payload string) (body []byte, header string) {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func TestParseWebhook_CheckoutCompleted(t *testing.T) {
	s := NewStripe(StripeConfig{SecretKey: "sk_test_x", WebhookSecret: testSecret})
	body, header := sign(t, `{
		"id": "evt_1",
		"object": "event",
		"api_version": "2020-08-27",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test_1",
			"object": "checkout.session",
			"payment_status": "paid",
			"metadata": {"orderId": "o-1", "userId": "u-1", "coupon": ""}
		}}
	}`)

	ev, err := s.ParseWebhook(body, header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, EventCheckoutCompleted, ev.Type)
	require.NotNil(t, ev.Session)
	assert.Equal(t, "cs_test_1", ev.Session.ID)
	assert.Equal(t, "o-1", ev.Session.OrderID())
	assert.Equal(t, "u-1", ev.Session.UserID())
	assert.True(t, ev.Completed())
}

func TestParseWebhook_OtherEventIgnored(t *testing.T) {
	s := NewStripe(StripeConfig{SecretKey: "sk_test_x", WebhookSecret: testSecret})
	body, header := sign(t, `{
		"id": "evt_2",
		"object": "event",
		"type": "payment_intent.created",
		"data": {"object": {"id": "pi_1", "object": "payment_intent"}}
	}`)

	ev, err := s.ParseWebhook(body, header)
	require.NoError(t, err)
	assert.Nil(t, ev.Session)
	assert.False(t, ev.Completed())
}

func TestParseWebhook_BadSignature(t *testing.T) {
	s := NewStripe(StripeConfig{SecretKey: "sk_test_x", WebhookSecret: testSecret})
	body, _ := sign(t, `{"id":"evt_3","object":"event","type":"checkout.session.completed","data":{"object":{}}}`)

	_, err := s.ParseWebhook(body, "t=1,v1=deadbeef")
	assert.Error(t, err)

	_, err = s.ParseWebhook(body, "")
	assert.Error(t, err)
}

func TestParseWebhook_NoSecret(t *testing.T) {
	s := NewStripe(StripeConfig{SecretKey: "sk_test_x"})
	body, header := sign(t, `{"id":"evt_4","object":"event","type":"ping","data":{"object":{}}}`)

	_, err := s.ParseWebhook(body, header)
	assert.Error(t, err)
}

func TestEventCompleted_UnpaidSession(t *testing.T) {
	ev := &Event{Type: EventCheckoutCompleted, Session: &Session{PaymentStatus: "unpaid"}}
	assert.False(t, ev.Completed(), "delayed payment methods complete before paying")

	ev.Type = EventAsyncPaymentSucceeded
	assert.True(t, ev.Completed())
}

func TestSessionParams_Sanitizes(t *testing.T) {
	s := NewStripe(StripeConfig{SecretKey: "sk_test_x", Currency: "MXN"})
	params := s.sessionParams(SessionRequest{
		OrderID:    "o-1",
		UserID:     "u-1",
		CouponCode: "WELCOME10",
		SuccessURL: "http://localhost/ok",
		CancelURL:  "http://localhost/cancel",
		Lines: []LineItem{
			{Name: strings.Repeat("x", 200), Image: "data:image/png;base64,AAAA", UnitAmount: -5, Quantity: 0},
			{Name: "  ", Image: "https://cdn.example.com/a.png", UnitAmount: 9000, Quantity: 2},
		},
	})

	require.Len(t, params.LineItems, 2)
	first := params.LineItems[0]
	assert.Len(t, *first.PriceData.ProductData.Name, maxNameLength)
	assert.Empty(t, first.PriceData.ProductData.Images)
	assert.Equal(t, int64(0), *first.PriceData.UnitAmount)
	assert.Equal(t, int64(1), *first.Quantity)
	assert.Equal(t, "mxn", *first.PriceData.Currency)

	second := params.LineItems[1]
	assert.Equal(t, fallbackName, *second.PriceData.ProductData.Name)
	require.Len(t, second.PriceData.ProductData.Images, 1)
	assert.Equal(t, "https://cdn.example.com/a.png", *second.PriceData.ProductData.Images[0])
	assert.Equal(t, int64(2), *second.Quantity)

	assert.Equal(t, "o-1", params.Metadata[MetaOrderID])
	assert.Equal(t, "u-1", params.Metadata[MetaUserID])
	assert.Equal(t, "WELCOME10", params.Metadata[MetaCoupon])
	assert.Equal(t, "o-1", *params.ClientReferenceID)
}

func TestCreateAndGetSession_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/checkout/sessions":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "o-9", r.PostForm.Get("metadata[orderId]"))
			assert.Equal(t, "9000", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
			assert.Equal(t, "payment", r.PostForm.Get("mode"))
			w.Write([]byte(`{"id":"cs_test_9","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_9","payment_status":"unpaid","metadata":{"orderId":"o-9","userId":"u-9"}}`))
		case r.Method == http.MethodGet && r.URL.Path == "/v1/checkout/sessions/cs_test_9":
			w.Write([]byte(`{"id":"cs_test_9","object":"checkout.session","payment_status":"paid","metadata":{"orderId":"o-9","userId":"u-9"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such checkout.session"}}`))
		}
	}))
	defer srv.Close()

	s := NewStripe(StripeConfig{SecretKey: "sk_test_x", APIURL: srv.URL})
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, SessionRequest{
		OrderID:    "o-9",
		UserID:     "u-9",
		SuccessURL: "http://localhost/ok",
		CancelURL:  "http://localhost/cancel",
		Lines:      []LineItem{{Name: "Curso", UnitAmount: 9000, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_9", sess.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_9", sess.URL)
	assert.False(t, sess.Paid())

	got, err := s.GetSession(ctx, "cs_test_9")
	require.NoError(t, err)
	assert.True(t, got.Paid())
	assert.Equal(t, "o-9", got.OrderID())

	_, err = s.GetSession(ctx, "cs_missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
