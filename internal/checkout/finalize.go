// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/containerd/errdefs"
	"github.com/google/uuid"

	"coursestore/internal/apperr"
	"coursestore/internal/database"
	"coursestore/internal/enrollment"
	"coursestore/internal/metrics"
	"coursestore/internal/models"
	"coursestore/internal/payment"
)

// FinalizeResult describes what a Finalize call changed.
type FinalizeResult struct {
	Order        *models.Order
	// Transitioned is true only for the call that moved the order to paid.
	Transitioned bool
	Grants       enrollment.GrantResult
}

// Finalize marks an order paid and grants its entitlements. It holds a
// per-order lock and runs in one transaction: the status transition, the
// coupon usage increment and the grants commit together. Calling it again
// for a paid order changes nothing and is not an error.
func (s *Service) Finalize(ctx context.Context, orderID uuid.UUID, source string) (*FinalizeResult, error) {
	unlock, err := s.locker.Lock(ctx, "order:"+orderID.String())
	if err != nil {
		return nil, fmt.Errorf("finalize order %s: %w", orderID, err)
	}
	defer unlock()

	res := &FinalizeResult{}
	err = s.db.InTx(ctx, func(tx *database.Tx) error {
		orders := s.orders.WithTx(tx)
		o, err := orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return apperr.NotFound("Order not found")
		}
		res.Order = o

		paidAt := s.now().Truncate(time.Microsecond)
		if res.Transitioned, err = orders.MarkPaid(ctx, o.ID, paidAt); err != nil {
			return err
		}
		if res.Transitioned {
			o.Status = models.OrderPaid
			o.PaidAt = &paidAt
			if o.CouponCode != "" {
				if err := s.coupons.WithTx(tx).IncrementUsed(ctx, o.CouponCode); err != nil {
					return err
				}
			}
		}

		// Grants run on every call so an order paid before a failed grant
		// heals on the next delivery.
		if res.Grants, err = s.grants.GrantOrder(ctx, tx, o); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordGrants(res.Grants.Enrollments, res.Grants.Memberships)
	if res.Transitioned {
		s.metrics.RecordFinalized(source)
		slog.Info("order finalized",
			"order_id", orderID,
			"user_id", res.Order.UserID,
			"source", source,
			"enrollments", res.Grants.Enrollments,
			"memberships", res.Grants.Memberships,
		)
	} else {
		slog.Debug("order already finalized", "order_id", orderID, "source", source)
	}
	return res, nil
}

// VerifyResult is the answer to a client-side session check.
type VerifyResult struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// VerifySession asks the provider for a session's payment status and
// finalizes its order when paid. It is the fallback for a delayed webhook.
func (s *Service) VerifySession(ctx context.Context, sessionID string) (*VerifyResult, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}
	if sessionID == "" {
		return nil, apperr.Invalid("Session ID required")
	}

	sess, err := s.gateway.GetSession(ctx, sessionID)
	if errors.Is(err, payment.ErrSessionNotFound) {
		return nil, apperr.NotFound("Session not found")
	}
	if err != nil {
		slog.Error("payment session lookup failed", "session_id", sessionID, "error", err)
		return nil, apperr.Unavailable(fmt.Sprintf("Payment gateway error: %v", err))
	}
	if !sess.Paid() {
		return &VerifyResult{Success: false, Status: sess.PaymentStatus}, nil
	}

	orderID, err := s.orderForSession(ctx, sess)
	if err != nil {
		return nil, err
	}
	if _, err := s.Finalize(ctx, orderID, metrics.SourceVerify); err != nil {
		return nil, err
	}
	return &VerifyResult{Success: true, Status: string(models.OrderPaid)}, nil
}

// HandleWebhook authenticates and applies a provider notification. Events
// other than a completed payment are acknowledged without effect. An error
// from Finalize is returned so the provider redelivers.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if !s.Enabled() {
		return ErrDisabled
	}

	ev, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		s.metrics.RecordWebhook("unknown", "rejected")
		slog.Warn("webhook rejected", "error", err)
		return apperr.Invalid("Webhook Error: " + err.Error())
	}
	if !ev.Completed() {
		s.metrics.RecordWebhook(ev.Type, "ignored")
		slog.Debug("webhook ignored", "event_id", ev.ID, "type", ev.Type)
		return nil
	}

	orderID, err := s.orderForSession(ctx, ev.Session)
	if errdefs.IsNotFound(err) {
		// Redelivery cannot fix an event that names no order of ours.
		s.metrics.RecordWebhook(ev.Type, "unmatched")
		slog.Warn("webhook for unknown order", "event_id", ev.ID, "session_id", ev.Session.ID)
		return nil
	}
	if err != nil {
		s.metrics.RecordWebhook(ev.Type, "error")
		return err
	}
	if uid := ev.Session.UserID(); uid != "" {
		slog.Debug("payment confirmed", "order_id", orderID, "user_id", uid)
	}

	if _, err := s.Finalize(ctx, orderID, metrics.SourceWebhook); err != nil {
		s.metrics.RecordWebhook(ev.Type, "error")
		return err
	}
	s.metrics.RecordWebhook(ev.Type, "ok")
	return nil
}

// orderForSession resolves the order a session pays for, by metadata first
// and by the stored session id otherwise. An order that no longer exists
// yields a not-found error.
func (s *Service) orderForSession(ctx context.Context, sess *payment.Session) (uuid.UUID, error) {
	if id, err := uuid.Parse(sess.OrderID()); err == nil {
		o, err := s.orders.FindByID(ctx, id)
		if err != nil {
			return uuid.Nil, err
		}
		if o != nil {
			return o.ID, nil
		}
	}
	o, err := s.orders.FindBySessionID(ctx, sess.ID)
	if err != nil {
		return uuid.Nil, err
	}
	if o == nil {
		return uuid.Nil, apperr.NotFound("Order not found")
	}
	return o.ID, nil
}

// Reconcile re-checks recent pending orders that were handed to the
// provider and finalizes those it reports paid. It returns how many orders
// it finalized; per-order failures are joined into the error.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	if !s.Enabled() {
		return 0, nil
	}
	now := s.now()
	pending, err := s.orders.ListPendingWithSession(ctx, now.Add(-reconcileWindow), now.Add(-reconcileGrace))
	if err != nil {
		return 0, err
	}

	var (
		finalized int
		errs      []error
	)
	for _, o := range pending {
		if o.SessionID == nil {
			continue
		}
		sess, err := s.gateway.GetSession(ctx, *o.SessionID)
		if err != nil {
			errs = append(errs, fmt.Errorf("order %s: %w", o.ID, err))
			continue
		}
		if !sess.Paid() {
			continue
		}
		res, err := s.Finalize(ctx, o.ID, metrics.SourceReconcile)
		if err != nil {
			errs = append(errs, fmt.Errorf("order %s: %w", o.ID, err))
			continue
		}
		if res.Transitioned {
			finalized++
		}
	}
	if finalized > 0 || len(errs) > 0 {
		slog.Info("pending orders reconciled", "checked", len(pending), "finalized", finalized, "failed", len(errs))
	}
	return finalized, errors.Join(errs...)
}
