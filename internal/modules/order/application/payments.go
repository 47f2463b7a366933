package application

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/saransh1220/album-market/internal/modules/order/domain"
)

// HandlePaymentEvent applies a gateway callback to the order owning the intent.
// Replays of an already applied outcome are no-ops.
func (s *OrderService) HandlePaymentEvent(ctx context.Context, ev domain.PaymentEvent) (*domain.Order, error) {
	if ev.IntentID == "" {
		return nil, wrapf(domain.ErrInvalidInput, "payment event without intent id")
	}

	order, err := s.orders.GetByIntentID(ctx, ev.IntentID)
	if err != nil {
		return nil, err
	}

	target := ev.Outcome.TargetStatus()
	if applied(order.Status, target) {
		s.logger.Debug("payment event already applied", "order_id", order.ID, "status", order.Status)
		return order, nil
	}

	var updated *domain.Order
	err = s.uow.WithinTx(ctx, func(ctx context.Context) error {
		from := order
		// A later attempt against the same intent captured after an earlier one failed.
		// Both hops commit together so the expiry sweep never sees the order pending.
		if target == domain.StatusPaymentSuccessful && from.Status == domain.StatusPaymentFailed {
			pending, err := s.transition(ctx, from, domain.StatusPending)
			if err != nil {
				return err
			}
			from = pending
		}
		var err error
		updated, err = s.transition(ctx, from, target)
		return err
	})
	if errors.Is(err, domain.ErrConflict) {
		// A concurrent delivery of the same event may have won.
		current, getErr := s.orders.GetByID(ctx, order.ID)
		if getErr == nil && applied(current.Status, target) {
			return current, nil
		}
	}
	if err != nil {
		s.logger.Warn("payment event rejected",
			"order_id", order.ID,
			"intent_id", ev.IntentID,
			"outcome", ev.Outcome,
			"status", order.Status,
			"error", err,
		)
		return nil, err
	}

	if target == domain.StatusPaymentSuccessful && s.cfg.AutoFulfil {
		completed, err := s.CompleteOrder(ctx, updated.ID)
		if err == nil {
			return completed, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
	}
	return updated, nil
}

// applied reports whether an order in status already reflects a transition to target.
func applied(status, target domain.Status) bool {
	if status == target {
		return true
	}
	return target == domain.StatusPaymentSuccessful && status == domain.StatusComplete
}

// CompleteOrder confirms fulfilment of a paid order. Only the caller that wins the
// payment_successful -> complete transition dispatches the completion notification.
func (s *OrderService) CompleteOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	completed, err := s.transition(ctx, order, domain.StatusComplete)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyOrderComplete(ctx, completed); err != nil {
			s.logger.Error("completion notification not dispatched", "order_id", completed.ID, "error", err)
		}
	}
	return completed, nil
}

// RetryPayment moves a failed order back to pending and hands out the client secret
// of its existing intent. Expiry still counts from the original creation time.
func (s *OrderService) RetryPayment(ctx context.Context, id uuid.UUID, requester domain.Requester) (*CheckoutResult, error) {
	order, err := s.GetOrder(ctx, id, requester)
	if err != nil {
		return nil, err
	}

	pending, err := s.transition(ctx, order, domain.StatusPending)
	if err != nil {
		return nil, err
	}

	intent, err := s.gateway.CreateIntent(ctx, pending.IntentRequest())
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{Order: pending, ClientSecret: intent.ClientSecret}, nil
}
