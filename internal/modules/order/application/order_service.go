package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/saransh1220/album-market/internal/modules/order/domain"
	"github.com/saransh1220/album-market/internal/shared/clock"
)

type Config struct {
	Currency string
	// AutoFulfil completes an order as soon as its payment succeeds.
	AutoFulfil bool
}

type OrderService struct {
	orders   domain.OrderRepository
	grants   domain.GrantRepository
	uow      domain.UnitOfWork
	gateway  domain.PaymentGateway
	notifier domain.CompletionNotifier
	clock    clock.Clock
	cfg      Config
	logger   *slog.Logger
}

func NewOrderService(
	orders domain.OrderRepository,
	grants domain.GrantRepository,
	uow domain.UnitOfWork,
	gateway domain.PaymentGateway,
	notifier domain.CompletionNotifier,
	clk clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *OrderService {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &OrderService{
		orders:   orders,
		grants:   grants,
		uow:      uow,
		gateway:  gateway,
		notifier: notifier,
		clock:    clk,
		cfg:      cfg,
		logger:   logger.With("component", "order_service"),
	}
}

// CreateOrder validates the cart, then in one transaction inserts the pending order,
// grants each distinct item, obtains a payment intent and attaches it.
// Nothing is persisted unless every step succeeds.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*CheckoutResult, error) {
	if err := domain.ValidateItems(in.Items); err != nil {
		return nil, err
	}
	if err := in.amounts().Validate(); err != nil {
		return nil, err
	}

	if in.IdempotencyKey != "" {
		existing, err := s.orders.GetByIdempotencyKey(ctx, in.OwnerID, in.IdempotencyKey)
		if err == nil {
			return s.resume(ctx, existing)
		}
		if !errors.Is(err, domain.ErrOrderNotFound) {
			return nil, err
		}
	}

	now := s.clock.Now()
	order := domain.NewOrder(in.OwnerID, in.Items, in.amounts(), s.cfg.Currency, in.IdempotencyKey, now)

	var intent *domain.PaymentIntent
	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.orders.Create(ctx, order); err != nil {
			return err
		}
		for _, ref := range order.Items.DistinctRefs() {
			if _, err := s.grants.Grant(ctx, order.OwnerID, ref, now); err != nil {
				return err
			}
		}

		var err error
		intent, err = s.gateway.CreateIntent(ctx, order.IntentRequest())
		if err != nil {
			return err
		}
		if err := s.orders.AttachIntent(ctx, order.ID, intent.IntentID, now); err != nil {
			return err
		}
		order.PaymentIntentID = &intent.IntentID
		return nil
	})
	if err != nil {
		// Lost a race with a concurrent request carrying the same key.
		if in.IdempotencyKey != "" && errors.Is(err, domain.ErrConflict) {
			if existing, lookupErr := s.orders.GetByIdempotencyKey(ctx, in.OwnerID, in.IdempotencyKey); lookupErr == nil {
				return s.resume(ctx, existing)
			}
		}
		s.logger.Warn("order creation aborted", "owner_id", in.OwnerID, "error", err)
		return nil, err
	}

	ordersCreated.Inc()
	s.logger.Info("order created",
		"order_id", order.ID,
		"owner_id", order.OwnerID,
		"total", order.Total.StringFixed(2),
		"currency", order.Currency,
		"intent_id", intent.IntentID,
	)
	return &CheckoutResult{Order: order, ClientSecret: intent.ClientSecret}, nil
}

// resume returns an already created order. Pending orders get their client secret
// again from the gateway, which returns the same intent for the same key.
func (s *OrderService) resume(ctx context.Context, order *domain.Order) (*CheckoutResult, error) {
	if order.Status != domain.StatusPending {
		return &CheckoutResult{Order: order}, nil
	}
	intent, err := s.gateway.CreateIntent(ctx, order.IntentRequest())
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{Order: order, ClientSecret: intent.ClientSecret}, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID, requester domain.Requester) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !requester.CanAccess(order) {
		return nil, domain.ErrForbidden
	}
	return order, nil
}

// ListOrders returns every order. Callers must restrict it to elevated roles.
func (s *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.orders.List(ctx)
}

// DeleteOrder removes the order row only. Grants stay.
func (s *OrderService) DeleteOrder(ctx context.Context, id uuid.UUID, requester domain.Requester) error {
	if _, err := s.GetOrder(ctx, id, requester); err != nil {
		return err
	}
	if err := s.orders.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("order deleted", "order_id", id, "by", requester.UserID)
	return nil
}

func (s *OrderService) ListPurchases(ctx context.Context, ownerID uuid.UUID) ([]domain.PurchaseGrant, error) {
	return s.grants.ListByOwner(ctx, ownerID)
}

// transition applies one compare-and-set status change.
func (s *OrderService) transition(ctx context.Context, order *domain.Order, to domain.Status) (*domain.Order, error) {
	if err := domain.ValidateTransition(order.Status, to); err != nil {
		return nil, err
	}
	updated, err := s.orders.TransitionStatus(ctx, order.ID, order.Status, to, s.clock.Now())
	if err != nil {
		return nil, err
	}
	orderTransitions.WithLabelValues(string(order.Status), string(to)).Inc()
	s.logger.Info("order status changed", "order_id", order.ID, "from", order.Status, "to", to)
	return updated, nil
}

func wrapf(err error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...))
}
