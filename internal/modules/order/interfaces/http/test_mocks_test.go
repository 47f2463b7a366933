package http_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/saransh1220/album-market/internal/modules/order/application"
	"github.com/saransh1220/album-market/internal/modules/order/domain"
	"github.com/stretchr/testify/mock"
)

type mockOrderService struct{ mock.Mock }

func (m *mockOrderService) CreateOrder(ctx context.Context, in application.CreateOrderInput) (*application.CheckoutResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.CheckoutResult), args.Error(1)
}

func (m *mockOrderService) GetOrder(ctx context.Context, id uuid.UUID, requester domain.Requester) (*domain.Order, error) {
	args := m.Called(ctx, id, requester)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderService) DeleteOrder(ctx context.Context, id uuid.UUID, requester domain.Requester) error {
	return m.Called(ctx, id, requester).Error(0)
}

func (m *mockOrderService) RetryPayment(ctx context.Context, id uuid.UUID, requester domain.Requester) (*application.CheckoutResult, error) {
	args := m.Called(ctx, id, requester)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.CheckoutResult), args.Error(1)
}

func (m *mockOrderService) CompleteOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderService) ListPurchases(ctx context.Context, ownerID uuid.UUID) ([]domain.PurchaseGrant, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PurchaseGrant), args.Error(1)
}

func (m *mockOrderService) HandlePaymentEvent(ctx context.Context, ev domain.PaymentEvent) (*domain.Order, error) {
	args := m.Called(ctx, ev)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}
