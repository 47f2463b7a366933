package http

import (
	"context"

	"github.com/google/uuid"
	"github.com/saransh1220/album-market/internal/modules/order/application"
	"github.com/saransh1220/album-market/internal/modules/order/domain"
)

// OrderService defines the order operations exposed over HTTP
type OrderService interface {
	CreateOrder(ctx context.Context, in application.CreateOrderInput) (*application.CheckoutResult, error)
	GetOrder(ctx context.Context, id uuid.UUID, requester domain.Requester) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID, requester domain.Requester) error
	RetryPayment(ctx context.Context, id uuid.UUID, requester domain.Requester) (*application.CheckoutResult, error)
	CompleteOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListPurchases(ctx context.Context, ownerID uuid.UUID) ([]domain.PurchaseGrant, error)
	HandlePaymentEvent(ctx context.Context, ev domain.PaymentEvent) (*domain.Order, error)
}
