package application

import (
	"github.com/google/uuid"
	"github.com/saransh1220/album-market/internal/modules/order/domain"
	"github.com/shopspring/decimal"
)

type CreateOrderInput struct {
	OwnerID        uuid.UUID
	Items          domain.Items
	Subtotal       decimal.Decimal
	TaxRate        decimal.Decimal
	Total          decimal.Decimal
	IdempotencyKey string
}

func (in CreateOrderInput) amounts() domain.Amounts {
	return domain.Amounts{Subtotal: in.Subtotal, TaxRate: in.TaxRate, Total: in.Total}
}

// CheckoutResult is what a client needs to confirm payment for an order.
type CheckoutResult struct {
	ClientSecret string        `json:"clientSecret,omitempty"`
	Order        *domain.Order `json:"order"`
}
