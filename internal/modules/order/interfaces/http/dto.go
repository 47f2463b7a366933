package http

import (
	"github.com/saransh1220/album-market/internal/modules/order/domain"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest is the checkout body. Amounts accept JSON numbers or strings.
type CreateOrderRequest struct {
	Items    []domain.Item   `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	TaxRate  decimal.Decimal `json:"taxRate"`
	Total    decimal.Decimal `json:"total"`
}

type OrderResponse struct {
	Order *domain.Order `json:"order"`
}

type OrderListResponse struct {
	Orders []domain.Order `json:"orders"`
	Count  int            `json:"count"`
}

type PurchaseListResponse struct {
	Purchases []domain.PurchaseGrant `json:"purchases"`
	Count     int                    `json:"count"`
}
