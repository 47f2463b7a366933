package domain

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TotalTolerance is one minor currency unit.
var TotalTolerance = decimal.New(1, -2)

// Amounts are the client-supplied totals of a cart.
type Amounts struct {
	Subtotal decimal.Decimal
	TaxRate  decimal.Decimal
	Total    decimal.Decimal
}

// Validate checks ranges, that the total is chargeable, and that total == subtotal + subtotal*taxRate within TotalTolerance.
func (a Amounts) Validate() error {
	if a.Subtotal.IsNegative() {
		return fmt.Errorf("%w: subtotal must not be negative", ErrInvalidInput)
	}
	if !a.Total.IsPositive() {
		return fmt.Errorf("%w: total must be positive", ErrInvalidInput)
	}
	if a.TaxRate.IsNegative() || a.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: taxRate must be between 0 and 1", ErrInvalidInput)
	}
	if !a.Subtotal.Equal(a.Subtotal.Round(2)) || !a.Total.Equal(a.Total.Round(2)) {
		return fmt.Errorf("%w: amounts must have at most two decimal places", ErrInvalidInput)
	}

	expected := a.Subtotal.Add(a.Subtotal.Mul(a.TaxRate))
	if expected.Sub(a.Total).Abs().GreaterThan(TotalTolerance) {
		return fmt.Errorf("%w: total %s does not match subtotal plus tax %s",
			ErrInvalidInput, a.Total.StringFixed(2), expected.StringFixed(2))
	}
	return nil
}

// MinorUnits converts a major-unit amount to the integer the gateway charges.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// ValidateItems rejects empty carts, missing references and non-positive quantities.
func ValidateItems(items Items) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", ErrInvalidInput)
	}
	for i, item := range items {
		if item.ItemRef == uuid.Nil {
			return fmt.Errorf("%w: item %d has no itemRef", ErrInvalidInput, i)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: item %d quantity must be at least 1", ErrInvalidInput, i)
		}
	}
	return nil
}
