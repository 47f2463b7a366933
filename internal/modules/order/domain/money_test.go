package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func amounts(subtotal, taxRate, total string) Amounts {
	return Amounts{
		Subtotal: decimal.RequireFromString(subtotal),
		TaxRate:  decimal.RequireFromString(taxRate),
		Total:    decimal.RequireFromString(total),
	}
}

func TestAmounts_Validate(t *testing.T) {
	tests := []struct {
		name    string
		in      Amounts
		wantErr bool
	}{
		{"exact", amounts("10.00", "0.18", "11.80"), false},
		{"zero tax", amounts("25", "0", "25"), false},
		{"free order", amounts("0", "0.5", "0"), true},
		{"zero with cents", amounts("0.00", "0", "0.00"), true},
		{"within one minor unit", amounts("19.99", "0.075", "21.49"), false},
		{"full tax rate", amounts("10", "1", "20"), false},
		{"off by more than a minor unit", amounts("10.00", "0.18", "11.82"), true},
		{"negative subtotal", amounts("-1", "0", "-1"), true},
		{"negative total", amounts("0", "0", "-0.01"), true},
		{"tax above one", amounts("10", "1.01", "20.10"), true},
		{"negative tax", amounts("10", "-0.1", "9"), true},
		{"sub-cent total", amounts("10", "0", "10.001"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1180), MinorUnits(decimal.RequireFromString("11.80")))
	assert.Equal(t, int64(0), MinorUnits(decimal.Zero))
	assert.Equal(t, int64(2149), MinorUnits(decimal.RequireFromString("21.49")))
	assert.Equal(t, int64(1000), MinorUnits(decimal.NewFromInt(10)))
}

func TestValidateItems(t *testing.T) {
	assert.ErrorIs(t, ValidateItems(nil), ErrInvalidInput)
	assert.ErrorIs(t, ValidateItems(Items{}), ErrInvalidInput)
	assert.ErrorIs(t, ValidateItems(Items{{ItemRef: uuid.Nil, Quantity: 1}}), ErrInvalidInput)
	assert.ErrorIs(t, ValidateItems(Items{{ItemRef: uuid.New(), Quantity: 0}}), ErrInvalidInput)
	assert.NoError(t, ValidateItems(Items{{ItemRef: uuid.New(), Quantity: 2}}))
}
