package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is one cart line. ItemRef points at an album in the catalogue.
type Item struct {
	ItemRef  uuid.UUID `json:"itemRef"`
	Quantity int       `json:"quantity"`
}

// Items is stored as a JSONB array.
type Items []Item

func (it Items) Value() (driver.Value, error) {
	if it == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(it)
}

func (it *Items) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*it = nil
		return nil
	case []byte:
		return json.Unmarshal(v, it)
	case string:
		return json.Unmarshal([]byte(v), it)
	default:
		return fmt.Errorf("items: unsupported scan type %T", src)
	}
}

// DistinctRefs returns each item reference once, in cart order.
func (it Items) DistinctRefs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(it))
	refs := make([]uuid.UUID, 0, len(it))
	for _, item := range it {
		if _, ok := seen[item.ItemRef]; ok {
			continue
		}
		seen[item.ItemRef] = struct{}{}
		refs = append(refs, item.ItemRef)
	}
	return refs
}

func (it Items) TotalQuantity() int {
	n := 0
	for _, item := range it {
		n += item.Quantity
	}
	return n
}

type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	OwnerID         uuid.UUID       `json:"ownerId" db:"owner_id"`
	Items           Items           `json:"items" db:"items"`
	Subtotal        decimal.Decimal `json:"subtotal" db:"subtotal"`
	TaxRate         decimal.Decimal `json:"taxRate" db:"tax_rate"`
	Total           decimal.Decimal `json:"total" db:"total"`
	Currency        string          `json:"currency" db:"currency"`
	Status          Status          `json:"status" db:"status"`
	PaymentIntentID *string         `json:"paymentIntentId,omitempty" db:"payment_intent_id"`
	IdempotencyKey  *string         `json:"-" db:"idempotency_key"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
	CancelledAt     *time.Time      `json:"cancelledAt,omitempty" db:"cancelled_at"`
}

// NewOrder builds a pending order from validated input.
// orderIDSpace namespaces order ids derived from idempotency keys.
var orderIDSpace = uuid.MustParse("6f1d2c8e-4b7a-5e3f-9a10-c2d4e6f80b13")

// OrderID returns the id for a new order. Orders created with an idempotency key
// get a name-based id, so a retried checkout reuses the receipt of the first attempt.
func OrderID(ownerID uuid.UUID, idempotencyKey string) uuid.UUID {
	if idempotencyKey == "" {
		return uuid.New()
	}
	return uuid.NewSHA1(orderIDSpace, []byte(ownerID.String()+"/"+idempotencyKey))
}

func NewOrder(ownerID uuid.UUID, items Items, amounts Amounts, currency, idempotencyKey string, now time.Time) *Order {
	o := &Order{
		ID:        OrderID(ownerID, idempotencyKey),
		OwnerID:   ownerID,
		Items:     items,
		Subtotal:  amounts.Subtotal,
		TaxRate:   amounts.TaxRate,
		Total:     amounts.Total,
		Currency:  currency,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if idempotencyKey != "" {
		o.IdempotencyKey = &idempotencyKey
	}
	return o
}

// IntentRequest describes the payment intent for this order. The order id is the idempotency key.
func (o *Order) IntentRequest() IntentRequest {
	return IntentRequest{
		AmountMinor:    MinorUnits(o.Total),
		Currency:       o.Currency,
		IdempotencyKey: o.ID.String(),
		Metadata: map[string]string{
			"ownerId":       o.OwnerID.String(),
			"orderId":       o.ID.String(),
			"totalItems":    fmt.Sprint(len(o.Items.DistinctRefs())),
			"totalQuantity": fmt.Sprint(o.Items.TotalQuantity()),
		},
	}
}

// PurchaseGrant records that an owner may access an item. At most one exists per (owner, item).
type PurchaseGrant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OwnerID   uuid.UUID `json:"ownerId" db:"owner_id"`
	ItemRef   uuid.UUID `json:"itemRef" db:"item_ref"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

const RoleAdmin = "admin"

// Requester is the authenticated caller of an order operation.
type Requester struct {
	UserID uuid.UUID
	Role   string
}

func (r Requester) Elevated() bool {
	return r.Role == RoleAdmin
}

// CanAccess reports whether r may read or delete o.
func (r Requester) CanAccess(o *Order) bool {
	return r.Elevated() || o.OwnerID == r.UserID
}
