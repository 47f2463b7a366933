package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OrderRepository persists orders. Status writes are compare-and-set on the current status.
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByIdempotencyKey(ctx context.Context, ownerID uuid.UUID, key string) (*Order, error)
	GetByIntentID(ctx context.Context, intentID string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	AttachIntent(ctx context.Context, id uuid.UUID, intentID string, at time.Time) error
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status, at time.Time) (*Order, error)
	CancelStalePending(ctx context.Context, cutoff, at time.Time) (int64, error)
	PurgeCancelledBefore(ctx context.Context, cutoff time.Time) ([]Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// GrantRepository persists purchase grants. Grant reports whether a new grant was created.
type GrantRepository interface {
	Grant(ctx context.Context, ownerID, itemRef uuid.UUID, at time.Time) (bool, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]PurchaseGrant, error)
}

// UnitOfWork runs fn in one transaction. Repositories called with the ctx passed to fn join it.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type IntentRequest struct {
	AmountMinor    int64
	Currency       string
	IdempotencyKey string
	Metadata       map[string]string
}

type PaymentIntent struct {
	IntentID     string
	ClientSecret string
}

// PaymentGateway creates payment intents. Calls with the same IdempotencyKey return the same intent.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*PaymentIntent, error)
}

// CompletionNotifier is told about each order that reached complete. It must not block.
type CompletionNotifier interface {
	NotifyOrderComplete(ctx context.Context, order *Order) error
}

// OrderArchiver keeps a copy of orders removed by retention.
type OrderArchiver interface {
	Archive(ctx context.Context, at time.Time, orders []Order) error
}

type PaymentOutcome string

const (
	PaymentSucceeded PaymentOutcome = "succeeded"
	PaymentFailed    PaymentOutcome = "failed"
)

// PaymentEvent is a gateway callback about an intent.
type PaymentEvent struct {
	IntentID  string
	PaymentID string
	Outcome   PaymentOutcome
}

func (o PaymentOutcome) TargetStatus() Status {
	if o == PaymentSucceeded {
		return StatusPaymentSuccessful
	}
	return StatusPaymentFailed
}
