package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/saransh1220/album-market/internal/modules/order/domain"
)

const orderColumns = `id, owner_id, items, subtotal, tax_rate, total, currency, status,
	payment_intent_id, idempotency_key, created_at, updated_at, cancelled_at`

type PgOrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) *PgOrderRepository {
	return &PgOrderRepository{db: db}
}

func (r *PgOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (
			id, owner_id, items, subtotal, tax_rate, total, currency, status,
			payment_intent_id, idempotency_key, created_at, updated_at
		) VALUES (
			:id, :owner_id, :items, :subtotal, :tax_rate, :total, :currency, :status,
			:payment_intent_id, :idempotency_key, :created_at, :updated_at
		)`
	if _, err := conn(ctx, r.db).NamedExecContext(ctx, query, order); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: duplicate order", domain.ErrConflict)
		}
		return storeErr(err)
	}
	return nil
}

func (r *PgOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *PgOrderRepository) GetByIdempotencyKey(ctx context.Context, ownerID uuid.UUID, key string) (*domain.Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE owner_id = $1 AND idempotency_key = $2`, ownerID, key)
}

func (r *PgOrderRepository) GetByIntentID(ctx context.Context, intentID string) (*domain.Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE payment_intent_id = $1`, intentID)
}

func (r *PgOrderRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Order, error) {
	order := &domain.Order{}
	if err := conn(ctx, r.db).GetContext(ctx, order, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, storeErr(err)
	}
	return order, nil
}

func (r *PgOrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	orders := []domain.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	if err := conn(ctx, r.db).SelectContext(ctx, &orders, query); err != nil {
		return nil, storeErr(err)
	}
	return orders, nil
}

// AttachIntent sets the payment intent once. Re-attaching the same intent is a no-op.
func (r *PgOrderRepository) AttachIntent(ctx context.Context, id uuid.UUID, intentID string, at time.Time) error {
	query := `
		UPDATE orders
		SET payment_intent_id = $2, updated_at = $3
		WHERE id = $1 AND payment_intent_id IS NULL`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, id, intentID, at)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: payment intent already attached to another order", domain.ErrConflict)
		}
		return storeErr(err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.PaymentIntentID != nil && *current.PaymentIntentID == intentID {
		return nil
	}
	return fmt.Errorf("%w: order already has a different payment intent", domain.ErrConflict)
}

// TransitionStatus moves id from one status to another only if it is still in from.
func (r *PgOrderRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.Status, at time.Time) (*domain.Order, error) {
	var cancelledAt *time.Time
	if to == domain.StatusCancelled {
		cancelledAt = &at
	}

	query := `
		UPDATE orders
		SET status = $3, updated_at = $4, cancelled_at = COALESCE($5, cancelled_at)
		WHERE id = $1 AND status = $2
		RETURNING ` + orderColumns
	order := &domain.Order{}
	err := conn(ctx, r.db).GetContext(ctx, order, query, id, from, to, at, cancelledAt)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, storeErr(err)
	}

	var current domain.Status
	err = conn(ctx, r.db).GetContext(ctx, &current, `SELECT status FROM orders WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return nil, fmt.Errorf("%w: order is %s, expected %s", domain.ErrConflict, current, from)
}

// CancelStalePending cancels every pending order created at or before cutoff.
func (r *PgOrderRepository) CancelStalePending(ctx context.Context, cutoff, at time.Time) (int64, error) {
	query := `
		UPDATE orders
		SET status = 'cancelled', cancelled_at = $2, updated_at = $2
		WHERE status = 'pending' AND created_at <= $1`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, cutoff, at)
	if err != nil {
		return 0, storeErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr(err)
	}
	return n, nil
}

// PurgeCancelledBefore deletes cancelled orders whose cancellation is at or before cutoff and returns them.
func (r *PgOrderRepository) PurgeCancelledBefore(ctx context.Context, cutoff time.Time) ([]domain.Order, error) {
	query := `
		DELETE FROM orders
		WHERE status = 'cancelled' AND cancelled_at <= $1
		RETURNING ` + orderColumns
	purged := []domain.Order{}
	if err := conn(ctx, r.db).SelectContext(ctx, &purged, query, cutoff); err != nil {
		return nil, storeErr(err)
	}
	return purged, nil
}

func (r *PgOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return storeErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}
