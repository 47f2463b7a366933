package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/saransh1220/album-market/internal/modules/order/domain"
)

type PgGrantRepository struct {
	db *sqlx.DB
}

func NewGrantRepository(db *sqlx.DB) *PgGrantRepository {
	return &PgGrantRepository{db: db}
}

// Grant inserts a grant for (owner, item) unless one already exists.
func (r *PgGrantRepository) Grant(ctx context.Context, ownerID, itemRef uuid.UUID, at time.Time) (bool, error) {
	query := `
		INSERT INTO purchase_grants (id, owner_id, item_ref, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id, item_ref) DO NOTHING`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, uuid.New(), ownerID, itemRef, at)
	if err != nil {
		return false, storeErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storeErr(err)
	}
	return n == 1, nil
}

func (r *PgGrantRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.PurchaseGrant, error) {
	grants := []domain.PurchaseGrant{}
	query := `
		SELECT id, owner_id, item_ref, created_at
		FROM purchase_grants
		WHERE owner_id = $1
		ORDER BY created_at DESC`
	if err := conn(ctx, r.db).SelectContext(ctx, &grants, query, ownerID); err != nil {
		return nil, storeErr(err)
	}
	return grants, nil
}
