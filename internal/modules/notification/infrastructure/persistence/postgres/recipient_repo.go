package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/saransh1220/album-market/internal/modules/notification/domain"
)

// PgRecipientRepository reads buyer contact details from the users table.
type PgRecipientRepository struct {
	db *sqlx.DB
}

func NewPgRecipientRepository(db *sqlx.DB) *PgRecipientRepository {
	return &PgRecipientRepository{db: db}
}

func (r *PgRecipientRepository) GetRecipient(ctx context.Context, userID uuid.UUID) (*domain.Recipient, error) {
	var rec domain.Recipient
	err := r.db.GetContext(ctx, &rec, `SELECT email, name FROM users WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRecipientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
