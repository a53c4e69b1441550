package repository

import (
	"context"
	"time"

	"github.com/segyhp/dialoger-export/internal/domain"

	"github.com/jmoiron/sqlx"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) ListInRange(ctx context.Context, start, end time.Time) ([]*domain.Payment, error) {
	query := `
		SELECT id, amount, payment_type, method, has_first_payment, payment_interval, payment_status,
		       dialoger_share, paid_at, first_name, last_name, dialoger_id, location_id
		FROM payments
		WHERE paid_at >= $1 AND paid_at < $2
		ORDER BY paid_at, id
	`

	payments := []*domain.Payment{}
	err := r.db.SelectContext(ctx, &payments, query, start, end)
	if err != nil {
		return nil, err
	}

	return payments, nil
}
