package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// SubscriptionDetailRepositoryPG implements domain.SubscriptionDetailRepository.
type SubscriptionDetailRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewSubscriptionDetailRepository creates a new SubscriptionDetailRepositoryPG.
func NewSubscriptionDetailRepository(pool *pgxpool.Pool) *SubscriptionDetailRepositoryPG {
	return &SubscriptionDetailRepositoryPG{pool: pool}
}

// Upsert writes the mirrored processor record, keyed by customer id.
func (r *SubscriptionDetailRepositoryPG) Upsert(ctx context.Context, detail *domain.SubscriptionDetail) error {
	query := `
INSERT INTO subscription_details (stripe_customer_id, subscription_id, price_id, period_start, period_end, cancel_at_period_end, payment_brand, payment_last4, raw_status, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
ON CONFLICT (stripe_customer_id) DO UPDATE
SET subscription_id = EXCLUDED.subscription_id,
    price_id = EXCLUDED.price_id,
    period_start = EXCLUDED.period_start,
    period_end = EXCLUDED.period_end,
    cancel_at_period_end = EXCLUDED.cancel_at_period_end,
    payment_brand = EXCLUDED.payment_brand,
    payment_last4 = EXCLUDED.payment_last4,
    raw_status = EXCLUDED.raw_status,
    updated_at = NOW();
`
	_, err := r.pool.Exec(ctx, query,
		detail.StripeCustomerID,
		detail.SubscriptionID,
		detail.PriceID,
		detail.PeriodStart,
		detail.PeriodEnd,
		detail.CancelAtPeriodEnd,
		detail.PaymentBrand,
		detail.PaymentLast4,
		detail.RawStatus,
	)
	return err
}

// GetByCustomerID fetches the mirrored record for a billing customer.
func (r *SubscriptionDetailRepositoryPG) GetByCustomerID(ctx context.Context, customerID string) (*domain.SubscriptionDetail, error) {
	query := `
SELECT stripe_customer_id, subscription_id, price_id, period_start, period_end, cancel_at_period_end, payment_brand, payment_last4, raw_status, updated_at
FROM subscription_details
WHERE stripe_customer_id = $1;
`
	row := r.pool.QueryRow(ctx, query, customerID)
	var d domain.SubscriptionDetail
	if err := row.Scan(
		&d.StripeCustomerID,
		&d.SubscriptionID,
		&d.PriceID,
		&d.PeriodStart,
		&d.PeriodEnd,
		&d.CancelAtPeriodEnd,
		&d.PaymentBrand,
		&d.PaymentLast4,
		&d.RawStatus,
		&d.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// DeleteByCustomerID removes the mirrored record. Deleting a missing
// row is not an error; the synchronizer calls this on every free reset.
func (r *SubscriptionDetailRepositoryPG) DeleteByCustomerID(ctx context.Context, customerID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM subscription_details WHERE stripe_customer_id = $1`, customerID)
	return err
}
