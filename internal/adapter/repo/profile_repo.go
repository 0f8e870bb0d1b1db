package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

const profileColumns = `user_id, handle, display_name, bio, avatar_url, theme, plan, status, stripe_customer_id, stripe_subscription_id, stripe_price_id, current_period_end, product_count, created_at, updated_at`

// ProfileRepositoryPG implements domain.ProfileRepository backed by PostgreSQL.
type ProfileRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new ProfileRepositoryPG.
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepositoryPG {
	return &ProfileRepositoryPG{pool: pool}
}

// Create inserts a new profile. A handle collision maps to ErrHandleTaken.
func (r *ProfileRepositoryPG) Create(ctx context.Context, profile *domain.Profile) (*domain.Profile, error) {
	query := `
INSERT INTO profiles (user_id, handle, display_name, bio, avatar_url, theme, plan, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + profileColumns + `;
`
	row := r.pool.QueryRow(ctx, query,
		profile.UserID,
		profile.Handle,
		profile.DisplayName,
		profile.Bio,
		profile.AvatarURL,
		profile.Theme,
		domain.PlanFree,
		domain.SubscriptionFree,
	)

	created, err := scanProfile(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrHandleTaken
		}
		return nil, err
	}
	return created, nil
}

// GetByUserID fetches a profile by its owning user.
func (r *ProfileRepositoryPG) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
	return scanProfile(row)
}

// GetByHandle fetches a profile by its public handle.
func (r *ProfileRepositoryPG) GetByHandle(ctx context.Context, handle string) (*domain.Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE handle = $1`, handle)
	return scanProfile(row)
}

// GetByStripeCustomerID fetches the profile a billing customer maps to.
func (r *ProfileRepositoryPG) GetByStripeCustomerID(ctx context.Context, customerID string) (*domain.Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE stripe_customer_id = $1`, customerID)
	return scanProfile(row)
}

// UpdateCustomization writes the presentation fields only. Plan and
// billing columns are reserved for UpdateSubscriptionState.
func (r *ProfileRepositoryPG) UpdateCustomization(ctx context.Context, profile *domain.Profile) error {
	query := `
UPDATE profiles
SET display_name = $2,
    bio = $3,
    avatar_url = $4,
    theme = $5,
    updated_at = NOW()
WHERE user_id = $1;
`
	tag, err := r.pool.Exec(ctx, query,
		profile.UserID,
		profile.DisplayName,
		profile.Bio,
		profile.AvatarURL,
		profile.Theme,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetStripeCustomerID records the billing customer id, once. A profile
// that already carries a different id is left untouched.
func (r *ProfileRepositoryPG) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	query := `
UPDATE profiles
SET stripe_customer_id = $2,
    updated_at = NOW()
WHERE user_id = $1
  AND (stripe_customer_id IS NULL OR stripe_customer_id = '' OR stripe_customer_id = $2);
`
	tag, err := r.pool.Exec(ctx, query, userID, customerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateSubscriptionState writes the reconciled billing truth in one
// statement so concurrent syncs cannot interleave partial states.
func (r *ProfileRepositoryPG) UpdateSubscriptionState(ctx context.Context, userID string, state domain.SubscriptionState) error {
	query := `
UPDATE profiles
SET plan = $2,
    status = $3,
    stripe_subscription_id = $4,
    stripe_price_id = $5,
    current_period_end = $6,
    updated_at = NOW()
WHERE user_id = $1;
`
	tag, err := r.pool.Exec(ctx, query,
		userID,
		state.Plan,
		state.Status,
		state.SubscriptionID,
		state.PriceID,
		state.PeriodEnd,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	if err := row.Scan(
		&p.UserID,
		&p.Handle,
		&p.DisplayName,
		&p.Bio,
		&p.AvatarURL,
		&p.Theme,
		&p.Plan,
		&p.Status,
		&p.StripeCustomerID,
		&p.StripeSubID,
		&p.PriceID,
		&p.CurrentPeriodEnd,
		&p.ProductCount,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
