package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

const productColumns = `id, user_id, title, url, image_url, description, category, price_label, position, active, click_count, created_at, updated_at`

// ProductRepositoryPG implements domain.ProductRepository.
type ProductRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewProductRepository creates a new ProductRepositoryPG.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepositoryPG {
	return &ProductRepositoryPG{pool: pool}
}

// CreateWithinLimit inserts a product while holding a lock on the
// owner's profile row. The plan allowance is checked against a live
// count of active products inside the same transaction, so two
// concurrent creates cannot both slip under the cap.
func (r *ProductRepositoryPG) CreateWithinLimit(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var plan domain.PlanType
	var status domain.SubscriptionStatus
	err = tx.QueryRow(ctx, `SELECT plan, status FROM profiles WHERE user_id = $1 FOR UPDATE`, product.UserID).Scan(&plan, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var count int
	err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE user_id = $1 AND active`, product.UserID).Scan(&count)
	if err != nil {
		return nil, err
	}

	effective := (domain.Profile{Plan: plan, Status: status}).EffectivePlan()
	if limitErr := domain.CheckProductLimit(effective, count); limitErr != nil {
		return nil, limitErr
	}

	query := `
INSERT INTO products (id, user_id, title, url, image_url, description, category, price_label, position, active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
RETURNING ` + productColumns + `;
`
	row := tx.QueryRow(ctx, query,
		product.ID,
		product.UserID,
		product.Title,
		product.URL,
		product.ImageURL,
		product.Description,
		product.Category,
		product.PriceLabel,
		product.Position,
	)
	created, err := scanProduct(row)
	if err != nil {
		return nil, err
	}

	// Advisory counter shown on dashboards; the live count above stays
	// the source of truth for the limit.
	if _, err := tx.Exec(ctx, `UPDATE profiles SET product_count = $2, updated_at = NOW() WHERE user_id = $1`, product.UserID, count+1); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit product create: %w", err)
	}
	return created, nil
}

// ListByUser returns a user's products ordered by position.
func (r *ProductRepositoryPG) ListByUser(ctx context.Context, userID string, activeOnly bool) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE user_id = $1`
	if activeOnly {
		query += ` AND active`
	}
	query += ` ORDER BY position, created_at;`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// GetByID fetches a product by its identifier.
func (r *ProductRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// Update rewrites a product's editable fields, scoped to its owner.
func (r *ProductRepositoryPG) Update(ctx context.Context, product *domain.Product) error {
	query := `
UPDATE products
SET title = $3,
    url = $4,
    image_url = $5,
    description = $6,
    category = $7,
    price_label = $8,
    position = $9,
    updated_at = NOW()
WHERE id = $1 AND user_id = $2;
`
	tag, err := r.pool.Exec(ctx, query,
		product.ID,
		product.UserID,
		product.Title,
		product.URL,
		product.ImageURL,
		product.Description,
		product.Category,
		product.PriceLabel,
		product.Position,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes a product so its click history survives.
func (r *ProductRepositoryPG) Deactivate(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET active = FALSE, updated_at = NOW() WHERE id = $1 AND user_id = $2 AND active`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	_, err = r.pool.Exec(ctx, `UPDATE profiles SET product_count = GREATEST(product_count - 1, 0), updated_at = NOW() WHERE user_id = $1`, userID)
	return err
}

// CountActiveByUser returns the live number of active products.
func (r *ProductRepositoryPG) CountActiveByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE user_id = $1 AND active`, userID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Title,
		&p.URL,
		&p.ImageURL,
		&p.Description,
		&p.Category,
		&p.PriceLabel,
		&p.Position,
		&p.Active,
		&p.ClickCount,
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
