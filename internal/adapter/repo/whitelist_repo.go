package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// WhitelistRepositoryPG implements domain.WhitelistRepository.
type WhitelistRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewWhitelistRepository creates a new WhitelistRepositoryPG.
func NewWhitelistRepository(pool *pgxpool.Pool) *WhitelistRepositoryPG {
	return &WhitelistRepositoryPG{pool: pool}
}

// Add records an email grant. Re-adding an existing email refreshes the
// note instead of failing.
func (r *WhitelistRepositoryPG) Add(ctx context.Context, entry *domain.WhitelistEntry) error {
	query := `
INSERT INTO whitelist (email, note)
VALUES (LOWER($1), $2)
ON CONFLICT (email) DO UPDATE SET note = EXCLUDED.note;
`
	_, err := r.pool.Exec(ctx, query, entry.Email, entry.Note)
	return err
}

// Remove drops an email grant.
func (r *WhitelistRepositoryPG) Remove(ctx context.Context, email string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM whitelist WHERE email = LOWER($1)`, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Contains reports whether the email is granted access.
func (r *WhitelistRepositoryPG) Contains(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM whitelist WHERE email = LOWER($1))`, email).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
