package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

const syncJobColumns = `id, event_id, event_type, stripe_customer_id, status, attempts, last_error, created_at, updated_at`

// SyncJobRepositoryPG implements domain.SyncJobRepository.
type SyncJobRepositoryPG struct {
	pool        *pgxpool.Pool
	maxAttempts int
}

// NewSyncJobRepository creates a new SyncJobRepositoryPG. maxAttempts
// caps retries for a single webhook-triggered sync before the job parks
// as failed.
func NewSyncJobRepository(pool *pgxpool.Pool, maxAttempts int) *SyncJobRepositoryPG {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &SyncJobRepositoryPG{pool: pool, maxAttempts: maxAttempts}
}

// Enqueue inserts a pending job. The unique index on event_id collapses
// webhook redeliveries into ErrDuplicateEvent.
func (r *SyncJobRepositoryPG) Enqueue(ctx context.Context, job *domain.SyncJob) error {
	query := `
INSERT INTO billing_sync_jobs (id, event_id, event_type, stripe_customer_id, status)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (event_id) DO NOTHING;
`
	tag, err := r.pool.Exec(ctx, query,
		job.ID,
		job.EventID,
		job.EventType,
		job.StripeCustomerID,
		domain.SyncJobPending,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateEvent
	}
	return nil
}

// ClaimNext atomically moves the oldest pending job to running and
// returns it. SKIP LOCKED lets several workers poll the same queue.
func (r *SyncJobRepositoryPG) ClaimNext(ctx context.Context) (*domain.SyncJob, error) {
	query := `
UPDATE billing_sync_jobs
SET status = 'running',
    attempts = attempts + 1,
    updated_at = NOW()
WHERE id = (
    SELECT id FROM billing_sync_jobs
    WHERE status = 'pending'
    ORDER BY created_at
    FOR UPDATE SKIP LOCKED
    LIMIT 1
)
RETURNING ` + syncJobColumns + `;
`
	row := r.pool.QueryRow(ctx, query)
	var j domain.SyncJob
	if err := row.Scan(
		&j.ID,
		&j.EventID,
		&j.EventType,
		&j.StripeCustomerID,
		&j.Status,
		&j.Attempts,
		&j.LastError,
		&j.CreatedAt,
		&j.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &j, nil
}

// MarkDone finalizes a successfully synced job.
func (r *SyncJobRepositoryPG) MarkDone(ctx context.Context, jobID string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE billing_sync_jobs SET status = 'done', last_error = '', updated_at = NOW() WHERE id = $1`, jobID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark done %s: %w", jobID, domain.ErrNotFound)
	}
	return nil
}

// MarkFailed records the failure reason. The job goes back to pending
// for another attempt until maxAttempts is reached, then parks as
// failed for manual inspection.
func (r *SyncJobRepositoryPG) MarkFailed(ctx context.Context, jobID, reason string) error {
	query := `
UPDATE billing_sync_jobs
SET status = CASE WHEN attempts >= $3 THEN 'failed' ELSE 'pending' END,
    last_error = $2,
    updated_at = NOW()
WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, query, jobID, reason, r.maxAttempts)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark failed %s: %w", jobID, domain.ErrNotFound)
	}
	return nil
}
