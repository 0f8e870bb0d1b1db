package domain

import "context"

// ProfileRepository defines access methods for storefront profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *Profile) (*Profile, error)
	GetByUserID(ctx context.Context, userID string) (*Profile, error)
	GetByHandle(ctx context.Context, handle string) (*Profile, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*Profile, error)
	UpdateCustomization(ctx context.Context, profile *Profile) error
	SetStripeCustomerID(ctx context.Context, userID, customerID string) error
	UpdateSubscriptionState(ctx context.Context, userID string, state SubscriptionState) error
}

// ProductRepository defines persistence for affiliate products.
type ProductRepository interface {
	// CreateWithinLimit inserts the product only if the owner's live
	// active-product count stays below the plan allowance. The check and
	// insert run in one transaction with the profile row locked.
	CreateWithinLimit(ctx context.Context, product *Product) (*Product, error)
	ListByUser(ctx context.Context, userID string, activeOnly bool) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Update(ctx context.Context, product *Product) error
	Deactivate(ctx context.Context, id, userID string) error
	CountActiveByUser(ctx context.Context, userID string) (int, error)
}

// SubscriptionDetailRepository upserts the secondary billing record.
type SubscriptionDetailRepository interface {
	Upsert(ctx context.Context, detail *SubscriptionDetail) error
	GetByCustomerID(ctx context.Context, customerID string) (*SubscriptionDetail, error)
	DeleteByCustomerID(ctx context.Context, customerID string) error
}

// WhitelistRepository manages administrator-granted pro access.
type WhitelistRepository interface {
	Add(ctx context.Context, entry *WhitelistEntry) error
	Remove(ctx context.Context, email string) error
	Contains(ctx context.Context, email string) (bool, error)
}

// SyncJobRepository queues webhook-triggered reconciliations.
type SyncJobRepository interface {
	// Enqueue inserts a job unless one with the same event id already
	// exists; it returns ErrDuplicateEvent in that case.
	Enqueue(ctx context.Context, job *SyncJob) error
	// ClaimNext locks and returns the oldest pending job, or ErrNotFound
	// when the queue is empty.
	ClaimNext(ctx context.Context) (*SyncJob, error)
	MarkDone(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID, reason string) error
}
