package domain

import "time"

// SubscriptionDetail is the secondary record mirroring the payment
// processor's view of a customer, keyed by customer id. The profile
// remains authoritative for access control; this exists for audit and
// support tooling.
type SubscriptionDetail struct {
	StripeCustomerID  string
	SubscriptionID    string
	PriceID           string
	PeriodStart       *time.Time
	PeriodEnd         *time.Time
	CancelAtPeriodEnd bool
	PaymentBrand      string
	PaymentLast4      string
	RawStatus         string
	UpdatedAt         time.Time
}

// SyncJobStatus enumerates billing sync job lifecycle states.
type SyncJobStatus string

const (
	SyncJobPending SyncJobStatus = "pending"
	SyncJobRunning SyncJobStatus = "running"
	SyncJobDone    SyncJobStatus = "done"
	SyncJobFailed  SyncJobStatus = "failed"
)

// SyncJob queues a subscription reconciliation triggered by a webhook
// delivery. EventID is unique so redelivered events collapse into one
// job; the sync itself is idempotent either way.
type SyncJob struct {
	ID               string
	EventID          string
	EventType        string
	StripeCustomerID string
	Status           SyncJobStatus
	Attempts         int
	LastError        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
