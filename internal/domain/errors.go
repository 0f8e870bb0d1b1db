package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                   = errors.New("not found")
	ErrUnauthorized               = errors.New("unauthorized")
	ErrHandleTaken                = errors.New("handle already taken")
	ErrInvalidHandle              = errors.New("invalid handle")
	ErrInvalidWebhookSignature    = errors.New("invalid webhook signature")
	ErrInvalidTransition          = errors.New("invalid subscription transition")
	ErrNoBillingAccount           = errors.New("no billing account")
	ErrUnsupportedPlan            = errors.New("unsupported plan")
	ErrProfileNotFoundForCustomer = errors.New("no profile for customer")
	ErrDuplicateEvent             = errors.New("duplicate webhook event")
)

// PlanLimitError is returned when a creation would exceed the plan's
// resource allowance. Limit carries the numeric allowance for display.
type PlanLimitError struct {
	Plan  PlanType
	Limit int
}

func (e *PlanLimitError) Error() string {
	return fmt.Sprintf("plan %s limit of %d products reached", e.Plan, e.Limit)
}

// PaymentProviderError surfaces a failure from the payment processor
// with the provider's own message attached.
type PaymentProviderError struct {
	Op      string
	Message string
	Err     error
}

func (e *PaymentProviderError) Error() string {
	return fmt.Sprintf("payment provider: %s: %s", e.Op, e.Message)
}

func (e *PaymentProviderError) Unwrap() error { return e.Err }
