package domain

import "time"

// PlanType enumerates billing plans.
type PlanType string

const (
	PlanFree      PlanType = "free"
	PlanBasic     PlanType = "basic"
	PlanPro       PlanType = "pro"
	PlanUnlimited PlanType = "unlimited"
)

// Paid reports whether the plan is a paid tier.
func (p PlanType) Paid() bool {
	switch p {
	case PlanBasic, PlanPro, PlanUnlimited:
		return true
	}
	return false
}

// SubscriptionStatus enumerates the internal subscription states.
type SubscriptionStatus string

const (
	SubscriptionFree     SubscriptionStatus = "free"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
)

// Profile represents a creator's public storefront and its billing state.
type Profile struct {
	UserID           string
	Handle           string
	DisplayName      string
	Bio              string
	AvatarURL        string
	Theme            []byte // customization blob, opaque to the server
	Plan             PlanType
	Status           SubscriptionStatus
	StripeCustomerID string
	StripeSubID      string
	PriceID          string
	CurrentPeriodEnd *time.Time
	ProductCount     int // advisory counter, never used for limit checks
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SubscriptionState is the reconciled truth written by the synchronizer
// or an administrator grant.
type SubscriptionState struct {
	Plan           PlanType
	Status         SubscriptionStatus
	SubscriptionID string
	PriceID        string
	PeriodEnd      *time.Time
}

// ApplySubscriptionState is the single transition function for the
// profile's plan fields. Invariant: status=active implies a paid plan,
// so an active state with plan free is rejected.
func (p *Profile) ApplySubscriptionState(s SubscriptionState) error {
	if s.Status == SubscriptionActive && !s.Plan.Paid() {
		return ErrInvalidTransition
	}
	p.Plan = s.Plan
	p.Status = s.Status
	p.StripeSubID = s.SubscriptionID
	p.PriceID = s.PriceID
	p.CurrentPeriodEnd = s.PeriodEnd
	return nil
}

// EffectivePlan is the plan used for access control. Paid tiers only
// count while the subscription is active; everything else is free.
func (p Profile) EffectivePlan() PlanType {
	if p.Status != SubscriptionActive {
		return PlanFree
	}
	if !p.Plan.Paid() {
		return PlanFree
	}
	return p.Plan
}
