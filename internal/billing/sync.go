package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"

	"server/internal/domain"
)

// Synchronizer reconciles a customer's stored plan state with the
// payment processor. It is the sole writer of paid plan fields outside
// of administrator grants.
type Synchronizer struct {
	gateway  Gateway
	profiles domain.ProfileRepository
	details  domain.SubscriptionDetailRepository
	mapper   *PlanMapper
	logger   zerolog.Logger
}

func NewSynchronizer(gateway Gateway, profiles domain.ProfileRepository, details domain.SubscriptionDetailRepository, mapper *PlanMapper, logger zerolog.Logger) *Synchronizer {
	return &Synchronizer{
		gateway:  gateway,
		profiles: profiles,
		details:  details,
		mapper:   mapper,
		logger:   logger,
	}
}

// Sync re-fetches the customer's current subscription state from the
// processor and writes it to the profile. Webhook payloads are never
// trusted as state: a redelivered or out-of-order event only ever
// triggers a fresh fetch, so stale events cannot regress newer state
// and running twice against unchanged processor state is a no-op.
func (s *Synchronizer) Sync(ctx context.Context, customerID string) error {
	profile, err := s.profiles.GetByStripeCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Data-integrity gap upstream: the customer id was handed to
			// the processor but never persisted on a profile. Alert, do
			// not retry forever.
			s.logger.Error().Str("customer_id", customerID).Msg("sync: no profile for customer")
			return fmt.Errorf("%w: %s", domain.ErrProfileNotFoundForCustomer, customerID)
		}
		return fmt.Errorf("load profile for customer %s: %w", customerID, err)
	}

	sub, err := s.gateway.LatestSubscription(ctx, customerID)
	if err != nil {
		return fmt.Errorf("fetch subscriptions for customer %s: %w", customerID, err)
	}

	state := s.stateFor(sub)
	if err := profile.ApplySubscriptionState(state); err != nil {
		return fmt.Errorf("apply subscription state for %s: %w", customerID, err)
	}
	if err := s.profiles.UpdateSubscriptionState(ctx, profile.UserID, state); err != nil {
		return fmt.Errorf("update profile %s: %w", profile.UserID, err)
	}

	// The detail record is secondary; failures are logged, never fatal.
	if sub == nil {
		if err := s.details.DeleteByCustomerID(ctx, customerID); err != nil {
			s.logger.Warn().Err(err).Str("customer_id", customerID).Msg("sync: delete detail record failed")
		}
	} else {
		if err := s.details.Upsert(ctx, detailFor(customerID, sub)); err != nil {
			s.logger.Warn().Err(err).Str("customer_id", customerID).Msg("sync: upsert detail record failed")
		}
	}

	s.logger.Info().
		Str("customer_id", customerID).
		Str("plan", string(state.Plan)).
		Str("status", string(state.Status)).
		Msg("subscription synced")
	return nil
}

func (s *Synchronizer) stateFor(sub *stripe.Subscription) domain.SubscriptionState {
	if sub == nil {
		// Full cancellation or customer deletion.
		return domain.SubscriptionState{Plan: domain.PlanFree, Status: domain.SubscriptionInactive}
	}

	priceID := firstPriceID(sub)
	plan := s.mapper.PlanFromPrice(priceID)
	status := internalStatus(sub.Status)
	if status == domain.SubscriptionActive && !plan.Paid() {
		// An active subscription with no line-item price is effectively
		// an unrecognized price: same permissive default, same signal.
		s.logger.Warn().Str("subscription_id", sub.ID).Msg("active subscription without price id, defaulting to pro")
		plan = domain.PlanPro
	}

	return domain.SubscriptionState{
		Plan:           plan,
		Status:         status,
		SubscriptionID: sub.ID,
		PriceID:        priceID,
		PeriodEnd:      periodEnd(sub),
	}
}

// internalStatus collapses the processor's status vocabulary into the
// internal one: only active and trialing grant access.
func internalStatus(status stripe.SubscriptionStatus) domain.SubscriptionStatus {
	switch status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return domain.SubscriptionActive
	}
	return domain.SubscriptionInactive
}

func firstPriceID(sub *stripe.Subscription) string {
	if sub.Items == nil {
		return ""
	}
	for _, item := range sub.Items.Data {
		if item.Price != nil && item.Price.ID != "" {
			return item.Price.ID
		}
	}
	return ""
}

func periodEnd(sub *stripe.Subscription) *time.Time {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return nil
	}
	if ts := sub.Items.Data[0].CurrentPeriodEnd; ts > 0 {
		t := time.Unix(ts, 0).UTC()
		return &t
	}
	return nil
}

func periodStart(sub *stripe.Subscription) *time.Time {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return nil
	}
	if ts := sub.Items.Data[0].CurrentPeriodStart; ts > 0 {
		t := time.Unix(ts, 0).UTC()
		return &t
	}
	return nil
}

func detailFor(customerID string, sub *stripe.Subscription) *domain.SubscriptionDetail {
	detail := &domain.SubscriptionDetail{
		StripeCustomerID:  customerID,
		SubscriptionID:    sub.ID,
		PriceID:           firstPriceID(sub),
		PeriodStart:       periodStart(sub),
		PeriodEnd:         periodEnd(sub),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		RawStatus:         string(sub.Status),
	}
	if pm := sub.DefaultPaymentMethod; pm != nil && pm.Card != nil {
		detail.PaymentBrand = string(pm.Card.Brand)
		detail.PaymentLast4 = pm.Card.Last4
	}
	return detail
}
