package billing

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

// Issuer creates outbound checkout and billing-portal session URLs.
// It holds no durable state of its own; whatever a checkout produces is
// later reconciled by the Synchronizer.
type Issuer struct {
	gateway   Gateway
	profiles  domain.ProfileRepository
	whitelist domain.WhitelistRepository
	mapper    *PlanMapper
	siteURL   string
	logger    zerolog.Logger
}

func NewIssuer(gateway Gateway, profiles domain.ProfileRepository, whitelist domain.WhitelistRepository, mapper *PlanMapper, siteURL string, logger zerolog.Logger) *Issuer {
	return &Issuer{
		gateway:   gateway,
		profiles:  profiles,
		whitelist: whitelist,
		mapper:    mapper,
		siteURL:   siteURL,
		logger:    logger,
	}
}

// CheckoutResult is the outcome of a subscribe request. Exactly one of
// the three shapes applies: a checkout URL, a whitelist grant, or an
// already-subscribed short-circuit.
type CheckoutResult struct {
	CheckoutURL       string
	SessionID         string
	Whitelisted       bool
	AlreadySubscribed bool
}

// CreateCheckout opens a hosted checkout for the requested plan.
// Whitelisted emails are granted pro directly without payment.
func (i *Issuer) CreateCheckout(ctx context.Context, userID, email string, plan domain.PlanType) (*CheckoutResult, error) {
	profile, err := i.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if email != "" {
		listed, err := i.whitelist.Contains(ctx, email)
		if err != nil {
			i.logger.Warn().Err(err).Str("email", email).Msg("whitelist lookup failed, treating as not listed")
		} else if listed {
			state := domain.SubscriptionState{Plan: domain.PlanPro, Status: domain.SubscriptionActive}
			if err := profile.ApplySubscriptionState(state); err != nil {
				return nil, err
			}
			if err := i.profiles.UpdateSubscriptionState(ctx, userID, state); err != nil {
				return nil, fmt.Errorf("grant whitelisted pro: %w", err)
			}
			i.logger.Info().Str("user_id", userID).Msg("whitelisted email granted pro")
			return &CheckoutResult{Whitelisted: true}, nil
		}
	}

	if profile.Status == domain.SubscriptionActive {
		return &CheckoutResult{AlreadySubscribed: true}, nil
	}

	priceID, err := i.mapper.PriceForPlan(plan)
	if err != nil {
		return nil, err
	}

	customerID := profile.StripeCustomerID
	if customerID == "" {
		customerID, err = i.gateway.CreateCustomer(ctx, email, userID)
		if err != nil {
			return nil, err
		}
		// Set once; the synchronizer keys everything off this id.
		if err := i.profiles.SetStripeCustomerID(ctx, userID, customerID); err != nil {
			return nil, fmt.Errorf("persist customer id: %w", err)
		}
	}

	session, err := i.gateway.CreateCheckoutSession(ctx, CheckoutSessionParams{
		CustomerID:        customerID,
		PriceID:           priceID,
		SuccessURL:        i.siteURL + "/account?checkout=success",
		CancelURL:         i.siteURL + "/account?checkout=cancelled",
		ClientReferenceID: userID,
	})
	if err != nil {
		return nil, err
	}

	return &CheckoutResult{CheckoutURL: session.URL, SessionID: session.ID}, nil
}

// CreatePortal opens a billing-portal session for an existing paying
// customer. ErrNoBillingAccount when no customer id is on file.
func (i *Issuer) CreatePortal(ctx context.Context, userID string) (string, error) {
	profile, err := i.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if profile.StripeCustomerID == "" {
		return "", domain.ErrNoBillingAccount
	}
	return i.gateway.CreatePortalSession(ctx, profile.StripeCustomerID, i.siteURL+"/account")
}
