package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"server/internal/domain"
)

// maxWebhookBody bounds webhook payload reads. Processor events are a
// few KB; anything past this is not a legitimate delivery.
const maxWebhookBody = 1 << 20

// BillingWebhook receives processor deliveries. It verifies the
// signature against the exact raw body, enqueues a sync job for
// relevant events and acknowledges fast; the worker does the actual
// reconciliation.
func (a *App) BillingWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.error(w, http.StatusMethodNotAllowed, "method_not_allowed", "webhook accepts POST only")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unreadable payload")
		return
	}

	ev, err := a.Verifier.Verify(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		a.Logger.Warn().Err(err).Msg("webhook rejected")
		a.error(w, http.StatusBadRequest, "invalid_signature", "signature verification failed")
		return
	}

	if !ev.SyncRelevant() {
		a.Logger.Debug().Str("event_type", ev.Type).Msg("webhook event ignored")
		a.json(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	job := &domain.SyncJob{
		ID:               uuid.NewString(),
		EventID:          ev.ID,
		EventType:        ev.Type,
		StripeCustomerID: ev.CustomerID,
	}
	if err := a.SyncJobs.Enqueue(r.Context(), job); err != nil {
		if errors.Is(err, domain.ErrDuplicateEvent) {
			// Redelivery of an event we already queued; ack so the
			// processor stops retrying.
			a.Logger.Debug().Str("event_id", ev.ID).Msg("duplicate webhook event acknowledged")
			a.json(w, http.StatusOK, map[string]bool{"received": true})
			return
		}
		a.Logger.Error().Err(err).Str("event_id", ev.ID).Msg("enqueue sync job failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue event")
		return
	}

	a.Logger.Info().
		Str("event_id", ev.ID).
		Str("event_type", ev.Type).
		Str("customer_id", ev.CustomerID).
		Msg("sync job enqueued")
	a.json(w, http.StatusOK, map[string]bool{"received": true})
}

type subscribeRequest struct {
	PlanType string `json:"planType"`
}

// BillingSubscribe opens a checkout session for the requested plan, or
// short-circuits for whitelisted and already-subscribed users.
func (a *App) BillingSubscribe(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	result, err := a.Issuer.CreateCheckout(r.Context(), userID, a.currentUserEmail(r), domain.PlanType(req.PlanType))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "not_found", "profile not found")
		case errors.Is(err, domain.ErrUnsupportedPlan):
			a.error(w, http.StatusBadRequest, "bad_request", "plan is not purchasable")
		default:
			a.Logger.Error().Err(err).Str("user_id", userID).Msg("create checkout failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to create checkout session")
		}
		return
	}

	switch {
	case result.Whitelisted:
		a.data(w, http.StatusOK, map[string]bool{"whitelisted": true})
	case result.AlreadySubscribed:
		a.data(w, http.StatusOK, map[string]bool{"alreadySubscribed": true})
	default:
		a.data(w, http.StatusOK, map[string]string{
			"checkoutUrl": result.CheckoutURL,
			"sessionId":   result.SessionID,
		})
	}
}

// BillingPortal opens a billing-portal session for an existing paying
// customer.
func (a *App) BillingPortal(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	url, err := a.Issuer.CreatePortal(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoBillingAccount):
			a.error(w, http.StatusUnauthorized, "no_billing_account", "no billing account on file")
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "not_found", "profile not found")
		default:
			a.Logger.Error().Err(err).Str("user_id", userID).Msg("create portal failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to create portal session")
		}
		return
	}

	a.data(w, http.StatusOK, map[string]string{"portalUrl": url})
}
