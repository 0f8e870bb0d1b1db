package billing

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"server/internal/domain"
)

// EventKind is the closed set of webhook event categories the service
// reacts to. Anything outside the set is Unknown and gets logged and
// ignored, which keeps new processor event types from breaking us.
type EventKind string

const (
	EventCheckoutCompleted     EventKind = "checkout_completed"
	EventSubscriptionLifecycle EventKind = "subscription_lifecycle"
	EventPaymentResult         EventKind = "payment_result"
	EventUnknown               EventKind = "unknown"
)

// Event is a verified, classified webhook delivery.
type Event struct {
	ID         string
	Kind       EventKind
	Type       string
	CustomerID string
	Raw        json.RawMessage
}

// SyncRelevant reports whether the event should trigger a subscription
// reconciliation for its customer.
func (e *Event) SyncRelevant() bool {
	if e.CustomerID == "" {
		return false
	}
	switch e.Kind {
	case EventCheckoutCompleted, EventSubscriptionLifecycle, EventPaymentResult:
		return true
	}
	return false
}

// Verifier authenticates webhook deliveries against the shared signing
// secret before anything downstream is allowed to trust them.
type Verifier struct {
	secret string
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// Verify checks the signature header against the exact raw body and the
// event timestamp against the replay tolerance window. Any failure maps
// to ErrInvalidWebhookSignature; callers must answer 4xx and process
// nothing.
func (v *Verifier) Verify(payload []byte, sigHeader string) (*Event, error) {
	if strings.TrimSpace(sigHeader) == "" {
		return nil, fmt.Errorf("%w: missing signature header", domain.ErrInvalidWebhookSignature)
	}

	ev, err := webhook.ConstructEventWithOptions(payload, sigHeader, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidWebhookSignature, err)
	}

	return classify(&ev), nil
}

func classify(ev *stripe.Event) *Event {
	out := &Event{
		ID:   ev.ID,
		Type: string(ev.Type),
		Kind: EventUnknown,
	}
	if ev.Data != nil {
		out.Raw = ev.Data.Raw
	}

	switch ev.Type {
	case "checkout.session.completed":
		out.Kind = EventCheckoutCompleted
		var session stripe.CheckoutSession
		if err := json.Unmarshal(out.Raw, &session); err == nil && session.Customer != nil {
			out.CustomerID = session.Customer.ID
		}
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		out.Kind = EventSubscriptionLifecycle
		var sub stripe.Subscription
		if err := json.Unmarshal(out.Raw, &sub); err == nil && sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}
	case "invoice.payment_succeeded", "invoice.payment_failed":
		out.Kind = EventPaymentResult
		var inv stripe.Invoice
		if err := json.Unmarshal(out.Raw, &inv); err == nil && inv.Customer != nil {
			out.CustomerID = inv.Customer.ID
		}
	}

	return out
}
