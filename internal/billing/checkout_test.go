package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"

	"server/internal/domain"
)

func testIssuer(gateway *fakeGateway, profiles *fakeProfiles, whitelist *fakeWhitelist) *Issuer {
	return NewIssuer(gateway, profiles, whitelist, testMapper(), "https://shop.example", zerolog.Nop())
}

func TestCreateCheckoutReturnsSessionURL(t *testing.T) {
	profiles := newFakeProfiles(&domain.Profile{UserID: "user-1", Handle: "alice"})
	gateway := &fakeGateway{
		customerID: "cus_new",
		session:    &stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.example/cs_1"},
	}
	issuer := testIssuer(gateway, profiles, &fakeWhitelist{})

	res, err := issuer.CreateCheckout(context.Background(), "user-1", "alice@example.com", domain.PlanBasic)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if res.CheckoutURL != "https://checkout.example/cs_1" || res.SessionID != "cs_1" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Whitelisted || res.AlreadySubscribed {
		t.Fatal("plain checkout must not report a short-circuit")
	}
	if got := profiles.stored("user-1").StripeCustomerID; got != "cus_new" {
		t.Fatalf("customer id not persisted: %q", got)
	}
}

func TestCreateCheckoutReusesExistingCustomer(t *testing.T) {
	profiles := newFakeProfiles(&domain.Profile{UserID: "user-1", StripeCustomerID: "cus_old"})
	gateway := &fakeGateway{
		customerErr: errUpstream, // would fail if a second customer were created
		session:     &stripe.CheckoutSession{ID: "cs_2", URL: "https://checkout.example/cs_2"},
	}
	issuer := testIssuer(gateway, profiles, &fakeWhitelist{})

	if _, err := issuer.CreateCheckout(context.Background(), "user-1", "a@example.com", domain.PlanPro); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if got := profiles.stored("user-1").StripeCustomerID; got != "cus_old" {
		t.Fatalf("existing customer id overwritten: %q", got)
	}
}

func TestCreateCheckoutWhitelistedEmailGrantsProWithoutPayment(t *testing.T) {
	profiles := newFakeProfiles(&domain.Profile{UserID: "user-1"})
	gateway := &fakeGateway{}
	issuer := testIssuer(gateway, profiles, &fakeWhitelist{emails: map[string]bool{"vip@example.com": true}})

	res, err := issuer.CreateCheckout(context.Background(), "user-1", "vip@example.com", domain.PlanBasic)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if !res.Whitelisted {
		t.Fatal("expected whitelist grant")
	}
	if gateway.checkoutCalls != 0 {
		t.Fatal("whitelist grant must not reach the payment processor")
	}
	got := profiles.stored("user-1")
	if got.Plan != domain.PlanPro || got.Status != domain.SubscriptionActive {
		t.Fatalf("expected pro/active grant, got %s/%s", got.Plan, got.Status)
	}
}

func TestCreateCheckoutWhitelistErrorFallsThroughToCheckout(t *testing.T) {
	profiles := newFakeProfiles(&domain.Profile{UserID: "user-1", StripeCustomerID: "cus_1"})
	gateway := &fakeGateway{session: &stripe.CheckoutSession{ID: "cs_3", URL: "https://checkout.example/cs_3"}}
	issuer := testIssuer(gateway, profiles, &fakeWhitelist{err: errUpstream})

	res, err := issuer.CreateCheckout(context.Background(), "user-1", "vip@example.com", domain.PlanBasic)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if res.Whitelisted || res.CheckoutURL == "" {
		t.Fatalf("lookup failure must degrade to a normal checkout: %+v", res)
	}
}

func TestCreateCheckoutAlreadySubscribed(t *testing.T) {
	profiles := newFakeProfiles(&domain.Profile{
		UserID:           "user-1",
		Plan:             domain.PlanBasic,
		Status:           domain.SubscriptionActive,
		StripeCustomerID: "cus_1",
	})
	gateway := &fakeGateway{}
	issuer := testIssuer(gateway, profiles, &fakeWhitelist{})

	res, err := issuer.CreateCheckout(context.Background(), "user-1", "a@example.com", domain.PlanPro)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if !res.AlreadySubscribed {
		t.Fatalf("expected already-subscribed short-circuit, got %+v", res)
	}
	if gateway.checkoutCalls != 0 {
		t.Fatal("no session should be created for an active subscriber")
	}
}

func TestCreateCheckoutUnsupportedPlan(t *testing.T) {
	profiles := newFakeProfiles(&domain.Profile{UserID: "user-1"})
	issuer := testIssuer(&fakeGateway{}, profiles, &fakeWhitelist{})

	if _, err := issuer.CreateCheckout(context.Background(), "user-1", "a@example.com", domain.PlanFree); !errors.Is(err, domain.ErrUnsupportedPlan) {
		t.Fatalf("expected ErrUnsupportedPlan, got %v", err)
	}
}

func TestCreateCheckoutUnknownUser(t *testing.T) {
	issuer := testIssuer(&fakeGateway{}, newFakeProfiles(), &fakeWhitelist{})

	if _, err := issuer.CreateCheckout(context.Background(), "ghost", "a@example.com", domain.PlanBasic); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreatePortalRequiresBillingAccount(t *testing.T) {
	profiles := newFakeProfiles(&domain.Profile{UserID: "user-1"})
	issuer := testIssuer(&fakeGateway{portalURL: "https://portal.example"}, profiles, &fakeWhitelist{})

	if _, err := issuer.CreatePortal(context.Background(), "user-1"); !errors.Is(err, domain.ErrNoBillingAccount) {
		t.Fatalf("expected ErrNoBillingAccount, got %v", err)
	}
}

func TestCreatePortalReturnsURL(t *testing.T) {
	profiles := newFakeProfiles(&domain.Profile{UserID: "user-1", StripeCustomerID: "cus_1"})
	issuer := testIssuer(&fakeGateway{portalURL: "https://portal.example/ps_1"}, profiles, &fakeWhitelist{})

	url, err := issuer.CreatePortal(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("portal failed: %v", err)
	}
	if url != "https://portal.example/ps_1" {
		t.Fatalf("unexpected portal url: %q", url)
	}
}
