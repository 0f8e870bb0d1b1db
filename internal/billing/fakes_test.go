package billing

import (
	"context"
	"errors"
	"sync"

	"github.com/stripe/stripe-go/v82"

	"server/internal/domain"
)

type fakeGateway struct {
	mu            sync.Mutex
	sub           *stripe.Subscription
	listErr       error
	customerID    string
	customerErr   error
	session       *stripe.CheckoutSession
	sessionErr    error
	portalURL     string
	portalErr     error
	listCalls     int
	checkoutCalls int
}

func (g *fakeGateway) LatestSubscription(ctx context.Context, customerID string) (*stripe.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listCalls++
	if g.listErr != nil {
		return nil, g.listErr
	}
	return g.sub, nil
}

func (g *fakeGateway) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	if g.customerErr != nil {
		return "", g.customerErr
	}
	return g.customerID, nil
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, p CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checkoutCalls++
	if g.sessionErr != nil {
		return nil, g.sessionErr
	}
	return g.session, nil
}

func (g *fakeGateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	if g.portalErr != nil {
		return "", g.portalErr
	}
	return g.portalURL, nil
}

type fakeProfiles struct {
	mu         sync.Mutex
	byUser     map[string]*domain.Profile
	byCustomer map[string]string // customer id -> user id
	updateErr  error
}

func newFakeProfiles(profiles ...*domain.Profile) *fakeProfiles {
	f := &fakeProfiles{
		byUser:     make(map[string]*domain.Profile),
		byCustomer: make(map[string]string),
	}
	for _, p := range profiles {
		cp := *p
		f.byUser[p.UserID] = &cp
		if p.StripeCustomerID != "" {
			f.byCustomer[p.StripeCustomerID] = p.UserID
		}
	}
	return f
}

func (f *fakeProfiles) Create(ctx context.Context, profile *domain.Profile) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *profile
	f.byUser[profile.UserID] = &cp
	return &cp, nil
}

func (f *fakeProfiles) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byUser[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) GetByHandle(ctx context.Context, handle string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byUser {
		if p.Handle == handle {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProfiles) GetByStripeCustomerID(ctx context.Context, customerID string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	userID, ok := f.byCustomer[customerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *f.byUser[userID]
	return &cp, nil
}

func (f *fakeProfiles) UpdateCustomization(ctx context.Context, profile *domain.Profile) error {
	return nil
}

func (f *fakeProfiles) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byUser[userID]
	if !ok {
		return domain.ErrNotFound
	}
	p.StripeCustomerID = customerID
	f.byCustomer[customerID] = userID
	return nil
}

func (f *fakeProfiles) UpdateSubscriptionState(ctx context.Context, userID string, state domain.SubscriptionState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	p, ok := f.byUser[userID]
	if !ok {
		return domain.ErrNotFound
	}
	if err := p.ApplySubscriptionState(state); err != nil {
		return err
	}
	return nil
}

func (f *fakeProfiles) stored(userID string) domain.Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.byUser[userID]
}

type fakeDetails struct {
	mu        sync.Mutex
	byID      map[string]*domain.SubscriptionDetail
	upsertErr error
}

func newFakeDetails() *fakeDetails {
	return &fakeDetails{byID: make(map[string]*domain.SubscriptionDetail)}
}

func (f *fakeDetails) Upsert(ctx context.Context, detail *domain.SubscriptionDetail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	cp := *detail
	f.byID[detail.StripeCustomerID] = &cp
	return nil
}

func (f *fakeDetails) GetByCustomerID(ctx context.Context, customerID string) (*domain.SubscriptionDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.byID[customerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDetails) DeleteByCustomerID(ctx context.Context, customerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, customerID)
	return nil
}

type fakeWhitelist struct {
	emails map[string]bool
	err    error
}

func (f *fakeWhitelist) Add(ctx context.Context, entry *domain.WhitelistEntry) error { return nil }

func (f *fakeWhitelist) Remove(ctx context.Context, email string) error { return nil }

func (f *fakeWhitelist) Contains(ctx context.Context, email string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.emails[email], nil
}

var errUpstream = errors.New("upstream failure")
