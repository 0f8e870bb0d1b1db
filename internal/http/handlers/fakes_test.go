package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stripe/stripe-go/v82"

	"server/internal/billing"
	"server/internal/domain"
)

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

var errDatabaseDown = errors.New("database down")

type execCall struct {
	query string
	args  []any
}

type fakeSQL struct {
	mu       sync.Mutex
	execErr  error
	scanRow  func(dest ...any) error
	execLog  []execCall
	queryErr error
}

func (f *fakeSQL) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execLog = append(f.execLog, execCall{query: query, args: args})
	return pgconn.CommandTag{}, f.execErr
}

func (f *fakeSQL) QueryRow(context.Context, string, ...any) pgx.Row {
	return NewSimpleRow(f.scanRow)
}

func (f *fakeSQL) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, f.queryErr
}

func (f *fakeSQL) execCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.execLog)
}

type fakeProfilesRepo struct {
	byUser   map[string]*domain.Profile
	byHandle map[string]*domain.Profile
}

func newFakeProfilesRepo(profiles ...*domain.Profile) *fakeProfilesRepo {
	f := &fakeProfilesRepo{
		byUser:   make(map[string]*domain.Profile),
		byHandle: make(map[string]*domain.Profile),
	}
	for _, p := range profiles {
		f.byUser[p.UserID] = p
		f.byHandle[p.Handle] = p
	}
	return f
}

func (f *fakeProfilesRepo) Create(_ context.Context, profile *domain.Profile) (*domain.Profile, error) {
	if _, taken := f.byHandle[profile.Handle]; taken {
		return nil, domain.ErrHandleTaken
	}
	f.byUser[profile.UserID] = profile
	f.byHandle[profile.Handle] = profile
	return profile, nil
}

func (f *fakeProfilesRepo) GetByUserID(_ context.Context, userID string) (*domain.Profile, error) {
	if p, ok := f.byUser[userID]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProfilesRepo) GetByHandle(_ context.Context, handle string) (*domain.Profile, error) {
	if p, ok := f.byHandle[handle]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProfilesRepo) GetByStripeCustomerID(_ context.Context, customerID string) (*domain.Profile, error) {
	for _, p := range f.byUser {
		if p.StripeCustomerID == customerID {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProfilesRepo) UpdateCustomization(context.Context, *domain.Profile) error { return nil }

func (f *fakeProfilesRepo) SetStripeCustomerID(_ context.Context, userID, customerID string) error {
	p, ok := f.byUser[userID]
	if !ok {
		return domain.ErrNotFound
	}
	p.StripeCustomerID = customerID
	return nil
}

func (f *fakeProfilesRepo) UpdateSubscriptionState(_ context.Context, userID string, state domain.SubscriptionState) error {
	p, ok := f.byUser[userID]
	if !ok {
		return domain.ErrNotFound
	}
	return p.ApplySubscriptionState(state)
}

type fakeProductsRepo struct {
	createErr error
	products  []domain.Product
	updateErr error
}

func (f *fakeProductsRepo) CreateWithinLimit(_ context.Context, product *domain.Product) (*domain.Product, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.products = append(f.products, *product)
	return product, nil
}

func (f *fakeProductsRepo) ListByUser(_ context.Context, userID string, activeOnly bool) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range f.products {
		if p.UserID != userID {
			continue
		}
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProductsRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	for i := range f.products {
		if f.products[i].ID == id {
			return &f.products[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProductsRepo) Update(context.Context, *domain.Product) error { return nil }

func (f *fakeProductsRepo) Deactivate(_ context.Context, id, userID string) error {
	for i := range f.products {
		if f.products[i].ID == id && f.products[i].UserID == userID && f.products[i].Active {
			f.products[i].Active = false
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeProductsRepo) CountActiveByUser(context.Context, string) (int, error) { return 0, nil }

type fakeSyncJobsRepo struct {
	mu         sync.Mutex
	enqueueErr error
	jobs       []*domain.SyncJob
	seen       map[string]bool
}

func newFakeSyncJobsRepo() *fakeSyncJobsRepo {
	return &fakeSyncJobsRepo{seen: make(map[string]bool)}
}

func (f *fakeSyncJobsRepo) Enqueue(_ context.Context, job *domain.SyncJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	if f.seen[job.EventID] {
		return domain.ErrDuplicateEvent
	}
	f.seen[job.EventID] = true
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeSyncJobsRepo) ClaimNext(context.Context) (*domain.SyncJob, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeSyncJobsRepo) MarkDone(context.Context, string) error { return nil }

func (f *fakeSyncJobsRepo) MarkFailed(context.Context, string, string) error { return nil }

func (f *fakeSyncJobsRepo) queued() []*domain.SyncJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*domain.SyncJob(nil), f.jobs...)
}

type fakeWhitelistRepo struct {
	emails map[string]bool
}

func (f *fakeWhitelistRepo) Add(context.Context, *domain.WhitelistEntry) error { return nil }

func (f *fakeWhitelistRepo) Remove(context.Context, string) error { return nil }

func (f *fakeWhitelistRepo) Contains(_ context.Context, email string) (bool, error) {
	return f.emails[email], nil
}

type stubGateway struct {
	session   *stripe.CheckoutSession
	portalURL string
}

func (g *stubGateway) LatestSubscription(context.Context, string) (*stripe.Subscription, error) {
	return nil, nil
}

func (g *stubGateway) CreateCustomer(context.Context, string, string) (string, error) {
	return "cus_test", nil
}

func (g *stubGateway) CreateCheckoutSession(context.Context, billing.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if g.session == nil {
		return nil, errDatabaseDown
	}
	return g.session, nil
}

func (g *stubGateway) CreatePortalSession(context.Context, string, string) (string, error) {
	return g.portalURL, nil
}
