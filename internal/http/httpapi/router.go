package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"server/internal/http/handlers"
	"server/internal/middleware"
)

// RouterConfig carries the knobs the router needs beyond the App itself.
type RouterConfig struct {
	JWTSecret       string
	AllowedOrigins  []string
	RateLimitPerMin int
	CountryLookup   middleware.CountryLookup
}

// NewRouter wires the public, authenticated and webhook surfaces. The
// webhook route deliberately sits outside auth and rate limiting: the
// processor signs its own requests and must never be throttled into
// retry storms.
func NewRouter(app *handlers.App, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(cfg.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	r.Post("/v1/billing/webhook", app.BillingWebhook)

	// Public storefront + tracking, rate limited per IP.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
		r.Use(middleware.Geo(cfg.CountryLookup))
		r.Get("/v1/storefront/{handle}", app.Storefront)
		r.Post("/v1/track/click", app.TrackClick)
		r.Post("/v1/track/view", app.TrackView)
	})

	// Authenticated creator surface.
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(cfg.JWTSecret))

		r.Post("/v1/profiles", app.ProfileClaim)
		r.Get("/v1/me/profile", app.ProfileMe)
		r.Patch("/v1/me/profile", app.ProfileUpdate)
		r.Get("/v1/me/stats", app.StatsSummary)

		r.Route("/v1/products", func(r chi.Router) {
			r.Post("/", app.ProductsCreate)
			r.Get("/", app.ProductsList)
			r.Patch("/{id}", app.ProductsUpdate)
			r.Delete("/{id}", app.ProductsDelete)
		})

		r.Post("/v1/billing/subscribe", app.BillingSubscribe)
		r.Post("/v1/billing/portal", app.BillingPortal)
	})

	return r
}
