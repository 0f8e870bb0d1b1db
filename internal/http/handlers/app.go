package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/billing"
	"server/internal/domain"
	"server/internal/infra"
	"server/internal/middleware"
)

// App bundles the dependencies handlers need. Repositories cover entity
// access; SQL runs the marked inline analytics queries directly.
type App struct {
	SQL      infra.SQLExecutor
	Logger   zerolog.Logger
	Profiles domain.ProfileRepository
	Products domain.ProductRepository
	SyncJobs domain.SyncJobRepository
	Verifier *billing.Verifier
	Issuer   *billing.Issuer
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) data(w http.ResponseWriter, code int, v any) {
	a.json(w, code, map[string]any{"data": v})
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

func (a *App) currentUserEmail(r *http.Request) string {
	return middleware.UserEmailFromContext(r.Context())
}
