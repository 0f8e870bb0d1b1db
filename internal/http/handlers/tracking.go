package handlers

import (
	"encoding/json"
	"net/http"

	"server/internal/middleware"
	"server/internal/sqlinline"
)

type trackClickRequest struct {
	ProductID string `json:"productId"`
	Referrer  string `json:"referrer"`
}

// TrackClick records an outbound product click. Tracking is best-effort:
// a malformed body or write failure is logged and the response is 204
// either way so the visitor's redirect is never blocked on analytics.
func (a *App) TrackClick(w http.ResponseWriter, r *http.Request) {
	var req trackClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	referrer := req.Referrer
	if referrer == "" {
		referrer = r.Referer()
	}
	country := middleware.CountryFromContext(r.Context())

	if _, err := a.SQL.Exec(r.Context(), sqlinline.QInsertClickEvent, req.ProductID, country, referrer); err != nil {
		a.Logger.Warn().Err(err).Str("product_id", req.ProductID).Msg("click tracking failed")
	}
	w.WriteHeader(http.StatusNoContent)
}

type trackViewRequest struct {
	ProfileUserID string `json:"profileUserId"`
	Referrer      string `json:"referrer"`
}

// TrackView records a storefront view for clients that render from a
// cache and never hit the storefront endpoint.
func (a *App) TrackView(w http.ResponseWriter, r *http.Request) {
	var req trackViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProfileUserID == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	referrer := req.Referrer
	if referrer == "" {
		referrer = r.Referer()
	}
	country := middleware.CountryFromContext(r.Context())

	if _, err := a.SQL.Exec(r.Context(), sqlinline.QInsertProfileView, req.ProfileUserID, country, referrer); err != nil {
		a.Logger.Warn().Err(err).Str("profile_user_id", req.ProfileUserID).Msg("view tracking failed")
	}
	w.WriteHeader(http.StatusNoContent)
}
