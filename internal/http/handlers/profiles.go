package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/unicode/norm"

	"server/internal/domain"
	"server/internal/middleware"
	"server/internal/sqlinline"
)

var handleRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{2,29}$`)

// NormalizeHandle lowercases, trims and NFC-normalizes a claimed
// handle so visually identical unicode input maps to one storefront.
func NormalizeHandle(raw string) (string, error) {
	handle := norm.NFC.String(strings.ToLower(strings.TrimSpace(raw)))
	if !handleRegexp.MatchString(handle) {
		return "", domain.ErrInvalidHandle
	}
	return handle, nil
}

type profileDTO struct {
	UserID           string          `json:"userId"`
	Handle           string          `json:"handle"`
	DisplayName      string          `json:"displayName"`
	Bio              string          `json:"bio"`
	AvatarURL        string          `json:"avatarUrl"`
	Theme            json.RawMessage `json:"theme,omitempty"`
	Plan             string          `json:"plan"`
	EffectivePlan    string          `json:"effectivePlan"`
	Status           string          `json:"subscriptionStatus"`
	CurrentPeriodEnd *time.Time      `json:"currentPeriodEnd,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

func toProfileDTO(p *domain.Profile) profileDTO {
	return profileDTO{
		UserID:           p.UserID,
		Handle:           p.Handle,
		DisplayName:      p.DisplayName,
		Bio:              p.Bio,
		AvatarURL:        p.AvatarURL,
		Theme:            json.RawMessage(p.Theme),
		Plan:             string(p.Plan),
		EffectivePlan:    string(p.EffectivePlan()),
		Status:           string(p.Status),
		CurrentPeriodEnd: p.CurrentPeriodEnd,
		CreatedAt:        p.CreatedAt,
	}
}

type profileClaimRequest struct {
	Handle      string          `json:"handle"`
	DisplayName string          `json:"displayName"`
	Bio         string          `json:"bio"`
	AvatarURL   string          `json:"avatarUrl"`
	Theme       json.RawMessage `json:"theme"`
}

// ProfileClaim creates the caller's storefront under a unique handle.
func (a *App) ProfileClaim(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	var req profileClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	handle, err := NormalizeHandle(req.Handle)
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid_handle", "handle must be 3-30 chars of a-z, 0-9, - or _")
		return
	}

	profile := &domain.Profile{
		UserID:      userID,
		Handle:      handle,
		DisplayName: norm.NFC.String(strings.TrimSpace(req.DisplayName)),
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
		Theme:       req.Theme,
	}
	created, err := a.Profiles.Create(r.Context(), profile)
	if err != nil {
		if errors.Is(err, domain.ErrHandleTaken) {
			a.error(w, http.StatusConflict, "handle_taken", "handle already taken")
			return
		}
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("profile create failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create profile")
		return
	}

	a.data(w, http.StatusCreated, toProfileDTO(created))
}

// ProfileMe returns the caller's own profile including billing state.
func (a *App) ProfileMe(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	profile, err := a.Profiles.GetByUserID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "profile not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load profile")
		return
	}

	a.data(w, http.StatusOK, toProfileDTO(profile))
}

type profileUpdateRequest struct {
	DisplayName *string          `json:"displayName"`
	Bio         *string          `json:"bio"`
	AvatarURL   *string          `json:"avatarUrl"`
	Theme       *json.RawMessage `json:"theme"`
}

// ProfileUpdate patches presentation fields. Billing columns are not
// reachable from here; only the synchronizer writes those.
func (a *App) ProfileUpdate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	profile, err := a.Profiles.GetByUserID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "profile not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load profile")
		return
	}

	if req.DisplayName != nil {
		profile.DisplayName = norm.NFC.String(strings.TrimSpace(*req.DisplayName))
	}
	if req.Bio != nil {
		profile.Bio = *req.Bio
	}
	if req.AvatarURL != nil {
		profile.AvatarURL = *req.AvatarURL
	}
	if req.Theme != nil {
		profile.Theme = *req.Theme
	}

	if err := a.Profiles.UpdateCustomization(r.Context(), profile); err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("profile update failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update profile")
		return
	}

	a.data(w, http.StatusOK, toProfileDTO(profile))
}

// Storefront serves the public page data for a handle: the profile's
// presentation fields plus its active products. A profile view is
// recorded best-effort; analytics must never break the page.
func (a *App) Storefront(w http.ResponseWriter, r *http.Request) {
	handle, err := NormalizeHandle(chi.URLParam(r, "handle"))
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "storefront not found")
		return
	}

	profile, err := a.Profiles.GetByHandle(r.Context(), handle)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "storefront not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load storefront")
		return
	}

	products, err := a.Products.ListByUser(r.Context(), profile.UserID, true)
	if err != nil {
		a.Logger.Error().Err(err).Str("handle", handle).Msg("storefront products load failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load storefront")
		return
	}

	country := middleware.CountryFromContext(r.Context())
	if _, err := a.SQL.Exec(r.Context(), sqlinline.QInsertProfileView, profile.UserID, country, r.Referer()); err != nil {
		a.Logger.Warn().Err(err).Str("handle", handle).Msg("profile view tracking failed")
	}

	items := make([]productDTO, 0, len(products))
	for i := range products {
		items = append(items, toProductDTO(&products[i]))
	}

	a.data(w, http.StatusOK, map[string]any{
		"profile": map[string]any{
			"handle":      profile.Handle,
			"displayName": profile.DisplayName,
			"bio":         profile.Bio,
			"avatarUrl":   profile.AvatarURL,
			"theme":       json.RawMessage(profile.Theme),
		},
		"products": items,
	})
}
