package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"server/internal/domain"
)

type productDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"imageUrl"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	PriceLabel  string    `json:"priceLabel"`
	Position    int       `json:"position"`
	Active      bool      `json:"active"`
	ClickCount  int       `json:"clickCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toProductDTO(p *domain.Product) productDTO {
	return productDTO{
		ID:          p.ID,
		Title:       p.Title,
		URL:         p.URL,
		ImageURL:    p.ImageURL,
		Description: p.Description,
		Category:    p.Category,
		PriceLabel:  p.PriceLabel,
		Position:    p.Position,
		Active:      p.Active,
		ClickCount:  p.ClickCount,
		CreatedAt:   p.CreatedAt,
	}
}

type productRequest struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	ImageURL    string `json:"imageUrl"`
	Description string `json:"description"`
	Category    string `json:"category"`
	PriceLabel  string `json:"priceLabel"`
	Position    int    `json:"position"`
}

// ProductsCreate adds a listing. The plan allowance is enforced inside
// the repository transaction against a live count, so a full response
// here means the product really fit under the cap.
func (a *App) ProductsCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.URL) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "title and url are required")
		return
	}

	product := &domain.Product{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		URL:         strings.TrimSpace(req.URL),
		ImageURL:    req.ImageURL,
		Description: req.Description,
		Category:    req.Category,
		PriceLabel:  req.PriceLabel,
		Position:    req.Position,
	}

	created, err := a.Products.CreateWithinLimit(r.Context(), product)
	if err != nil {
		var limitErr *domain.PlanLimitError
		switch {
		case errors.As(err, &limitErr):
			a.json(w, http.StatusForbidden, map[string]any{
				"error": map[string]any{
					"code":    "plan_limit_reached",
					"message": limitErr.Error(),
					"limit":   limitErr.Limit,
				},
			})
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "not_found", "profile not found")
		default:
			a.Logger.Error().Err(err).Str("user_id", userID).Msg("product create failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to create product")
		}
		return
	}

	a.data(w, http.StatusCreated, toProductDTO(created))
}

// ProductsList returns the caller's products, inactive ones included so
// the dashboard can show history.
func (a *App) ProductsList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	activeOnly := r.URL.Query().Get("active") == "true"
	products, err := a.Products.ListByUser(r.Context(), userID, activeOnly)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("product list failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list products")
		return
	}

	items := make([]productDTO, 0, len(products))
	for i := range products {
		items = append(items, toProductDTO(&products[i]))
	}
	a.data(w, http.StatusOK, map[string]any{"items": items})
}

// ProductsUpdate rewrites a listing's editable fields.
func (a *App) ProductsUpdate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.URL) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "title and url are required")
		return
	}

	product := &domain.Product{
		ID:          chi.URLParam(r, "id"),
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		URL:         strings.TrimSpace(req.URL),
		ImageURL:    req.ImageURL,
		Description: req.Description,
		Category:    req.Category,
		PriceLabel:  req.PriceLabel,
		Position:    req.Position,
	}
	if err := a.Products.Update(r.Context(), product); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("product update failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update product")
		return
	}

	a.data(w, http.StatusOK, toProductDTO(product))
}

// ProductsDelete deactivates a listing. The row stays so click history
// and analytics survive.
func (a *App) ProductsDelete(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	if err := a.Products.Deactivate(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("product delete failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
