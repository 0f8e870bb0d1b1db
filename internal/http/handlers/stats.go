package handlers

import (
	"net/http"
	"time"

	"server/internal/sqlinline"
)

// StatsSummary returns the caller's storefront analytics rollup.
func (a *App) StatsSummary(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	row := a.SQL.QueryRow(r.Context(), sqlinline.QStatsSummary, userID)
	var totalClicks, totalViews, clicks24, views24 int64
	var topProductID string
	if err := row.Scan(&totalClicks, &totalViews, &clicks24, &views24, &topProductID); err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("stats query failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}

	a.data(w, http.StatusOK, map[string]any{
		"totalClicks":  totalClicks,
		"totalViews":   totalViews,
		"clicksLast24": clicks24,
		"viewsLast24":  views24,
		"topProductId": topProductID,
		"generatedAt":  time.Now().UTC(),
	})
}
