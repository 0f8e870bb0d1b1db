package domain

import "time"

// ClickEvent records an outbound click on a product link.
type ClickEvent struct {
	ProductID string
	Country   string
	Referrer  string
	CreatedAt time.Time
}

// ProfileView records a storefront page view.
type ProfileView struct {
	ProfileUserID string
	Country       string
	Referrer      string
	CreatedAt     time.Time
}

// StatsSummary aggregates a creator's storefront activity.
type StatsSummary struct {
	TotalClicks  int64
	TotalViews   int64
	Clicks24h    int64
	Views24h     int64
	TopProductID string
	GeneratedAt  time.Time
}
