package domain

import "time"

// Product is a single affiliate listing on a storefront.
type Product struct {
	ID          string
	UserID      string
	Title       string
	URL         string
	ImageURL    string
	Description string
	Category    string
	PriceLabel  string
	Position    int
	Active      bool
	ClickCount  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
