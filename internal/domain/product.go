package domain

import "time"

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Product is the catalog snapshot carried inside a cart item. It is owned by
// the backend; the store only ever replaces it wholesale during reconciliation.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	OriginalPrice float64   `json:"originalPrice,omitempty"`
	Discount      float64   `json:"discount,omitempty"`
	Images        []string  `json:"images,omitempty"`
	Category      Category  `json:"category"`
	InStock       bool      `json:"inStock"`
	StockCount    int       `json:"stockCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
