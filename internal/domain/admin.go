package domain

import "time"

type Ingredient struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Unit              string    `json:"unit"`
	Stock             float64   `json:"stock"`
	LowStockThreshold float64   `json:"low_stock_threshold"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// SalesCutoff groups completed orders for end-of-shift reconciliation.
type SalesCutoff struct {
	ID           int64     `json:"id"`
	CutoffNumber string    `json:"cutoff_number"`
	OrderCount   int       `json:"order_count"`
	TotalAmount  float64   `json:"total_amount"`
	TotalPoints  int       `json:"total_points"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProductRatingSummary is the admin roll-up of ratings per product.
type ProductRatingSummary struct {
	ProductID     int64   `json:"product_id"`
	ProductName   string  `json:"product_name"`
	RatingCount   int     `json:"rating_count"`
	AverageRating float64 `json:"average_rating"`
}
