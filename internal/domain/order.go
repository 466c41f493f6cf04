package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
)

func (s OrderStatus) String() string {
	return string(s)
}

type Order struct {
	ID          int64       `json:"id"`
	OrderNumber string      `json:"order_number"`
	TotalAmount float64     `json:"total_amount"`
	TotalPoints int         `json:"total_points"`
	Status      OrderStatus `json:"status"`
	MemberID    *int64      `json:"member_id,omitempty"`
	CutoffID    *int64      `json:"cutoff_id,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// OrderItem carries price and point snapshots so historical orders are
// unaffected by later catalog edits.
type OrderItem struct {
	ID             int64   `json:"id"`
	OrderID        int64   `json:"order_id"`
	ProductID      int64   `json:"product_id"`
	ProductName    string  `json:"product_name"`
	Quantity       int     `json:"quantity"`
	UnitPrice      float64 `json:"unit_price"`
	UnitPoints     int     `json:"unit_points"`
	Subtotal       float64 `json:"subtotal"`
	SubtotalPoints int     `json:"subtotal_points"`
}
