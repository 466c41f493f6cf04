package domain

import (
	"time"

	"github.com/google/uuid"
)

// Outbox event types. Rows are written inside the same transaction as the
// state they describe and dispatched by the poller after commit.
const (
	EventRatingEmail    = "rating.email"
	EventOrderCompleted = "order.completed"
	EventMilestone      = "loyalty.milestone"
)

type OutboxEvent struct {
	ID          uuid.UUID  `json:"id"`
	AggregateID string     `json:"aggregate_id"`
	EventType   string     `json:"event_type"`
	Payload     []byte     `json:"payload"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// RatingEmailPayload is the body of an EventRatingEmail outbox row.
type RatingEmailPayload struct {
	Recipient    string `json:"recipient"`
	Name         string `json:"name"`
	PointsEarned int    `json:"points_earned"`
	TotalPoints  int    `json:"total_points"`
	RatingURL    string `json:"rating_url"`
	OrderNumber  string `json:"order_number"`
	LinkID       int64  `json:"link_id"`
}

type MilestonePayload struct {
	MemberID  int64 `json:"member_id"`
	Threshold int   `json:"threshold"`
	Balance   int   `json:"balance"`
	OrderID   int64 `json:"order_id"`
}

type OrderCompletedPayload struct {
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	TotalAmount float64   `json:"total_amount"`
	TotalPoints int       `json:"total_points"`
	MemberID    *int64    `json:"member_id,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}
