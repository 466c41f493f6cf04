package domain

import "time"

type RatingLinkStatus string

const (
	RatingLinkPending   RatingLinkStatus = "pending"
	RatingLinkCompleted RatingLinkStatus = "completed"
	RatingLinkExpired   RatingLinkStatus = "expired"
)

func (s RatingLinkStatus) IsTerminal() bool {
	return s == RatingLinkCompleted || s == RatingLinkExpired
}

// CanTransition reports whether a rating link may move from s to next.
// The only legal moves are pending -> completed and pending -> expired.
func (s RatingLinkStatus) CanTransition(next RatingLinkStatus) bool {
	return s == RatingLinkPending && next.IsTerminal()
}

// RatingLinkLifetime is how long a customer has to rate an order.
const RatingLinkLifetime = 30 * 24 * time.Hour

// RatingBonusPoints is the fixed award for completing a rating link.
const RatingBonusPoints = 5

type RatingLink struct {
	ID           int64            `json:"id"`
	Code         string           `json:"unique_code"`
	MemberID     int64            `json:"member_id"`
	OrderID      int64            `json:"order_id"`
	OrderNumber  string           `json:"order_number"`
	PointsEarned int              `json:"points_earned"`
	TotalPoints  int              `json:"total_points"`
	Status       RatingLinkStatus `json:"status"`
	EmailSent    bool             `json:"email_sent"`
	CreatedAt    time.Time        `json:"created_at"`
	ExpiresAt    time.Time        `json:"expires_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
}

func (l *RatingLink) ExpiredAt(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// ProductRating is unique per (order item, member); resubmission overwrites.
type ProductRating struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product_id"`
	MemberID    int64     `json:"member_id"`
	OrderID     int64     `json:"order_id"`
	OrderItemID int64     `json:"order_item_id"`
	Rating      int       `json:"rating"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	MinRating = 1
	MaxRating = 5
)

func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
