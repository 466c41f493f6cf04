package domain

import "time"

type TransactionType string

const (
	TransactionEarn       TransactionType = "earn"
	TransactionRedeem     TransactionType = "redeem"
	TransactionAdjustment TransactionType = "adjustment"
)

// LoyaltyTransaction is an append-only ledger entry. PointsBalance is a
// snapshot of the member's balance after the change, not recomputed, so the
// running balance can be audited without replaying history.
type LoyaltyTransaction struct {
	ID            int64           `json:"id"`
	MemberID      int64           `json:"member_id"`
	OrderID       *int64          `json:"order_id,omitempty"`
	Type          TransactionType `json:"transaction_type"`
	PointsChange  int             `json:"points_change"`
	PointsBalance int             `json:"points_balance"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Milestones are the fixed point thresholds whose first crossing produces a
// loyalty event.
var Milestones = []int{100, 250, 500, 1000, 2500, 5000}

// CrossedMilestones returns the thresholds crossed when a balance moves from
// oldBalance to newBalance. A threshold fires only on the crossing, never
// again for balances already at or above it.
func CrossedMilestones(oldBalance, newBalance int) []int {
	var crossed []int
	for _, m := range Milestones {
		if oldBalance < m && newBalance >= m {
			crossed = append(crossed, m)
		}
	}
	return crossed
}
