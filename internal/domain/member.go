package domain

import (
	"strings"
	"time"
)

type LoyaltyMember struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Points         int        `json:"points"`
	TotalPurchases float64    `json:"total_purchases"`
	TotalOrders    int        `json:"total_orders"`
	IsActive       bool       `json:"is_active"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	LastPurchase   *time.Time `json:"last_purchase,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// NormalizeEmail is applied before every lookup, registration and uniqueness
// check so "Ana@Cafe.PH" and "ana@cafe.ph" are the same member.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
