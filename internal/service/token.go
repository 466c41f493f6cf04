package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// newOrderNumber combines the date with random entropy so numbers are
// human-readable, unguessable and collision-free without a shared counter.
// The unique index on orders.order_number is the backstop.
func newOrderNumber(now time.Time) (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("order number entropy: %w", err)
	}
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), strings.ToUpper(hex.EncodeToString(buf))), nil
}

// newRatingCode returns a 64-character hex token.
func newRatingCode() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("rating code entropy: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
