package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrossedMilestones(t *testing.T) {
	tests := []struct {
		name string
		old  int
		new  int
		want []int
	}{
		{"crosses one", 95, 105, []int{100}},
		{"already above", 150, 160, nil},
		{"exactly at threshold", 95, 100, []int{100}},
		{"crosses several", 90, 600, []int{100, 250, 500}},
		{"no movement", 100, 100, nil},
		{"below all", 10, 50, nil},
		{"top threshold", 4999, 5000, []int{5000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CrossedMilestones(tt.old, tt.new))
		})
	}
}

func TestRatingLinkTransitions(t *testing.T) {
	assert.True(t, RatingLinkPending.CanTransition(RatingLinkCompleted))
	assert.True(t, RatingLinkPending.CanTransition(RatingLinkExpired))
	assert.False(t, RatingLinkCompleted.CanTransition(RatingLinkExpired))
	assert.False(t, RatingLinkExpired.CanTransition(RatingLinkCompleted))
	assert.False(t, RatingLinkPending.CanTransition(RatingLinkPending))
	assert.True(t, RatingLinkCompleted.IsTerminal())
	assert.True(t, RatingLinkExpired.IsTerminal())
	assert.False(t, RatingLinkPending.IsTerminal())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ana@cafe.ph", NormalizeEmail("  Ana@Cafe.PH "))
}
