package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/domain"
)

// seedRatedOrder runs a real member checkout so the rating link, order items
// and ledger are exactly what the orchestrator produces.
func seedRatedOrder(t *testing.T, store *fakeStore) (memberID int64, code string, itemIDs []int64) {
	t.Helper()
	member := store.addMember(domain.LoyaltyMember{Name: "Ana", Email: "ana@cafe.ph", Points: 40})
	svc := newTestCheckoutService(store)

	receipt, err := svc.CompleteOrder(context.Background(), &CompleteOrderRequest{
		Items: []OrderLine{
			{ProductID: 1, Quantity: 1},
			{ProductID: 2, Quantity: 2},
		},
		CashReceived: 500,
		MemberID:     &member.ID,
	})
	require.NoError(t, err)

	for _, link := range store.state.links {
		code = link.Code
	}
	items, err := store.GetOrderItems(context.Background(), receipt.OrderID)
	require.NoError(t, err)
	for _, it := range items {
		itemIDs = append(itemIDs, it.ID)
	}
	return member.ID, code, itemIDs
}

func TestSubmitRatings_AwardsBonusOnce(t *testing.T) {
	store := newFakeStore()
	memberID, code, itemIDs := seedRatedOrder(t, store)
	svc := NewRatingService(store)

	result, err := svc.SubmitRatings(context.Background(), code, map[int64]int{
		itemIDs[0]: 5,
		itemIDs[1]: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.RatingsSubmitted)
	assert.Equal(t, domain.RatingBonusPoints, result.BonusPoints)

	// 40 start + 26 order points + 5 bonus
	assert.Equal(t, 71, store.state.members[memberID].Points)

	link, err := store.GetRatingLinkByCode(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, domain.RatingLinkCompleted, link.Status)
	require.NotNil(t, link.CompletedAt)

	// second submission is rejected before any write
	_, err = svc.SubmitRatings(context.Background(), code, map[int64]int{itemIDs[0]: 1})
	assert.ErrorIs(t, err, ErrAlreadyRated)
	assert.Equal(t, 71, store.state.members[memberID].Points)

	// the bonus ledger entry exists exactly once
	var bonuses int
	for _, tx := range store.state.transactions {
		if tx.Description == "Bonus points for rating products" {
			bonuses++
		}
	}
	assert.Equal(t, 1, bonuses)
}

func TestSubmitRatings_ResubmissionOverwritesBeforeCompletion(t *testing.T) {
	store := newFakeStore()
	memberID, code, itemIDs := seedRatedOrder(t, store)
	svc := NewRatingService(store)

	// two ratings for the same item in one batch is just the map semantics;
	// what matters is that the stored rating matches the submitted value
	_, err := svc.SubmitRatings(context.Background(), code, map[int64]int{itemIDs[0]: 3})
	require.NoError(t, err)

	stored := store.state.ratings[ratingKey(itemIDs[0], memberID)]
	require.NotNil(t, stored)
	assert.Equal(t, 3, stored.Rating)
}

func TestSubmitRatings_OutOfRangeRejectsWholeBatch(t *testing.T) {
	store := newFakeStore()
	_, code, itemIDs := seedRatedOrder(t, store)
	svc := NewRatingService(store)

	_, err := svc.SubmitRatings(context.Background(), code, map[int64]int{
		itemIDs[0]: 5,
		itemIDs[1]: 6,
	})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Empty(t, store.state.ratings)

	link, lookupErr := store.GetRatingLinkByCode(context.Background(), code)
	require.NoError(t, lookupErr)
	assert.Equal(t, domain.RatingLinkPending, link.Status)
}

func TestSubmitRatings_EmptyBatch(t *testing.T) {
	store := newFakeStore()
	_, code, _ := seedRatedOrder(t, store)
	svc := NewRatingService(store)

	_, err := svc.SubmitRatings(context.Background(), code, nil)

	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestSubmitRatings_ForeignItemIgnored(t *testing.T) {
	store := newFakeStore()
	_, code, itemIDs := seedRatedOrder(t, store)
	svc := NewRatingService(store)

	result, err := svc.SubmitRatings(context.Background(), code, map[int64]int{
		itemIDs[0]: 5,
		99999:      4, // not part of this order
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.RatingsSubmitted)
}

func TestSubmitRatings_UnknownCode(t *testing.T) {
	store := newFakeStore()
	svc := NewRatingService(store)

	_, err := svc.SubmitRatings(context.Background(), "deadbeef", map[int64]int{1: 5})
	assert.ErrorIs(t, err, ErrLinkInvalid)
}

func TestSubmitRatings_ExpiredLinkNeverAwards(t *testing.T) {
	store := newFakeStore()
	memberID, code, itemIDs := seedRatedOrder(t, store)
	svc := NewRatingService(store)
	svc.now = func() time.Time { return time.Now().Add(domain.RatingLinkLifetime + time.Hour) }

	pointsBefore := store.state.members[memberID].Points

	_, err := svc.SubmitRatings(context.Background(), code, map[int64]int{itemIDs[0]: 5})
	require.ErrorIs(t, err, ErrLinkExpired)

	// lazy expiry persisted the terminal transition
	link, lookupErr := store.GetRatingLinkByCode(context.Background(), code)
	require.NoError(t, lookupErr)
	assert.Equal(t, domain.RatingLinkExpired, link.Status)
	assert.Equal(t, pointsBefore, store.state.members[memberID].Points)

	// still rejected once expired is persisted
	_, err = svc.SubmitRatings(context.Background(), code, map[int64]int{itemIDs[0]: 5})
	assert.ErrorIs(t, err, ErrLinkExpired)
}

func TestLinkByCode_RendersPendingPage(t *testing.T) {
	store := newFakeStore()
	_, code, itemIDs := seedRatedOrder(t, store)
	svc := NewRatingService(store)

	page, err := svc.LinkByCode(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, "Ana", page.CustomerName)
	assert.False(t, page.AlreadyRated)
	assert.Len(t, page.Items, len(itemIDs))
	assert.Empty(t, page.ExistingRatings)
}

func TestLinkByCode_AlreadyRated(t *testing.T) {
	store := newFakeStore()
	_, code, itemIDs := seedRatedOrder(t, store)
	svc := NewRatingService(store)

	_, err := svc.SubmitRatings(context.Background(), code, map[int64]int{itemIDs[0]: 4})
	require.NoError(t, err)

	page, err := svc.LinkByCode(context.Background(), code)
	require.NoError(t, err)
	assert.True(t, page.AlreadyRated)
	assert.Equal(t, 4, page.ExistingRatings[itemIDs[0]])
}

func TestLinkByCode_UnknownCode(t *testing.T) {
	store := newFakeStore()
	svc := NewRatingService(store)

	_, err := svc.LinkByCode(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrLinkInvalid)
}

func TestBalanceMatchesLedgerAfterRatings(t *testing.T) {
	store := newFakeStore()
	memberID, code, itemIDs := seedRatedOrder(t, store)
	svc := NewRatingService(store)

	_, err := svc.SubmitRatings(context.Background(), code, map[int64]int{itemIDs[0]: 5})
	require.NoError(t, err)

	var sum int
	for _, tx := range store.state.transactions {
		sum += tx.PointsChange
	}
	member := store.state.members[memberID]
	// the seed member started at 40 before any ledger entries
	assert.Equal(t, member.Points, 40+sum)

	last := store.state.transactions[len(store.state.transactions)-1]
	assert.Equal(t, member.Points, last.PointsBalance)
}
