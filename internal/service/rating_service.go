package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/domain"
	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/repository"
)

// RatingPage is everything the rating page needs to render for a link.
type RatingPage struct {
	Link            *domain.RatingLink `json:"link"`
	CustomerName    string             `json:"customer_name"`
	Items           []domain.OrderItem `json:"items"`
	ExistingRatings map[int64]int      `json:"existing_ratings"`
	AlreadyRated    bool               `json:"already_rated"`
}

type RatingResult struct {
	RatingsSubmitted int `json:"ratings_submitted"`
	BonusPoints      int `json:"bonus_points"`
}

// RatingService validates rating links and records submissions. The bonus
// award rides in the same transaction that flips the link to completed, so it
// can be paid at most once per link.
type RatingService struct {
	store repository.Store
	now   func() time.Time
}

func NewRatingService(store repository.Store) *RatingService {
	return &RatingService{
		store: store,
		now:   time.Now,
	}
}

// LinkByCode resolves a rating link for display. A pending link past its
// expiry is transitioned to expired and persisted before the rejection is
// returned (lazy expiry).
func (s *RatingService) LinkByCode(ctx context.Context, code string) (*RatingPage, error) {
	link, err := s.validateLink(ctx, code)
	if errors.Is(err, ErrAlreadyRated) {
		// still render the page, marked already-rated
	} else if err != nil {
		return nil, err
	}

	member, memberErr := s.store.GetMemberByID(ctx, link.MemberID)
	if memberErr != nil {
		return nil, fmt.Errorf("load link member: %w", memberErr)
	}
	items, itemsErr := s.store.GetOrderItems(ctx, link.OrderID)
	if itemsErr != nil {
		return nil, fmt.Errorf("load order items: %w", itemsErr)
	}
	existing, ratingsErr := s.store.GetMemberRatings(ctx, link.OrderID, link.MemberID)
	if ratingsErr != nil {
		return nil, fmt.Errorf("load existing ratings: %w", ratingsErr)
	}

	return &RatingPage{
		Link:            link,
		CustomerName:    member.Name,
		Items:           items,
		ExistingRatings: existing,
		AlreadyRated:    errors.Is(err, ErrAlreadyRated),
	}, nil
}

// SubmitRatings records the batch and pays the fixed bonus exactly once.
// Values outside 1..5 reject the whole batch before any write. Item ids that
// do not belong to the link's order are skipped; the submitted count in the
// result exposes the discrepancy.
func (s *RatingService) SubmitRatings(ctx context.Context, code string, ratings map[int64]int) (*RatingResult, error) {
	if len(ratings) == 0 {
		return nil, &ValidationError{Message: "No ratings provided"}
	}
	for _, rating := range ratings {
		if !domain.ValidRating(rating) {
			return nil, &ValidationError{Message: "Invalid rating value. Must be 1-5 stars."}
		}
	}

	// Lazy expiry happens here, outside the submission transaction, so the
	// persisted pending -> expired transition survives the rejection.
	if _, err := s.validateLink(ctx, code); err != nil {
		return nil, err
	}

	result := &RatingResult{BonusPoints: domain.RatingBonusPoints}
	err := s.store.WithinTx(ctx, func(tx repository.OrderTx) error {
		// Re-read under lock: the pre-check above is advisory, this is the
		// one that gates the award.
		link, err := tx.GetRatingLinkForUpdate(ctx, code)
		if errors.Is(err, repository.ErrLinkNotFound) {
			return ErrLinkInvalid
		}
		if err != nil {
			return err
		}
		switch {
		case link.Status == domain.RatingLinkCompleted:
			return ErrAlreadyRated
		case link.Status == domain.RatingLinkExpired, link.ExpiredAt(s.now()):
			return ErrLinkExpired
		}

		for itemID, rating := range ratings {
			productID, belongs, err := tx.OrderItemProduct(ctx, itemID, link.OrderID)
			if err != nil {
				return err
			}
			if !belongs {
				continue
			}
			if err := tx.UpsertProductRating(ctx, &domain.ProductRating{
				ProductID:   productID,
				MemberID:    link.MemberID,
				OrderID:     link.OrderID,
				OrderItemID: itemID,
				Rating:      rating,
			}); err != nil {
				return err
			}
			result.RatingsSubmitted++
		}

		if err := tx.CompleteRatingLink(ctx, link.ID, s.now()); err != nil {
			return err
		}

		member, err := tx.GetMemberForUpdate(ctx, link.MemberID)
		if err != nil {
			return fmt.Errorf("load member for bonus: %w", err)
		}
		newBalance := member.Points + domain.RatingBonusPoints
		if err := tx.UpdateMemberPoints(ctx, member.ID, newBalance); err != nil {
			return err
		}
		orderID := link.OrderID
		return tx.InsertLoyaltyTransaction(ctx, &domain.LoyaltyTransaction{
			MemberID:      member.ID,
			OrderID:       &orderID,
			Type:          domain.TransactionEarn,
			PointsChange:  domain.RatingBonusPoints,
			PointsBalance: newBalance,
			Description:   "Bonus points for rating products",
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// validateLink applies the validation order of the rating flow: unknown code,
// already completed, expired (persisting the lazy transition), then valid.
func (s *RatingService) validateLink(ctx context.Context, code string) (*domain.RatingLink, error) {
	link, err := s.store.GetRatingLinkByCode(ctx, code)
	if errors.Is(err, repository.ErrLinkNotFound) {
		return nil, ErrLinkInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("lookup rating link: %w", err)
	}

	switch link.Status {
	case domain.RatingLinkCompleted:
		return link, ErrAlreadyRated
	case domain.RatingLinkExpired:
		return nil, ErrLinkExpired
	}

	if link.ExpiredAt(s.now()) {
		if err := s.store.ExpireRatingLink(ctx, link.ID); err != nil {
			return nil, fmt.Errorf("expire rating link: %w", err)
		}
		return nil, ErrLinkExpired
	}
	return link, nil
}
