package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/catalog"
	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/domain"
	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/repository"
)

type OrderLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"qty"`
}

type CompleteOrderRequest struct {
	Items        []OrderLine `json:"items"`
	CashReceived float64     `json:"cash_received"`
	MemberID     *int64      `json:"member_id,omitempty"`
}

type MemberSummary struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	PreviousPoints int    `json:"previous_points"`
	PointsEarned   int    `json:"points_earned"`
	NewPoints      int    `json:"new_points"`
	RatingURL      string `json:"rating_url"`
}

type Receipt struct {
	OrderID      int64          `json:"order_id"`
	OrderNumber  string         `json:"order_number"`
	TotalAmount  float64        `json:"total_amount"`
	TotalPoints  int            `json:"total_points"`
	CashReceived float64        `json:"cash_received"`
	Change       float64        `json:"change"`
	Member       *MemberSummary `json:"member,omitempty"`
}

// CheckoutService turns a validated cart into a persisted order, awards
// loyalty points and issues the rating link, all inside one transaction.
type CheckoutService struct {
	store         repository.Store
	menu          *catalog.Catalog
	ratingBaseURL string
	now           func() time.Time
}

func NewCheckoutService(store repository.Store, menu *catalog.Catalog, ratingBaseURL string) *CheckoutService {
	return &CheckoutService{
		store:         store,
		menu:          menu,
		ratingBaseURL: ratingBaseURL,
		now:           time.Now,
	}
}

// CompleteOrder validates the cart against the catalog, then persists the
// order, its items, the point award, the milestone events and the rating
// link as one atomic unit. Totals are computed from catalog snapshots, never
// trusted from the client. Cash short of the total is rejected before any
// write. An unknown member id degrades the order to a guest checkout.
func (s *CheckoutService) CompleteOrder(ctx context.Context, req *CompleteOrderRequest) (*Receipt, error) {
	if len(req.Items) == 0 {
		return nil, &ValidationError{Message: "no items in order"}
	}

	now := s.now()
	items := make([]domain.OrderItem, 0, len(req.Items))
	var totalAmount float64
	var totalPoints int
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, &ValidationError{Message: "item quantity must be positive"}
		}
		product, err := s.menu.Product(line.ProductID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			return nil, &ValidationError{Message: fmt.Sprintf("unknown product id %d", line.ProductID)}
		}
		if err != nil {
			return nil, fmt.Errorf("resolve product %d: %w", line.ProductID, err)
		}

		item := domain.OrderItem{
			ProductID:      product.ID,
			ProductName:    product.Name,
			Quantity:       line.Quantity,
			UnitPrice:      product.Price,
			UnitPoints:     product.Points,
			Subtotal:       product.Price * float64(line.Quantity),
			SubtotalPoints: product.Points * line.Quantity,
		}
		totalAmount += item.Subtotal
		totalPoints += item.SubtotalPoints
		items = append(items, item)
	}

	if req.CashReceived < totalAmount {
		return nil, &ConflictError{Message: "insufficient cash received"}
	}

	orderNumber, err := newOrderNumber(now)
	if err != nil {
		return nil, err
	}

	var receipt *Receipt
	err = s.store.WithinTx(ctx, func(tx repository.OrderTx) error {
		// Resolve the member first: an unknown id must leave no loyalty
		// reference on the order at all.
		var member *domain.LoyaltyMember
		if req.MemberID != nil {
			m, err := tx.GetMemberForUpdate(ctx, *req.MemberID)
			if errors.Is(err, repository.ErrMemberNotFound) {
				log.Printf("checkout: member %d not found, completing as guest order", *req.MemberID)
			} else if err != nil {
				return fmt.Errorf("load member %d: %w", *req.MemberID, err)
			} else {
				member = m
			}
		}

		completedAt := now
		order := &domain.Order{
			OrderNumber: orderNumber,
			TotalAmount: totalAmount,
			TotalPoints: totalPoints,
			Status:      domain.OrderStatusCompleted,
			CompletedAt: &completedAt,
		}
		if member != nil {
			order.MemberID = &member.ID
		}

		orderID, err := tx.InsertOrder(ctx, order)
		if err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = orderID
			if _, err := tx.InsertOrderItem(ctx, &items[i]); err != nil {
				return err
			}
		}

		receipt = &Receipt{
			OrderID:      orderID,
			OrderNumber:  orderNumber,
			TotalAmount:  totalAmount,
			TotalPoints:  totalPoints,
			CashReceived: req.CashReceived,
			Change:       req.CashReceived - totalAmount,
		}

		if member == nil {
			return s.emitOrderCompleted(ctx, tx, orderID, orderNumber, totalAmount, totalPoints, nil, now)
		}

		newBalance := member.Points + totalPoints
		if err := tx.UpdateMemberOnPurchase(ctx, member.ID, newBalance, totalAmount, now); err != nil {
			return err
		}
		if err := tx.InsertLoyaltyTransaction(ctx, &domain.LoyaltyTransaction{
			MemberID:      member.ID,
			OrderID:       &orderID,
			Type:          domain.TransactionEarn,
			PointsChange:  totalPoints,
			PointsBalance: newBalance,
			Description:   fmt.Sprintf("Earned from order #%s", orderNumber),
		}); err != nil {
			return err
		}

		for _, threshold := range domain.CrossedMilestones(member.Points, newBalance) {
			if err := s.emitMilestone(ctx, tx, member.ID, threshold, newBalance, orderID); err != nil {
				return err
			}
		}

		code, err := newRatingCode()
		if err != nil {
			return err
		}
		link := &domain.RatingLink{
			Code:         code,
			MemberID:     member.ID,
			OrderID:      orderID,
			OrderNumber:  orderNumber,
			PointsEarned: totalPoints,
			TotalPoints:  newBalance,
			Status:       domain.RatingLinkPending,
			CreatedAt:    now,
			ExpiresAt:    now.Add(domain.RatingLinkLifetime),
		}
		linkID, err := tx.InsertRatingLink(ctx, link)
		if err != nil {
			return err
		}

		ratingURL := fmt.Sprintf("%s/rate?code=%s", s.ratingBaseURL, code)
		if err := s.emitRatingEmail(ctx, tx, member, totalPoints, newBalance, ratingURL, orderNumber, linkID); err != nil {
			return err
		}
		if err := s.emitOrderCompleted(ctx, tx, orderID, orderNumber, totalAmount, totalPoints, &member.ID, now); err != nil {
			return err
		}

		receipt.Member = &MemberSummary{
			ID:             member.ID,
			Name:           member.Name,
			Email:          member.Email,
			PreviousPoints: member.Points,
			PointsEarned:   totalPoints,
			NewPoints:      newBalance,
			RatingURL:      ratingURL,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func (s *CheckoutService) emitOrderCompleted(ctx context.Context, tx repository.OrderTx, orderID int64, orderNumber string, amount float64, points int, memberID *int64, at time.Time) error {
	payload, err := json.Marshal(domain.OrderCompletedPayload{
		OrderID:     orderID,
		OrderNumber: orderNumber,
		TotalAmount: amount,
		TotalPoints: points,
		MemberID:    memberID,
		CompletedAt: at,
	})
	if err != nil {
		return fmt.Errorf("marshal order completed payload: %w", err)
	}
	return tx.InsertOutboxEvent(ctx, &domain.OutboxEvent{
		ID:          uuid.New(),
		AggregateID: orderNumber,
		EventType:   domain.EventOrderCompleted,
		Payload:     payload,
	})
}

func (s *CheckoutService) emitMilestone(ctx context.Context, tx repository.OrderTx, memberID int64, threshold, balance int, orderID int64) error {
	payload, err := json.Marshal(domain.MilestonePayload{
		MemberID:  memberID,
		Threshold: threshold,
		Balance:   balance,
		OrderID:   orderID,
	})
	if err != nil {
		return fmt.Errorf("marshal milestone payload: %w", err)
	}
	return tx.InsertOutboxEvent(ctx, &domain.OutboxEvent{
		ID:          uuid.New(),
		AggregateID: fmt.Sprintf("member-%d", memberID),
		EventType:   domain.EventMilestone,
		Payload:     payload,
	})
}

func (s *CheckoutService) emitRatingEmail(ctx context.Context, tx repository.OrderTx, member *domain.LoyaltyMember, earned, total int, ratingURL, orderNumber string, linkID int64) error {
	payload, err := json.Marshal(domain.RatingEmailPayload{
		Recipient:    member.Email,
		Name:         member.Name,
		PointsEarned: earned,
		TotalPoints:  total,
		RatingURL:    ratingURL,
		OrderNumber:  orderNumber,
		LinkID:       linkID,
	})
	if err != nil {
		return fmt.Errorf("marshal rating email payload: %w", err)
	}
	return tx.InsertOutboxEvent(ctx, &domain.OutboxEvent{
		ID:          uuid.New(),
		AggregateID: orderNumber,
		EventType:   domain.EventRatingEmail,
		Payload:     payload,
	})
}
