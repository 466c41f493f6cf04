package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/domain"
)

// orderTx implements OrderTx over a live *sql.Tx.
type orderTx struct {
	tx *sql.Tx
}

func (t *orderTx) InsertOrder(ctx context.Context, order *domain.Order) (int64, error) {
	query := `INSERT INTO orders (order_number, total_amount, total_points, order_status, member_id, completed_at, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, NOW())
	          RETURNING id`

	var id int64
	err := t.tx.QueryRowContext(ctx, query,
		order.OrderNumber,
		order.TotalAmount,
		order.TotalPoints,
		order.Status.String(),
		order.MemberID,
		order.CompletedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	return id, nil
}

func (t *orderTx) InsertOrderItem(ctx context.Context, item *domain.OrderItem) (int64, error) {
	query := `INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, unit_points, subtotal, subtotal_points)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	var id int64
	err := t.tx.QueryRowContext(ctx, query,
		item.OrderID,
		item.ProductID,
		item.ProductName,
		item.Quantity,
		item.UnitPrice,
		item.UnitPoints,
		item.Subtotal,
		item.SubtotalPoints,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert order item: %w", err)
	}
	return id, nil
}

func (t *orderTx) GetMemberForUpdate(ctx context.Context, id int64) (*domain.LoyaltyMember, error) {
	query := `SELECT ` + memberColumns + ` FROM loyalty_members WHERE id = $1 FOR UPDATE`
	return scanMember(t.tx.QueryRowContext(ctx, query, id))
}

func (t *orderTx) UpdateMemberOnPurchase(ctx context.Context, memberID int64, newPoints int, purchase float64, at time.Time) error {
	query := `UPDATE loyalty_members
	          SET points = $1,
	              total_purchases = total_purchases + $2,
	              total_orders = total_orders + 1,
	              last_purchase = $3
	          WHERE id = $4`

	if _, err := t.tx.ExecContext(ctx, query, newPoints, purchase, at, memberID); err != nil {
		return fmt.Errorf("update member on purchase: %w", err)
	}
	return nil
}

func (t *orderTx) UpdateMemberPoints(ctx context.Context, memberID int64, newPoints int) error {
	query := `UPDATE loyalty_members SET points = $1 WHERE id = $2`
	if _, err := t.tx.ExecContext(ctx, query, newPoints, memberID); err != nil {
		return fmt.Errorf("update member points: %w", err)
	}
	return nil
}

func (t *orderTx) InsertLoyaltyTransaction(ctx context.Context, lt *domain.LoyaltyTransaction) error {
	query := `INSERT INTO loyalty_transactions (member_id, order_id, transaction_type, points_change, points_balance, description, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, NOW())`

	_, err := t.tx.ExecContext(ctx, query,
		lt.MemberID,
		lt.OrderID,
		string(lt.Type),
		lt.PointsChange,
		lt.PointsBalance,
		lt.Description,
	)
	if err != nil {
		return fmt.Errorf("insert loyalty transaction: %w", err)
	}
	return nil
}

func (t *orderTx) InsertRatingLink(ctx context.Context, link *domain.RatingLink) (int64, error) {
	query := `INSERT INTO rating_links (unique_code, member_id, order_id, order_number, points_earned, total_points, status, email_sent, created_at, expires_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8, $9)
	          RETURNING id`

	var id int64
	err := t.tx.QueryRowContext(ctx, query,
		link.Code,
		link.MemberID,
		link.OrderID,
		link.OrderNumber,
		link.PointsEarned,
		link.TotalPoints,
		string(link.Status),
		link.CreatedAt,
		link.ExpiresAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert rating link: %w", err)
	}
	return id, nil
}

func (t *orderTx) InsertOutboxEvent(ctx context.Context, event *domain.OutboxEvent) error {
	query := `INSERT INTO outbox_events (id, aggregate_id, event_type, payload, created_at)
	          VALUES ($1, $2, $3, $4, NOW())`

	_, err := t.tx.ExecContext(ctx, query,
		event.ID,
		event.AggregateID,
		event.EventType,
		event.Payload,
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func (t *orderTx) GetRatingLinkForUpdate(ctx context.Context, code string) (*domain.RatingLink, error) {
	query := `SELECT ` + ratingLinkColumns + ` FROM rating_links WHERE unique_code = $1 FOR UPDATE`
	return scanRatingLink(t.tx.QueryRowContext(ctx, query, code))
}

// OrderItemProduct returns the product id of an order item only when the item
// belongs to the given order.
func (t *orderTx) OrderItemProduct(ctx context.Context, orderItemID, orderID int64) (int64, bool, error) {
	query := `SELECT product_id FROM order_items WHERE id = $1 AND order_id = $2`

	var productID int64
	err := t.tx.QueryRowContext(ctx, query, orderItemID, orderID).Scan(&productID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query order item product: %w", err)
	}
	return productID, true, nil
}

func (t *orderTx) UpsertProductRating(ctx context.Context, rating *domain.ProductRating) error {
	query := `INSERT INTO product_ratings (product_id, member_id, order_id, order_item_id, rating, created_at)
	          VALUES ($1, $2, $3, $4, $5, NOW())
	          ON CONFLICT (order_item_id, member_id) DO UPDATE SET rating = EXCLUDED.rating`

	_, err := t.tx.ExecContext(ctx, query,
		rating.ProductID,
		rating.MemberID,
		rating.OrderID,
		rating.OrderItemID,
		rating.Rating,
	)
	if err != nil {
		return fmt.Errorf("upsert product rating: %w", err)
	}
	return nil
}

func (t *orderTx) CompleteRatingLink(ctx context.Context, linkID int64, at time.Time) error {
	query := `UPDATE rating_links SET status = $1, completed_at = $2 WHERE id = $3 AND status = $4`

	res, err := t.tx.ExecContext(ctx, query,
		string(domain.RatingLinkCompleted), at, linkID, string(domain.RatingLinkPending))
	if err != nil {
		return fmt.Errorf("complete rating link: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete rating link rows affected: %w", err)
	}
	if affected == 0 {
		return ErrLinkNotFound
	}
	return nil
}

func (t *orderTx) ExpireRatingLink(ctx context.Context, linkID int64) error {
	return expireRatingLink(ctx, t.tx, linkID)
}
