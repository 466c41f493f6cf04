package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/domain"
)

const ratingLinkColumns = `id, unique_code, member_id, order_id, order_number, points_earned, total_points, status, email_sent, created_at, expires_at, completed_at`

func scanRatingLink(row *sql.Row) (*domain.RatingLink, error) {
	var l domain.RatingLink
	var status string
	err := row.Scan(
		&l.ID,
		&l.Code,
		&l.MemberID,
		&l.OrderID,
		&l.OrderNumber,
		&l.PointsEarned,
		&l.TotalPoints,
		&status,
		&l.EmailSent,
		&l.CreatedAt,
		&l.ExpiresAt,
		&l.CompletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan rating link row: %w", err)
	}
	l.Status = domain.RatingLinkStatus(status)
	return &l, nil
}

func (r *Repository) GetRatingLinkByCode(ctx context.Context, code string) (*domain.RatingLink, error) {
	query := `SELECT ` + ratingLinkColumns + ` FROM rating_links WHERE unique_code = $1`
	return scanRatingLink(r.db.QueryRowContext(ctx, query, code))
}

func (r *Repository) GetOrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	query := `SELECT id, order_id, product_id, product_name, quantity, unit_price, unit_points, subtotal, subtotal_points
	          FROM order_items WHERE order_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(
			&it.ID,
			&it.OrderID,
			&it.ProductID,
			&it.ProductName,
			&it.Quantity,
			&it.UnitPrice,
			&it.UnitPoints,
			&it.Subtotal,
			&it.SubtotalPoints,
		); err != nil {
			return nil, fmt.Errorf("scan order item row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

// GetMemberRatings returns the member's existing ratings for an order keyed
// by order item id, so the rating page can show what was already submitted.
func (r *Repository) GetMemberRatings(ctx context.Context, orderID, memberID int64) (map[int64]int, error) {
	query := `SELECT order_item_id, rating FROM product_ratings WHERE order_id = $1 AND member_id = $2`

	rows, err := r.db.QueryContext(ctx, query, orderID, memberID)
	if err != nil {
		return nil, fmt.Errorf("query member ratings: %w", err)
	}
	defer rows.Close()

	ratings := make(map[int64]int)
	for rows.Next() {
		var itemID int64
		var rating int
		if err := rows.Scan(&itemID, &rating); err != nil {
			return nil, fmt.Errorf("scan rating row: %w", err)
		}
		ratings[itemID] = rating
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ratings, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func expireRatingLink(ctx context.Context, db execer, linkID int64) error {
	query := `UPDATE rating_links SET status = $1 WHERE id = $2 AND status = $3`

	_, err := db.ExecContext(ctx, query,
		string(domain.RatingLinkExpired), linkID, string(domain.RatingLinkPending))
	if err != nil {
		return fmt.Errorf("expire rating link: %w", err)
	}
	return nil
}

// ExpireRatingLink persists a lazy pending -> expired transition observed
// during validation.
func (r *Repository) ExpireRatingLink(ctx context.Context, linkID int64) error {
	return expireRatingLink(ctx, r.db, linkID)
}

func (r *Repository) ListRatingLinks(ctx context.Context) ([]domain.RatingLink, error) {
	query := `SELECT ` + ratingLinkColumns + ` FROM rating_links ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query rating links: %w", err)
	}
	defer rows.Close()

	var links []domain.RatingLink
	for rows.Next() {
		var l domain.RatingLink
		var status string
		if err := rows.Scan(
			&l.ID,
			&l.Code,
			&l.MemberID,
			&l.OrderID,
			&l.OrderNumber,
			&l.PointsEarned,
			&l.TotalPoints,
			&status,
			&l.EmailSent,
			&l.CreatedAt,
			&l.ExpiresAt,
			&l.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan rating link row: %w", err)
		}
		l.Status = domain.RatingLinkStatus(status)
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return links, nil
}

func (r *Repository) RatingSummary(ctx context.Context) ([]domain.ProductRatingSummary, error) {
	query := `SELECT pr.product_id,
	                 COALESCE(MAX(oi.product_name), '') AS product_name,
	                 COUNT(*) AS rating_count,
	                 AVG(pr.rating)::float8 AS average_rating
	          FROM product_ratings pr
	          JOIN order_items oi ON oi.id = pr.order_item_id
	          GROUP BY pr.product_id
	          ORDER BY average_rating DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query rating summary: %w", err)
	}
	defer rows.Close()

	var summaries []domain.ProductRatingSummary
	for rows.Next() {
		var s domain.ProductRatingSummary
		if err := rows.Scan(&s.ProductID, &s.ProductName, &s.RatingCount, &s.AverageRating); err != nil {
			return nil, fmt.Errorf("scan rating summary row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return summaries, nil
}
