package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/domain"
)

const memberColumns = `id, name, email, points, total_purchases, total_orders, is_active, expires_at, last_purchase, created_at`

func scanMember(row *sql.Row) (*domain.LoyaltyMember, error) {
	var m domain.LoyaltyMember
	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Email,
		&m.Points,
		&m.TotalPurchases,
		&m.TotalOrders,
		&m.IsActive,
		&m.ExpiresAt,
		&m.LastPurchase,
		&m.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan member row: %w", err)
	}
	return &m, nil
}

func (r *Repository) GetMemberByID(ctx context.Context, id int64) (*domain.LoyaltyMember, error) {
	query := `SELECT ` + memberColumns + ` FROM loyalty_members WHERE id = $1`
	return scanMember(r.db.QueryRowContext(ctx, query, id))
}

func (r *Repository) GetMemberByEmail(ctx context.Context, email string) (*domain.LoyaltyMember, error) {
	query := `SELECT ` + memberColumns + ` FROM loyalty_members WHERE email = $1 AND is_active`
	return scanMember(r.db.QueryRowContext(ctx, query, email))
}

func (r *Repository) CreateMember(ctx context.Context, name, email string) (*domain.LoyaltyMember, error) {
	query := `INSERT INTO loyalty_members (name, email, points, created_at)
	          VALUES ($1, $2, 0, NOW())
	          RETURNING ` + memberColumns

	member, err := scanMember(r.db.QueryRowContext(ctx, query, name, email))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert member: %w", err)
	}
	return member, nil
}

func (r *Repository) ListMembers(ctx context.Context) ([]domain.LoyaltyMember, error) {
	query := `SELECT ` + memberColumns + ` FROM loyalty_members ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []domain.LoyaltyMember
	for rows.Next() {
		var m domain.LoyaltyMember
		if err := rows.Scan(
			&m.ID,
			&m.Name,
			&m.Email,
			&m.Points,
			&m.TotalPurchases,
			&m.TotalOrders,
			&m.IsActive,
			&m.ExpiresAt,
			&m.LastPurchase,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan member row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return members, nil
}

func (r *Repository) ListTransactionsByMember(ctx context.Context, memberID int64) ([]domain.LoyaltyTransaction, error) {
	query := `SELECT id, member_id, order_id, transaction_type, points_change, points_balance, description, created_at
	          FROM loyalty_transactions WHERE member_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("query loyalty transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.LoyaltyTransaction
	for rows.Next() {
		var t domain.LoyaltyTransaction
		if err := rows.Scan(
			&t.ID,
			&t.MemberID,
			&t.OrderID,
			&t.Type,
			&t.PointsChange,
			&t.PointsBalance,
			&t.Description,
			&t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return txs, nil
}
