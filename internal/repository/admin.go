package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/domain"
)

func (r *Repository) UpdateIngredientStock(ctx context.Context, id int64, newStock float64) (*domain.Ingredient, error) {
	query := `UPDATE ingredients SET stock = $1, updated_at = NOW()
	          WHERE id = $2
	          RETURNING id, name, unit, stock, low_stock_threshold, updated_at`

	var ing domain.Ingredient
	err := r.db.QueryRowContext(ctx, query, newStock, id).Scan(
		&ing.ID,
		&ing.Name,
		&ing.Unit,
		&ing.Stock,
		&ing.LowStockThreshold,
		&ing.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIngredientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update ingredient stock: %w", err)
	}
	return &ing, nil
}

// CreateCutoff snapshots every completed order not yet assigned to a cutoff.
// The assignment and the cutoff row commit together so an order can never be
// counted in two cutoffs.
func (r *Repository) CreateCutoff(ctx context.Context) (*domain.SalesCutoff, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin cutoff transaction: %w", err)
	}
	defer tx.Rollback()

	cutoffNumber := fmt.Sprintf("CUT-%s", time.Now().Format("20060102-150405"))

	var cutoff domain.SalesCutoff
	err = tx.QueryRowContext(ctx,
		`INSERT INTO sales_cutoffs (cutoff_number, order_count, total_amount, total_points, created_at)
		 VALUES ($1, 0, 0, 0, NOW())
		 RETURNING id, cutoff_number, created_at`,
		cutoffNumber,
	).Scan(&cutoff.ID, &cutoff.CutoffNumber, &cutoff.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert cutoff: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET cutoff_id = $1
		 WHERE cutoff_id IS NULL AND order_status = 'completed'`,
		cutoff.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("assign orders to cutoff: %w", err)
	}
	assigned, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("cutoff rows affected: %w", err)
	}
	if assigned == 0 {
		return nil, ErrNoOrdersForCutoff
	}

	err = tx.QueryRowContext(ctx,
		`UPDATE sales_cutoffs sc
		 SET order_count = agg.cnt, total_amount = agg.amount, total_points = agg.points
		 FROM (SELECT COUNT(*) AS cnt,
		              COALESCE(SUM(total_amount), 0) AS amount,
		              COALESCE(SUM(total_points), 0) AS points
		       FROM orders WHERE cutoff_id = $1) agg
		 WHERE sc.id = $1
		 RETURNING sc.order_count, sc.total_amount, sc.total_points`,
		cutoff.ID,
	).Scan(&cutoff.OrderCount, &cutoff.TotalAmount, &cutoff.TotalPoints)
	if err != nil {
		return nil, fmt.Errorf("total cutoff: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit cutoff: %w", err)
	}
	return &cutoff, nil
}

func (r *Repository) ListCutoffs(ctx context.Context) ([]domain.SalesCutoff, error) {
	query := `SELECT id, cutoff_number, order_count, total_amount, total_points, created_at
	          FROM sales_cutoffs ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query cutoffs: %w", err)
	}
	defer rows.Close()

	var cutoffs []domain.SalesCutoff
	for rows.Next() {
		var c domain.SalesCutoff
		if err := rows.Scan(&c.ID, &c.CutoffNumber, &c.OrderCount, &c.TotalAmount, &c.TotalPoints, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cutoff row: %w", err)
		}
		cutoffs = append(cutoffs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return cutoffs, nil
}
