package postgres

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"retailcore/internal/core/types"
	"retailcore/internal/domain/reports"
)

// ReportRepo implements reports.Repository with aggregate SQL.
type ReportRepo struct {
	txm *TxManager
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txm *TxManager) *ReportRepo {
	return &ReportRepo{txm: txm}
}

func rangeConditions(r reports.DateRange, column string, argOffset int) (string, []any) {
	cond := ""
	var args []any
	idx := argOffset
	if r.From != nil {
		cond += fmt.Sprintf(" AND %s >= $%d", column, idx)
		args = append(args, *r.From)
		idx++
	}
	if r.To != nil {
		cond += fmt.Sprintf(" AND %s <= $%d", column, idx)
		args = append(args, *r.To)
	}
	return cond, args
}

// SalesSummary aggregates COMPLETED sales in the range.
func (r *ReportRepo) SalesSummary(ctx context.Context, rng reports.DateRange, topLimit int) (*reports.SalesSummary, error) {
	querier := r.txm.GetQuerier(ctx)
	summary := &reports.SalesSummary{
		Revenue:  types.Zero(),
		Discount: types.Zero(),
		Tax:      types.Zero(),
	}

	cond, args := rangeConditions(rng, "created_at", 1)
	totalsSQL := fmt.Sprintf(`
		SELECT COUNT(*),
		       COALESCE(SUM(total), 0),
		       COALESCE(SUM(discount), 0),
		       COALESCE(SUM(tax), 0)
		FROM sales
		WHERE status = 'COMPLETED'%s
	`, cond)

	err := querier.QueryRow(ctx, totalsSQL, args...).
		Scan(&summary.Count, &summary.Revenue, &summary.Discount, &summary.Tax)
	if err != nil && err != pgx.ErrNoRows {
		return nil, fmt.Errorf("sales totals: %w", err)
	}

	paymentSQL := fmt.Sprintf(`
		SELECT payment_method,
		       COUNT(*) AS count,
		       COALESCE(SUM(total), 0) AS amount
		FROM sales
		WHERE status = 'COMPLETED'%s
		GROUP BY payment_method
		ORDER BY amount DESC
	`, cond)

	var byPayment []reports.PaymentBreakdown
	if err := pgxscan.Select(ctx, querier, &byPayment, paymentSQL, args...); err != nil {
		return nil, fmt.Errorf("payment breakdown: %w", err)
	}
	summary.ByPayment = byPayment

	itemCond, itemArgs := rangeConditions(rng, "s.created_at", 1)
	topSQL := fmt.Sprintf(`
		SELECT si.product_id,
		       si.product_name,
		       COALESCE(SUM(si.quantity), 0) AS quantity,
		       COALESCE(SUM(si.line_total), 0) AS revenue
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		WHERE s.status = 'COMPLETED'%s
		GROUP BY si.product_id, si.product_name
		ORDER BY revenue DESC
		LIMIT %d
	`, itemCond, topLimit)

	var top []reports.ProductSales
	if err := pgxscan.Select(ctx, querier, &top, topSQL, itemArgs...); err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	summary.TopProducts = top

	return summary, nil
}

// InventorySummary values the on-hand stock of active products.
func (r *ReportRepo) InventorySummary(ctx context.Context) (*reports.InventorySummary, error) {
	querier := r.txm.GetQuerier(ctx)
	summary := &reports.InventorySummary{TotalValue: types.Zero()}

	linesSQL := `
		SELECT id, sku, name, quantity, cost,
		       quantity * cost AS value
		FROM products
		WHERE active = true
		ORDER BY value DESC
	`
	var lines []reports.ValuationLine
	if err := pgxscan.Select(ctx, querier, &lines, linesSQL); err != nil {
		return nil, fmt.Errorf("valuation lines: %w", err)
	}
	summary.Lines = lines

	totalsSQL := `
		SELECT COUNT(*),
		       COALESCE(SUM(quantity), 0),
		       COALESCE(SUM(quantity * cost), 0),
		       COUNT(*) FILTER (WHERE quantity <= low_stock_threshold)
		FROM products
		WHERE active = true
	`
	err := querier.QueryRow(ctx, totalsSQL).
		Scan(&summary.ProductCount, &summary.TotalUnits, &summary.TotalValue, &summary.LowStockCount)
	if err != nil && err != pgx.ErrNoRows {
		return nil, fmt.Errorf("valuation totals: %w", err)
	}

	return summary, nil
}

// Shrinkage sums |quantity| over negative ADJUST ledger entries, grouped
// by product.
func (r *ReportRepo) Shrinkage(ctx context.Context, rng reports.DateRange) ([]*reports.ShrinkageRow, error) {
	cond, args := rangeConditions(rng, "t.created_at", 1)
	sql := fmt.Sprintf(`
		SELECT t.product_id,
		       COALESCE(p.sku, '') AS sku,
		       COALESCE(p.name, '') AS name,
		       SUM(ABS(t.quantity)) AS quantity
		FROM inventory_transactions t
		LEFT JOIN products p ON p.id = t.product_id
		WHERE t.entry_type = 'ADJUST'
		  AND t.quantity < 0
		  AND t.product_id IS NOT NULL%s
		GROUP BY t.product_id, p.sku, p.name
		ORDER BY quantity DESC
	`, cond)

	var rows []*reports.ShrinkageRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("shrinkage: %w", err)
	}
	return rows, nil
}

var _ reports.Repository = (*ReportRepo)(nil)
