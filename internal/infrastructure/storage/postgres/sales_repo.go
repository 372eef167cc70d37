package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/sales"
)

const (
	salesTable     = "sales"
	saleItemsTable = "sale_items"
)

var (
	saleColumns = []string{
		"id", "number", "receipt_no", "customer_id", "status",
		"subtotal", "discount", "tax", "total", "payment_method",
		"created_at", "updated_at",
	}
	saleItemColumns = []string{
		"id", "sale_id", "product_id", "product_name",
		"quantity", "unit_price", "line_total",
	}
)

// SalesRepo implements sales.Repository.
type SalesRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

// NewSalesRepo creates a new sales repository.
func NewSalesRepo(txm *TxManager) *SalesRepo {
	return &SalesRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create persists the header and all items.
func (r *SalesRepo) Create(ctx context.Context, sale *sales.Sale) error {
	querier := r.txm.GetQuerier(ctx)

	headSQL, headArgs, err := r.builder.Insert(salesTable).
		Columns(saleColumns...).
		Values(
			sale.ID, sale.Number, sale.ReceiptNo, sale.CustomerID, sale.Status,
			sale.Subtotal, sale.Discount, sale.Tax, sale.Total, sale.PaymentMethod,
			sale.CreatedAt, sale.UpdatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("build header insert: %w", err)
	}
	if _, err := querier.Exec(ctx, headSQL, headArgs...); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	if len(sale.Items) == 0 {
		return nil
	}
	q := r.builder.Insert(saleItemsTable).Columns(saleItemColumns...)
	for _, item := range sale.Items {
		q = q.Values(
			item.ID, item.SaleID, item.ProductID, item.ProductName,
			item.Quantity, item.UnitPrice, item.LineTotal,
		)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build items insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale items: %w", err)
	}
	return nil
}

func (r *SalesRepo) loadItems(ctx context.Context, saleID id.ID) ([]*sales.SaleItem, error) {
	sql, args, err := r.builder.Select(saleItemColumns...).
		From(saleItemsTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("product_name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build items query: %w", err)
	}

	var items []*sales.SaleItem
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select sale items: %w", err)
	}
	return items, nil
}

// GetByID retrieves a sale with its items.
func (r *SalesRepo) GetByID(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	sql, args, err := r.builder.Select(saleColumns...).
		From(salesTable).
		Where(squirrel.Eq{"id": saleID}).Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var sale sales.Sale
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &sale, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sale", saleID.String())
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	sale.Items, err = r.loadItems(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// GetForUpdate retrieves a sale with its items, holding a row lock on the
// header.
func (r *SalesRepo) GetForUpdate(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	sql := `
		SELECT id, number, receipt_no, customer_id, status,
		       subtotal, discount, tax, total, payment_method,
		       created_at, updated_at
		FROM sales
		WHERE id = $1
		FOR UPDATE
	`

	var sale sales.Sale
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &sale, sql, saleID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sale", saleID.String())
		}
		return nil, fmt.Errorf("get sale for update: %w", err)
	}

	items, err := r.loadItems(ctx, saleID)
	if err != nil {
		return nil, err
	}
	sale.Items = items
	return &sale, nil
}

// UpdateStatus writes the sale status.
func (r *SalesRepo) UpdateStatus(ctx context.Context, saleID id.ID, status sales.Status) error {
	sql, args, err := r.builder.Update(salesTable).
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": saleID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("sale", saleID.String())
	}
	return nil
}

// List retrieves sales without items, newest first.
func (r *SalesRepo) List(ctx context.Context, filter sales.Filter) ([]*sales.Sale, int64, error) {
	apply := func(q squirrel.SelectBuilder) squirrel.SelectBuilder {
		if filter.Status != nil {
			q = q.Where(squirrel.Eq{"status": *filter.Status})
		}
		if filter.PaymentMethod != nil {
			q = q.Where(squirrel.Eq{"payment_method": *filter.PaymentMethod})
		}
		if filter.CustomerID != nil {
			q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
		}
		if filter.From != nil {
			q = q.Where(squirrel.GtOrEq{"created_at": *filter.From})
		}
		if filter.To != nil {
			q = q.Where(squirrel.LtOrEq{"created_at": *filter.To})
		}
		return q
	}

	countSQL, countArgs, err := apply(r.builder.Select("COUNT(*)").From(salesTable)).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}
	querier := r.txm.GetQuerier(ctx)
	var total int64
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sales: %w", err)
	}

	q := apply(r.builder.Select(saleColumns...).From(salesTable)).
		OrderBy("created_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}

	var items []*sales.Sale
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("select sales: %w", err)
	}
	return items, total, nil
}

var _ sales.Repository = (*SalesRepo)(nil)
