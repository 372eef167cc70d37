package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/purchase"
)

const (
	purchaseOrdersTable = "purchase_orders"
	purchaseItemsTable  = "purchase_items"
)

var (
	purchaseOrderColumns = []string{
		"id", "number", "supplier_id", "status",
		"expected_date", "notes", "total", "created_at", "updated_at",
	}
	purchaseItemColumns = []string{
		"id", "po_id", "product_id", "quantity", "unit_cost",
	}
)

// PurchaseRepo implements purchase.Repository.
type PurchaseRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

// NewPurchaseRepo creates a new purchase order repository.
func NewPurchaseRepo(txm *TxManager) *PurchaseRepo {
	return &PurchaseRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create persists the header and all items.
func (r *PurchaseRepo) Create(ctx context.Context, po *purchase.PurchaseOrder) error {
	querier := r.txm.GetQuerier(ctx)

	headSQL, headArgs, err := r.builder.Insert(purchaseOrdersTable).
		Columns(purchaseOrderColumns...).
		Values(
			po.ID, po.Number, po.SupplierID, po.Status,
			po.ExpectedDate, po.Notes, po.Total, po.CreatedAt, po.UpdatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("build header insert: %w", err)
	}
	if _, err := querier.Exec(ctx, headSQL, headArgs...); err != nil {
		return fmt.Errorf("insert purchase order: %w", err)
	}

	return r.insertItems(ctx, po.Items)
}

func (r *PurchaseRepo) insertItems(ctx context.Context, items []*purchase.PurchaseItem) error {
	if len(items) == 0 {
		return nil
	}
	q := r.builder.Insert(purchaseItemsTable).Columns(purchaseItemColumns...)
	for _, item := range items {
		q = q.Values(item.ID, item.POID, item.ProductID, item.Quantity, item.UnitCost)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build items insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert purchase items: %w", err)
	}
	return nil
}

func (r *PurchaseRepo) loadItems(ctx context.Context, poID id.ID) ([]*purchase.PurchaseItem, error) {
	sql, args, err := r.builder.Select(purchaseItemColumns...).
		From(purchaseItemsTable).
		Where(squirrel.Eq{"po_id": poID}).
		OrderBy("product_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build items query: %w", err)
	}

	var items []*purchase.PurchaseItem
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select purchase items: %w", err)
	}
	return items, nil
}

// GetByID retrieves an order with its items.
func (r *PurchaseRepo) GetByID(ctx context.Context, poID id.ID) (*purchase.PurchaseOrder, error) {
	sql, args, err := r.builder.Select(purchaseOrderColumns...).
		From(purchaseOrdersTable).
		Where(squirrel.Eq{"id": poID}).Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var po purchase.PurchaseOrder
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &po, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("purchase order", poID.String())
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}

	po.Items, err = r.loadItems(ctx, poID)
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// GetForUpdate retrieves an order with its items, holding a row lock on
// the header.
func (r *PurchaseRepo) GetForUpdate(ctx context.Context, poID id.ID) (*purchase.PurchaseOrder, error) {
	sql := `
		SELECT id, number, supplier_id, status,
		       expected_date, notes, total, created_at, updated_at
		FROM purchase_orders
		WHERE id = $1
		FOR UPDATE
	`

	var po purchase.PurchaseOrder
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &po, sql, poID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("purchase order", poID.String())
		}
		return nil, fmt.Errorf("get purchase order for update: %w", err)
	}

	items, err := r.loadItems(ctx, poID)
	if err != nil {
		return nil, err
	}
	po.Items = items
	return &po, nil
}

// UpdateHeader persists expected date, notes and total.
func (r *PurchaseRepo) UpdateHeader(ctx context.Context, po *purchase.PurchaseOrder) error {
	sql, args, err := r.builder.Update(purchaseOrdersTable).
		Set("expected_date", po.ExpectedDate).
		Set("notes", po.Notes).
		Set("total", po.Total).
		Set("updated_at", po.UpdatedAt).
		Where(squirrel.Eq{"id": po.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update purchase order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase order", po.ID.String())
	}
	return nil
}

// ReplaceItems swaps the full item set of an order.
func (r *PurchaseRepo) ReplaceItems(ctx context.Context, poID id.ID, items []*purchase.PurchaseItem) error {
	delSQL, delArgs, err := r.builder.Delete(purchaseItemsTable).
		Where(squirrel.Eq{"po_id": poID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, delSQL, delArgs...); err != nil {
		return fmt.Errorf("delete purchase items: %w", err)
	}
	return r.insertItems(ctx, items)
}

// UpdateStatus writes the order status.
func (r *PurchaseRepo) UpdateStatus(ctx context.Context, poID id.ID, status purchase.Status) error {
	sql, args, err := r.builder.Update(purchaseOrdersTable).
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": poID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase order", poID.String())
	}
	return nil
}

// Delete removes an order and its items.
func (r *PurchaseRepo) Delete(ctx context.Context, poID id.ID) error {
	querier := r.txm.GetQuerier(ctx)

	delItems, delItemsArgs, err := r.builder.Delete(purchaseItemsTable).
		Where(squirrel.Eq{"po_id": poID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete items: %w", err)
	}
	if _, err := querier.Exec(ctx, delItems, delItemsArgs...); err != nil {
		return fmt.Errorf("delete purchase items: %w", err)
	}

	delHead, delHeadArgs, err := r.builder.Delete(purchaseOrdersTable).
		Where(squirrel.Eq{"id": poID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := querier.Exec(ctx, delHead, delHeadArgs...)
	if err != nil {
		return fmt.Errorf("delete purchase order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase order", poID.String())
	}
	return nil
}

// List retrieves orders without items, newest first.
func (r *PurchaseRepo) List(ctx context.Context, filter purchase.Filter) ([]*purchase.PurchaseOrder, int64, error) {
	apply := func(q squirrel.SelectBuilder) squirrel.SelectBuilder {
		if filter.SupplierID != nil {
			q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
		}
		if filter.Status != nil {
			q = q.Where(squirrel.Eq{"status": *filter.Status})
		}
		if filter.From != nil {
			q = q.Where(squirrel.GtOrEq{"created_at": *filter.From})
		}
		if filter.To != nil {
			q = q.Where(squirrel.LtOrEq{"created_at": *filter.To})
		}
		return q
	}

	countSQL, countArgs, err := apply(r.builder.Select("COUNT(*)").From(purchaseOrdersTable)).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}
	querier := r.txm.GetQuerier(ctx)
	var total int64
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count purchase orders: %w", err)
	}

	q := apply(r.builder.Select(purchaseOrderColumns...).From(purchaseOrdersTable)).
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

	var orders []*purchase.PurchaseOrder
	if err := pgxscan.Select(ctx, querier, &orders, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("select purchase orders: %w", err)
	}
	return orders, total, nil
}

var _ purchase.Repository = (*PurchaseRepo)(nil)
