package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"retailcore/internal/domain/stock"
)

const damagedTable = "damaged_inventory"

var damagedColumns = []string{
	"id", "product_id", "quantity", "reason", "reported_by", "created_at",
}

// DamageRepo implements stock.DamageRepository.
type DamageRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

// NewDamageRepo creates a new damage repository.
func NewDamageRepo(txm *TxManager) *DamageRepo {
	return &DamageRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a damage record.
func (r *DamageRepo) Create(ctx context.Context, rec *stock.DamagedRecord) error {
	q := r.builder.Insert(damagedTable).
		Columns(damagedColumns...).
		Values(rec.ID, rec.ProductID, rec.Quantity, rec.Reason, rec.ReportedBy, rec.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert damage record: %w", err)
	}
	return nil
}

// List retrieves damage records, newest first, with a total count.
func (r *DamageRepo) List(ctx context.Context, filter stock.DamageFilter) ([]*stock.DamagedRecord, int64, error) {
	apply := func(q squirrel.SelectBuilder) squirrel.SelectBuilder {
		if filter.ProductID != nil {
			q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
		}
		if filter.From != nil {
			q = q.Where(squirrel.GtOrEq{"created_at": *filter.From})
		}
		if filter.To != nil {
			q = q.Where(squirrel.LtOrEq{"created_at": *filter.To})
		}
		return q
	}

	countSQL, countArgs, err := apply(r.builder.Select("COUNT(*)").From(damagedTable)).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}
	querier := r.txm.GetQuerier(ctx)
	var total int64
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count damage records: %w", err)
	}

	q := apply(r.builder.Select(damagedColumns...).From(damagedTable)).
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

	var records []*stock.DamagedRecord
	if err := pgxscan.Select(ctx, querier, &records, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("select damage records: %w", err)
	}
	return records, total, nil
}

var _ stock.DamageRepository = (*DamageRepo)(nil)
