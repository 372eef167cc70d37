package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"retailcore/internal/domain/stock"
)

const ledgerTable = "inventory_transactions"

var ledgerColumns = []string{
	"id", "product_id", "entry_type", "quantity",
	"reference", "reason", "actor_id", "balance_after", "created_at",
}

// LedgerRepo implements stock.LedgerRepository. The table is append-only;
// no update or delete statements exist here.
type LedgerRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txm *TxManager) *LedgerRepo {
	return &LedgerRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Append inserts one ledger entry.
func (r *LedgerRepo) Append(ctx context.Context, entry *stock.LedgerEntry) error {
	q := r.builder.Insert(ledgerTable).
		Columns(ledgerColumns...).
		Values(
			entry.ID, entry.ProductID, entry.Type, entry.Quantity,
			entry.Reference, entry.Reason, entry.ActorID, entry.BalanceAfter, entry.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

func (r *LedgerRepo) applyFilter(q squirrel.SelectBuilder, filter stock.LedgerFilter) squirrel.SelectBuilder {
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"entry_type": *filter.Type})
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.To})
	}
	return q
}

// List retrieves ledger entries, newest first, with a total count.
func (r *LedgerRepo) List(ctx context.Context, filter stock.LedgerFilter) ([]*stock.LedgerEntry, int64, error) {
	countQ := r.applyFilter(r.builder.Select("COUNT(*)").From(ledgerTable), filter)
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	var total int64
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count ledger entries: %w", err)
	}

	q := r.applyFilter(r.builder.Select(ledgerColumns...).From(ledgerTable), filter).
		OrderBy("created_at DESC", "id DESC")
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

	var entries []*stock.LedgerEntry
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("select ledger entries: %w", err)
	}
	return entries, total, nil
}

var _ stock.LedgerRepository = (*LedgerRepo)(nil)
