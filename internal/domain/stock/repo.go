package stock

import (
	"context"
)

// LedgerRepository persists ledger entries. The ledger is append-only;
// there is no update or delete.
type LedgerRepository interface {
	Append(ctx context.Context, entry *LedgerEntry) error
	List(ctx context.Context, filter LedgerFilter) ([]*LedgerEntry, int64, error)
}

// DamageRepository persists damage write-off records.
type DamageRepository interface {
	Create(ctx context.Context, rec *DamagedRecord) error
	List(ctx context.Context, filter DamageFilter) ([]*DamagedRecord, int64, error)
}
