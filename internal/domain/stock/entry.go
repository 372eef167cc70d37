// Package stock implements the inventory ledger and the single code path
// through which on-hand quantities change.
package stock

import (
	"time"

	"retailcore/internal/core/id"
)

// EntryType classifies a ledger entry.
type EntryType string

const (
	// EntryIn records goods arriving (purchases, receipts).
	EntryIn EntryType = "IN"
	// EntryOut records goods leaving (sales, damage write-offs).
	EntryOut EntryType = "OUT"
	// EntryAdjust records manual corrections.
	EntryAdjust EntryType = "ADJUST"
	// EntryReturn records customer and supplier returns.
	EntryReturn EntryType = "RETURN"
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	switch t {
	case EntryIn, EntryOut, EntryAdjust, EntryReturn:
		return true
	}
	return false
}

// LedgerEntry is one immutable row of the inventory ledger.
//
// Quantity is the signed delta the caller requested. BalanceAfter is the
// on-hand quantity after clamping, so requested and effective movement can
// diverge and both remain auditable.
type LedgerEntry struct {
	ID        id.ID     `db:"id" json:"id"`
	ProductID *id.ID    `db:"product_id" json:"productId,omitempty"`
	Type      EntryType `db:"entry_type" json:"type"`
	Quantity  int64     `db:"quantity" json:"quantity"`
	Reference *string   `db:"reference" json:"reference,omitempty"`
	Reason    string    `db:"reason" json:"reason"`
	ActorID   *id.ID    `db:"actor_id" json:"actorId,omitempty"`

	BalanceAfter int64 `db:"balance_after" json:"balanceAfter"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// LedgerFilter narrows ledger queries.
type LedgerFilter struct {
	ProductID *id.ID
	Type      *EntryType
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// DefaultLedgerFilter returns a filter with sane pagination.
func DefaultLedgerFilter() LedgerFilter {
	return LedgerFilter{Limit: 50}
}
