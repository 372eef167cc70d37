package stock

import (
	"time"

	"retailcore/internal/core/id"
)

// DamagedRecord is the side table row written alongside a damage write-off.
// Each record pairs with exactly one OUT ledger entry.
type DamagedRecord struct {
	ID         id.ID     `db:"id" json:"id"`
	ProductID  id.ID     `db:"product_id" json:"productId"`
	Quantity   int64     `db:"quantity" json:"quantity"`
	Reason     string    `db:"reason" json:"reason"`
	ReportedBy *id.ID    `db:"reported_by" json:"reportedBy,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// DamageFilter narrows damage record queries.
type DamageFilter struct {
	ProductID *id.ID
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}
