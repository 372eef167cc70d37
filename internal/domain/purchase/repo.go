package purchase

import (
	"context"

	"retailcore/internal/core/id"
)

// Repository defines persistence operations for purchase orders.
// GetForUpdate and UpdateStatus must run inside a transaction.
type Repository interface {
	// Create persists the header and all items.
	Create(ctx context.Context, po *PurchaseOrder) error

	// GetByID returns the order with its items.
	GetByID(ctx context.Context, poID id.ID) (*PurchaseOrder, error)

	// GetForUpdate returns the order with its items, holding an exclusive
	// row lock on the header until the transaction ends.
	GetForUpdate(ctx context.Context, poID id.ID) (*PurchaseOrder, error)

	// UpdateHeader persists expected date, notes and total.
	UpdateHeader(ctx context.Context, po *PurchaseOrder) error

	// ReplaceItems swaps the full item set of an order.
	ReplaceItems(ctx context.Context, poID id.ID, items []*PurchaseItem) error

	UpdateStatus(ctx context.Context, poID id.ID, status Status) error

	Delete(ctx context.Context, poID id.ID) error

	List(ctx context.Context, filter Filter) ([]*PurchaseOrder, int64, error)
}
