package sales

import (
	"context"

	"retailcore/internal/core/id"
)

// Repository defines persistence operations for sales.
// GetForUpdate and UpdateStatus must run inside a transaction.
type Repository interface {
	// Create persists the header and all items.
	Create(ctx context.Context, sale *Sale) error

	// GetByID returns the sale with its items.
	GetByID(ctx context.Context, saleID id.ID) (*Sale, error)

	// GetForUpdate returns the sale with its items, holding an exclusive
	// row lock on the header until the transaction ends.
	GetForUpdate(ctx context.Context, saleID id.ID) (*Sale, error)

	UpdateStatus(ctx context.Context, saleID id.ID, status Status) error

	List(ctx context.Context, filter Filter) ([]*Sale, int64, error)
}
