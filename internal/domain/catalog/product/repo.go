package product

import (
	"context"

	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain"
)

// Repository defines persistence operations for products.
//
// GetForUpdate, UpdateStock and UpdateStockAndCost exist for the stock
// engine only; they must be called inside a transaction.
type Repository interface {
	Create(ctx context.Context, p *Product) error

	GetByID(ctx context.Context, productID id.ID) (*Product, error)

	GetBySKU(ctx context.Context, sku string) (*Product, error)

	// GetForUpdate returns the product with an exclusive row lock
	// (SELECT ... FOR UPDATE). The lock is held until the enclosing
	// transaction commits or rolls back.
	GetForUpdate(ctx context.Context, productID id.ID) (*Product, error)

	// Update persists catalog fields. Quantity is never written here.
	Update(ctx context.Context, p *Product) error

	SetActive(ctx context.Context, productID id.ID, active bool) error

	// UpdateStock writes the new on-hand quantity.
	UpdateStock(ctx context.Context, productID id.ID, quantity int64) error

	// UpdateStockAndCost writes quantity and overwrites the unit cost in
	// the same statement (receipts with a cost override).
	UpdateStockAndCost(ctx context.Context, productID id.ID, quantity int64, cost types.Money) error

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error)

	// FindLowStock returns active products with quantity at or below the
	// low stock threshold, ordered by quantity ascending.
	FindLowStock(ctx context.Context) ([]*Product, error)

	ExistsBySKU(ctx context.Context, sku string) (bool, error)
}
