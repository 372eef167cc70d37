// Package product provides the product catalog.
// The on-hand quantity lives here but is mutated exclusively through the
// stock engine; catalog updates never touch it.
package product

import (
	"context"
	"time"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
)

// Product represents a sellable item.
type Product struct {
	ID          id.ID   `db:"id" json:"id"`
	SKU         string  `db:"sku" json:"sku"`
	Barcode     *string `db:"barcode" json:"barcode,omitempty"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`

	Price types.Money `db:"price" json:"price"`
	Cost  types.Money `db:"cost" json:"cost"`

	// Quantity is the on-hand stock. Invariant: never negative.
	Quantity int64 `db:"quantity" json:"quantity"`

	// LowStockThreshold marks the reorder point for the low-stock view.
	LowStockThreshold int64 `db:"low_stock_threshold" json:"lowStockThreshold"`

	Unit string `db:"unit" json:"unit"`

	// Location is a free-text shelf/bin tag, not a warehouse dimension.
	Location *string `db:"location" json:"location,omitempty"`

	Active bool `db:"active" json:"active"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a product with generated ID and defaults.
func New(sku, name string, price, cost types.Money) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:        id.New(),
		SKU:       sku,
		Name:      name,
		Price:     price,
		Cost:      cost,
		Unit:      "pcs",
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks product invariants.
func (p *Product) Validate(ctx context.Context) error {
	if p.SKU == "" {
		return apperror.NewValidation("sku is required").WithDetail("field", "sku")
	}
	if p.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if p.Price.IsNegative() {
		return apperror.NewValidation("price cannot be negative").WithDetail("field", "price")
	}
	if p.Cost.IsNegative() {
		return apperror.NewValidation("cost cannot be negative").WithDetail("field", "cost")
	}
	if p.Quantity < 0 {
		return apperror.NewValidation("quantity cannot be negative").WithDetail("field", "quantity")
	}
	if p.LowStockThreshold < 0 {
		return apperror.NewValidation("low stock threshold cannot be negative").WithDetail("field", "lowStockThreshold")
	}
	return nil
}

// IsLowStock reports whether the product is at or below its reorder point.
func (p *Product) IsLowStock() bool {
	return p.Active && p.Quantity <= p.LowStockThreshold
}

// Touch updates the modification timestamp.
func (p *Product) Touch() {
	p.UpdatedAt = time.Now().UTC()
}
