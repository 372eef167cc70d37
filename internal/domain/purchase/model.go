// Package purchase implements the purchase order lifecycle.
// Receiving a purchase order performs bulk stock-in through the stock engine.
package purchase

import (
	"context"
	"time"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
)

// Status is the purchase order state. OPEN orders can be edited, received
// or cancelled; RECEIVED and CANCELLED are terminal.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusReceived  Status = "RECEIVED"
	StatusCancelled Status = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusReceived, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the move from s to next is legal.
func (s Status) CanTransitionTo(next Status) bool {
	if s == StatusOpen {
		return next == StatusReceived || next == StatusCancelled
	}
	return false
}

// PurchaseOrder is a supplier restocking order.
type PurchaseOrder struct {
	ID           id.ID       `db:"id" json:"id"`
	Number       string      `db:"number" json:"number"`
	SupplierID   id.ID       `db:"supplier_id" json:"supplierId"`
	Status       Status      `db:"status" json:"status"`
	ExpectedDate *time.Time  `db:"expected_date" json:"expectedDate,omitempty"`
	Notes        *string     `db:"notes" json:"notes,omitempty"`
	Total        types.Money `db:"total" json:"total"`
	CreatedAt    time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updatedAt"`

	Items []*PurchaseItem `db:"-" json:"items,omitempty"`
}

// PurchaseItem is one line of a purchase order.
type PurchaseItem struct {
	ID        id.ID       `db:"id" json:"id"`
	POID      id.ID       `db:"po_id" json:"poId"`
	ProductID id.ID       `db:"product_id" json:"productId"`
	Quantity  int64       `db:"quantity" json:"quantity"`
	UnitCost  types.Money `db:"unit_cost" json:"unitCost"`
}

// LineTotal returns quantity times unit cost.
func (i *PurchaseItem) LineTotal() types.Money {
	return types.MoneyFromQty(i.UnitCost, i.Quantity)
}

// ComputeTotal recalculates Total from the items. Invariant: the stored
// total always equals this sum.
func (po *PurchaseOrder) ComputeTotal() {
	total := types.Zero()
	for _, item := range po.Items {
		total = total.Add(item.LineTotal())
	}
	po.Total = total
}

// Validate checks order invariants.
func (po *PurchaseOrder) Validate(ctx context.Context) error {
	if id.IsNil(po.SupplierID) {
		return apperror.NewValidation("supplier_id is required").WithDetail("field", "supplier_id")
	}
	if len(po.Items) == 0 {
		return apperror.NewValidation("purchase order must have at least one item").WithDetail("field", "items")
	}
	for _, item := range po.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation("item product_id is required").WithDetail("field", "items.product_id")
		}
		if item.Quantity <= 0 {
			return apperror.NewValidation("item quantity must be positive").WithDetail("field", "items.quantity")
		}
		if item.UnitCost.IsNegative() {
			return apperror.NewValidation("item unit_cost cannot be negative").WithDetail("field", "items.unit_cost")
		}
	}
	return nil
}

// Filter narrows purchase order listings.
type Filter struct {
	SupplierID *id.ID
	Status     *Status
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}
