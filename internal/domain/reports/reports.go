// Package reports provides read-only projections over the stock store,
// the ledger and completed sales.
package reports

import (
	"context"
	"time"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
)

// DateRange bounds a report. Nil ends are unbounded.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Validate rejects inverted ranges.
func (r DateRange) Validate() error {
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return apperror.NewValidation("date range end precedes start").WithDetail("field", "to")
	}
	return nil
}

// PaymentBreakdown is revenue grouped by payment method.
type PaymentBreakdown struct {
	Method string      `db:"payment_method" json:"method"`
	Count  int64       `db:"count" json:"count"`
	Amount types.Money `db:"amount" json:"amount"`
}

// ProductSales is one row of the top-sellers list.
type ProductSales struct {
	ProductID *id.ID      `db:"product_id" json:"productId,omitempty"`
	Name      string      `db:"product_name" json:"name"`
	Quantity  int64       `db:"quantity" json:"quantity"`
	Revenue   types.Money `db:"revenue" json:"revenue"`
}

// SalesSummary aggregates COMPLETED sales in a range.
type SalesSummary struct {
	Count       int64              `json:"count"`
	Revenue     types.Money        `json:"revenue"`
	Discount    types.Money        `json:"discount"`
	Tax         types.Money        `json:"tax"`
	ByPayment   []PaymentBreakdown `json:"byPayment"`
	TopProducts []ProductSales     `json:"topProducts"`
}

// ValuationLine is one product's share of the stock valuation.
type ValuationLine struct {
	ProductID id.ID       `db:"id" json:"productId"`
	SKU       string      `db:"sku" json:"sku"`
	Name      string      `db:"name" json:"name"`
	Quantity  int64       `db:"quantity" json:"quantity"`
	Cost      types.Money `db:"cost" json:"cost"`
	Value     types.Money `db:"value" json:"value"`
}

// InventorySummary values the on-hand stock of active products.
type InventorySummary struct {
	ProductCount  int64           `json:"productCount"`
	TotalUnits    int64           `json:"totalUnits"`
	TotalValue    types.Money     `json:"totalValue"`
	LowStockCount int64           `json:"lowStockCount"`
	Lines         []ValuationLine `json:"lines"`
}

// ShrinkageRow is cumulative unexplained loss for one product: the sum of
// |quantity| over negative ADJUST ledger entries.
type ShrinkageRow struct {
	ProductID id.ID  `db:"product_id" json:"productId"`
	SKU       string `db:"sku" json:"sku"`
	Name      string `db:"name" json:"name"`
	Quantity  int64  `db:"quantity" json:"quantity"`
}

// Repository runs the aggregate queries.
type Repository interface {
	SalesSummary(ctx context.Context, r DateRange, topLimit int) (*SalesSummary, error)
	InventorySummary(ctx context.Context) (*InventorySummary, error)
	Shrinkage(ctx context.Context, r DateRange) ([]*ShrinkageRow, error)
}

// Service provides reporting operations.
type Service struct {
	repo Repository
}

// NewService creates a new reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SalesSummary aggregates completed sales.
func (s *Service) SalesSummary(ctx context.Context, r DateRange) (*SalesSummary, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return s.repo.SalesSummary(ctx, r, 10)
}

// InventorySummary values current stock.
func (s *Service) InventorySummary(ctx context.Context) (*InventorySummary, error) {
	return s.repo.InventorySummary(ctx)
}

// Shrinkage aggregates negative adjustments per product.
func (s *Service) Shrinkage(ctx context.Context, r DateRange) ([]*ShrinkageRow, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Shrinkage(ctx, r)
}
