package dto

import (
	"retailcore/internal/domain/reports"
)

// PaymentBreakdownResponse is revenue grouped by payment method.
type PaymentBreakdownResponse struct {
	Method string `json:"method"`
	Count  int64  `json:"count"`
	Amount string `json:"amount"`
}

// ProductSalesResponse is one top-seller row.
type ProductSalesResponse struct {
	ProductID *string `json:"productId,omitempty"`
	Name      string  `json:"name"`
	Quantity  int64   `json:"quantity"`
	Revenue   string  `json:"revenue"`
}

// SalesSummaryResponse is the sales report.
type SalesSummaryResponse struct {
	Count       int64                      `json:"count"`
	Revenue     string                     `json:"revenue"`
	Discount    string                     `json:"discount"`
	Tax         string                     `json:"tax"`
	ByPayment   []PaymentBreakdownResponse `json:"byPayment"`
	TopProducts []ProductSalesResponse     `json:"topProducts"`
}

// FromSalesSummary converts the sales summary to its response shape.
func FromSalesSummary(s *reports.SalesSummary) SalesSummaryResponse {
	resp := SalesSummaryResponse{
		Count:    s.Count,
		Revenue:  s.Revenue.StringFixed(2),
		Discount: s.Discount.StringFixed(2),
		Tax:      s.Tax.StringFixed(2),
	}
	for _, p := range s.ByPayment {
		resp.ByPayment = append(resp.ByPayment, PaymentBreakdownResponse{
			Method: p.Method,
			Count:  p.Count,
			Amount: p.Amount.StringFixed(2),
		})
	}
	for _, p := range s.TopProducts {
		row := ProductSalesResponse{
			Name:     p.Name,
			Quantity: p.Quantity,
			Revenue:  p.Revenue.StringFixed(2),
		}
		if p.ProductID != nil {
			pid := p.ProductID.String()
			row.ProductID = &pid
		}
		resp.TopProducts = append(resp.TopProducts, row)
	}
	return resp
}

// ValuationLineResponse is one product's share of the stock valuation.
type ValuationLineResponse struct {
	ProductID string `json:"productId"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	Cost      string `json:"cost"`
	Value     string `json:"value"`
}

// InventorySummaryResponse is the stock valuation report.
type InventorySummaryResponse struct {
	ProductCount  int64                   `json:"productCount"`
	TotalUnits    int64                   `json:"totalUnits"`
	TotalValue    string                  `json:"totalValue"`
	LowStockCount int64                   `json:"lowStockCount"`
	Lines         []ValuationLineResponse `json:"lines"`
}

// FromInventorySummary converts the inventory summary to its response shape.
func FromInventorySummary(s *reports.InventorySummary) InventorySummaryResponse {
	resp := InventorySummaryResponse{
		ProductCount:  s.ProductCount,
		TotalUnits:    s.TotalUnits,
		TotalValue:    s.TotalValue.StringFixed(2),
		LowStockCount: s.LowStockCount,
	}
	for _, l := range s.Lines {
		resp.Lines = append(resp.Lines, ValuationLineResponse{
			ProductID: l.ProductID.String(),
			SKU:       l.SKU,
			Name:      l.Name,
			Quantity:  l.Quantity,
			Cost:      l.Cost.StringFixed(2),
			Value:     l.Value.StringFixed(2),
		})
	}
	return resp
}

// ShrinkageRowResponse is one shrinkage report row.
type ShrinkageRowResponse struct {
	ProductID string `json:"productId"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
}

// ShrinkageResponse is the shrinkage report.
type ShrinkageResponse struct {
	Items []ShrinkageRowResponse `json:"items"`
}

// FromShrinkage converts shrinkage rows to their response shape.
func FromShrinkage(rows []*reports.ShrinkageRow) ShrinkageResponse {
	var resp ShrinkageResponse
	for _, r := range rows {
		resp.Items = append(resp.Items, ShrinkageRowResponse{
			ProductID: r.ProductID.String(),
			SKU:       r.SKU,
			Name:      r.Name,
			Quantity:  r.Quantity,
		})
	}
	return resp
}
