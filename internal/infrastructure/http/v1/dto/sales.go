package dto

import (
	"time"

	"retailcore/internal/domain/sales"
)

// SaleLineRequest is one checkout line.
type SaleLineRequest struct {
	ProductID     string  `json:"productId" binding:"required"`
	Quantity      int64   `json:"quantity" binding:"required"`
	PriceOverride *string `json:"priceOverride"`
}

// CheckoutRequest is the point-of-sale checkout payload.
type CheckoutRequest struct {
	Lines         []SaleLineRequest `json:"lines" binding:"required"`
	PaymentMethod string            `json:"paymentMethod" binding:"required"`
	CustomerID    *string           `json:"customerId"`
	Discount      string            `json:"discount"`
	Tax           string            `json:"tax"`
}

// SaleItemResponse is one receipt line.
type SaleItemResponse struct {
	ID          string  `json:"id"`
	ProductID   *string `json:"productId,omitempty"`
	ProductName string  `json:"productName"`
	Quantity    int64   `json:"quantity"`
	UnitPrice   string  `json:"unitPrice"`
	LineTotal   string  `json:"lineTotal"`
}

// SaleResponse is the API view of a sale (the receipt).
type SaleResponse struct {
	ID            string             `json:"id"`
	Number        string             `json:"number"`
	ReceiptNo     string             `json:"receiptNo"`
	CustomerID    *string            `json:"customerId,omitempty"`
	Status        string             `json:"status"`
	Subtotal      string             `json:"subtotal"`
	Discount      string             `json:"discount"`
	Tax           string             `json:"tax"`
	Total         string             `json:"total"`
	PaymentMethod string             `json:"paymentMethod"`
	Items         []SaleItemResponse `json:"items,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
}

// FromSale converts a sale to its response shape.
func FromSale(s *sales.Sale) SaleResponse {
	resp := SaleResponse{
		ID:            s.ID.String(),
		Number:        s.Number,
		ReceiptNo:     s.ReceiptNo,
		Status:        string(s.Status),
		Subtotal:      s.Subtotal.StringFixed(2),
		Discount:      s.Discount.StringFixed(2),
		Tax:           s.Tax.StringFixed(2),
		Total:         s.Total.StringFixed(2),
		PaymentMethod: string(s.PaymentMethod),
		CreatedAt:     s.CreatedAt,
	}
	if s.CustomerID != nil {
		cid := s.CustomerID.String()
		resp.CustomerID = &cid
	}
	for _, item := range s.Items {
		line := SaleItemResponse{
			ID:          item.ID.String(),
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			LineTotal:   item.LineTotal.StringFixed(2),
		}
		if item.ProductID != nil {
			pid := item.ProductID.String()
			line.ProductID = &pid
		}
		resp.Items = append(resp.Items, line)
	}
	return resp
}

// SaleListResponse is a page of sales.
type SaleListResponse struct {
	Items []SaleResponse `json:"items"`
	Meta  ListMeta       `json:"meta"`
}
