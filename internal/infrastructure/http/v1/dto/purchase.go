package dto

import (
	"time"

	"retailcore/internal/domain/purchase"
)

// PurchaseItemRequest is one requested order line.
type PurchaseItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required"`
	UnitCost  string `json:"unitCost" binding:"required"`
}

// CreatePurchaseOrderRequest opens a new order.
type CreatePurchaseOrderRequest struct {
	SupplierID   string                `json:"supplierId" binding:"required"`
	ExpectedDate *time.Time            `json:"expectedDate"`
	Notes        *string               `json:"notes"`
	Items        []PurchaseItemRequest `json:"items" binding:"required"`
}

// UpdatePurchaseOrderRequest edits an OPEN order.
type UpdatePurchaseOrderRequest struct {
	ExpectedDate *time.Time            `json:"expectedDate"`
	Notes        *string               `json:"notes"`
	Items        []PurchaseItemRequest `json:"items"`
}

// PurchaseItemResponse is the API view of an order line.
type PurchaseItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
	UnitCost  string `json:"unitCost"`
	LineTotal string `json:"lineTotal"`
}

// PurchaseOrderResponse is the API view of an order.
type PurchaseOrderResponse struct {
	ID           string                 `json:"id"`
	Number       string                 `json:"number"`
	SupplierID   string                 `json:"supplierId"`
	Status       string                 `json:"status"`
	ExpectedDate *time.Time             `json:"expectedDate,omitempty"`
	Notes        *string                `json:"notes,omitempty"`
	Total        string                 `json:"total"`
	Items        []PurchaseItemResponse `json:"items,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

// FromPurchaseOrder converts an order to its response shape.
func FromPurchaseOrder(po *purchase.PurchaseOrder) PurchaseOrderResponse {
	resp := PurchaseOrderResponse{
		ID:           po.ID.String(),
		Number:       po.Number,
		SupplierID:   po.SupplierID.String(),
		Status:       string(po.Status),
		ExpectedDate: po.ExpectedDate,
		Notes:        po.Notes,
		Total:        po.Total.StringFixed(2),
		CreatedAt:    po.CreatedAt,
		UpdatedAt:    po.UpdatedAt,
	}
	for _, item := range po.Items {
		resp.Items = append(resp.Items, PurchaseItemResponse{
			ID:        item.ID.String(),
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			UnitCost:  item.UnitCost.StringFixed(2),
			LineTotal: item.LineTotal().StringFixed(2),
		})
	}
	return resp
}

// PurchaseOrderListResponse is a page of orders.
type PurchaseOrderListResponse struct {
	Items []PurchaseOrderResponse `json:"items"`
	Meta  ListMeta                `json:"meta"`
}
