package dto

import (
	"time"

	"retailcore/internal/domain/catalog/product"
)

// CreateProductRequest is the product creation payload.
type CreateProductRequest struct {
	SKU               string  `json:"sku" binding:"required"`
	Barcode           *string `json:"barcode"`
	Name              string  `json:"name" binding:"required"`
	Description       *string `json:"description"`
	Price             string  `json:"price" binding:"required"`
	Cost              string  `json:"cost"`
	Quantity          int64   `json:"quantity"`
	LowStockThreshold int64   `json:"lowStockThreshold"`
	Unit              string  `json:"unit"`
	Location          *string `json:"location"`
}

// UpdateProductRequest is the product update payload. Quantity is absent
// on purpose; stock moves only through inventory operations.
type UpdateProductRequest struct {
	SKU               string  `json:"sku" binding:"required"`
	Barcode           *string `json:"barcode"`
	Name              string  `json:"name" binding:"required"`
	Description       *string `json:"description"`
	Price             string  `json:"price" binding:"required"`
	Cost              string  `json:"cost"`
	LowStockThreshold int64   `json:"lowStockThreshold"`
	Unit              string  `json:"unit"`
	Location          *string `json:"location"`
	Active            bool    `json:"active"`
}

// ProductResponse is the API view of a product.
type ProductResponse struct {
	ID                string    `json:"id"`
	SKU               string    `json:"sku"`
	Barcode           *string   `json:"barcode,omitempty"`
	Name              string    `json:"name"`
	Description       *string   `json:"description,omitempty"`
	Price             string    `json:"price"`
	Cost              string    `json:"cost"`
	Quantity          int64     `json:"quantity"`
	LowStockThreshold int64     `json:"lowStockThreshold"`
	Unit              string    `json:"unit"`
	Location          *string   `json:"location,omitempty"`
	Active            bool      `json:"active"`
	LowStock          bool      `json:"lowStock"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// FromProduct converts a product to its response shape.
func FromProduct(p *product.Product) ProductResponse {
	return ProductResponse{
		ID:                p.ID.String(),
		SKU:               p.SKU,
		Barcode:           p.Barcode,
		Name:              p.Name,
		Description:       p.Description,
		Price:             p.Price.StringFixed(2),
		Cost:              p.Cost.StringFixed(2),
		Quantity:          p.Quantity,
		LowStockThreshold: p.LowStockThreshold,
		Unit:              p.Unit,
		Location:          p.Location,
		Active:            p.Active,
		LowStock:          p.IsLowStock(),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// ProductListResponse is a page of products.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Meta  ListMeta          `json:"meta"`
}
