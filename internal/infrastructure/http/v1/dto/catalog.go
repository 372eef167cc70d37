package dto

import (
	"time"

	"retailcore/internal/domain/catalog/customer"
	"retailcore/internal/domain/catalog/supplier"
)

// SupplierRequest creates or updates a supplier.
type SupplierRequest struct {
	Name    string  `json:"name" binding:"required"`
	Contact *string `json:"contact"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
}

// SupplierResponse is the API view of a supplier.
type SupplierResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Contact   *string   `json:"contact,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Address   *string   `json:"address,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromSupplier converts a supplier to its response shape.
func FromSupplier(s *supplier.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:        s.ID.String(),
		Name:      s.Name,
		Contact:   s.Contact,
		Phone:     s.Phone,
		Email:     s.Email,
		Address:   s.Address,
		Active:    s.Active,
		CreatedAt: s.CreatedAt,
	}
}

// SupplierListResponse is a page of suppliers.
type SupplierListResponse struct {
	Items []SupplierResponse `json:"items"`
	Meta  ListMeta           `json:"meta"`
}

// CustomerRequest creates or updates a customer.
type CustomerRequest struct {
	Name    string  `json:"name" binding:"required"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
}

// CustomerResponse is the API view of a customer.
type CustomerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromCustomer converts a customer to its response shape.
func FromCustomer(c *customer.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
	}
}

// CustomerListResponse is a page of customers.
type CustomerListResponse struct {
	Items []CustomerResponse `json:"items"`
	Meta  ListMeta           `json:"meta"`
}
