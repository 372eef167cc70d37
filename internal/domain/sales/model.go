// Package sales implements point-of-sale checkout and refunds.
// Checkout is the only caller that may fail a movement on insufficient
// stock instead of clamping.
package sales

import (
	"time"

	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
)

// Status is the sale state. Checkout creates a sale as COMPLETED; the only
// defined transition is to REFUNDED. CANCELLED exists in the model with no
// transition into it.
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusRefunded  Status = "REFUNDED"
	StatusCancelled Status = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusCompleted, StatusRefunded, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the move from s to next is legal.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusCompleted && next == StatusRefunded
}

// PaymentMethod enumerates accepted tender types.
type PaymentMethod string

const (
	PaymentCash    PaymentMethod = "cash"
	PaymentCard    PaymentMethod = "card"
	PaymentEWallet PaymentMethod = "e-wallet"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentEWallet:
		return true
	}
	return false
}

// Sale is a completed point-of-sale transaction.
// Invariant: Total = Subtotal - Discount + Tax; Subtotal = Σ item LineTotal.
type Sale struct {
	ID         id.ID  `db:"id" json:"id"`
	Number     string `db:"number" json:"number"`
	ReceiptNo  string `db:"receipt_no" json:"receiptNo"`
	CustomerID *id.ID `db:"customer_id" json:"customerId,omitempty"`
	Status     Status `db:"status" json:"status"`

	Subtotal types.Money `db:"subtotal" json:"subtotal"`
	Discount types.Money `db:"discount" json:"discount"`
	Tax      types.Money `db:"tax" json:"tax"`
	Total    types.Money `db:"total" json:"total"`

	PaymentMethod PaymentMethod `db:"payment_method" json:"paymentMethod"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	Items []*SaleItem `db:"-" json:"items,omitempty"`
}

// SaleItem is one receipt line. ProductID is nullable so the receipt
// survives later product deletion.
type SaleItem struct {
	ID          id.ID       `db:"id" json:"id"`
	SaleID      id.ID       `db:"sale_id" json:"saleId"`
	ProductID   *id.ID      `db:"product_id" json:"productId,omitempty"`
	ProductName string      `db:"product_name" json:"productName"`
	Quantity    int64       `db:"quantity" json:"quantity"`
	UnitPrice   types.Money `db:"unit_price" json:"unitPrice"`
	LineTotal   types.Money `db:"line_total" json:"lineTotal"`
}

// Filter narrows sale listings.
type Filter struct {
	Status        *Status
	PaymentMethod *PaymentMethod
	CustomerID    *id.ID
	From          *time.Time
	To            *time.Time
	Limit         int
	Offset        int
}
