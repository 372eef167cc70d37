package dto

import (
	"time"

	"retailcore/internal/domain/stock"
)

// StockInRequest is a direct receipt payload.
type StockInRequest struct {
	ProductID   string  `json:"productId" binding:"required"`
	Quantity    int64   `json:"quantity" binding:"required"`
	Cost        *string `json:"cost"`
	Reference   *string `json:"reference"`
	SupplierTag string  `json:"supplierTag"`
}

// AdjustRequest is a shrinkage adjustment payload.
type AdjustRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required"`
	Reason    string `json:"reason"`
}

// DamageRequest is a damage write-off payload.
type DamageRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required"`
	Reason    string `json:"reason"`
}

// ReturnRequest is a customer/supplier return payload.
type ReturnRequest struct {
	ProductID  string  `json:"productId" binding:"required"`
	Quantity   int64   `json:"quantity" binding:"required"`
	ReturnType string  `json:"returnType" binding:"required"`
	Reason     string  `json:"reason"`
	SaleRef    *string `json:"saleRef"`
}

// LedgerEntryResponse is the API view of a ledger entry.
type LedgerEntryResponse struct {
	ID           string    `json:"id"`
	ProductID    *string   `json:"productId,omitempty"`
	Type         string    `json:"type"`
	Quantity     int64     `json:"quantity"`
	Reference    *string   `json:"reference,omitempty"`
	Reason       string    `json:"reason"`
	ActorID      *string   `json:"actorId,omitempty"`
	BalanceAfter int64     `json:"balanceAfter"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FromLedgerEntry converts a ledger entry to its response shape.
func FromLedgerEntry(e *stock.LedgerEntry) LedgerEntryResponse {
	resp := LedgerEntryResponse{
		ID:           e.ID.String(),
		Type:         string(e.Type),
		Quantity:     e.Quantity,
		Reference:    e.Reference,
		Reason:       e.Reason,
		BalanceAfter: e.BalanceAfter,
		CreatedAt:    e.CreatedAt,
	}
	if e.ProductID != nil {
		s := e.ProductID.String()
		resp.ProductID = &s
	}
	if e.ActorID != nil {
		s := e.ActorID.String()
		resp.ActorID = &s
	}
	return resp
}

// LedgerListResponse is a page of ledger entries.
type LedgerListResponse struct {
	Items []LedgerEntryResponse `json:"items"`
	Meta  ListMeta              `json:"meta"`
}

// DamagedRecordResponse is the API view of a damage record.
type DamagedRecordResponse struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"productId"`
	Quantity   int64     `json:"quantity"`
	Reason     string    `json:"reason"`
	ReportedBy *string   `json:"reportedBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FromDamagedRecord converts a damage record to its response shape.
func FromDamagedRecord(rec *stock.DamagedRecord) DamagedRecordResponse {
	resp := DamagedRecordResponse{
		ID:        rec.ID.String(),
		ProductID: rec.ProductID.String(),
		Quantity:  rec.Quantity,
		Reason:    rec.Reason,
		CreatedAt: rec.CreatedAt,
	}
	if rec.ReportedBy != nil {
		s := rec.ReportedBy.String()
		resp.ReportedBy = &s
	}
	return resp
}

// DamagedListResponse is a page of damage records.
type DamagedListResponse struct {
	Items []DamagedRecordResponse `json:"items"`
	Meta  ListMeta                `json:"meta"`
}
