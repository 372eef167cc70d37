package purchase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/core/tx"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/catalog/supplier"
	"retailcore/internal/domain/stock"
	"retailcore/pkg/logger"
	"retailcore/pkg/numerator"
)

// StockEngine is the slice of the stock engine the receipt needs.
type StockEngine interface {
	ApplyMovement(ctx context.Context, m stock.Movement) (*stock.LedgerEntry, error)
}

// Service provides purchase order operations.
type Service struct {
	repo      Repository
	suppliers supplier.Repository
	engine    StockEngine
	txm       tx.Manager
	numbers   numerator.Generator
	numCfg    numerator.Config
}

// NewService creates a new purchase order service.
func NewService(repo Repository, suppliers supplier.Repository, engine StockEngine, txm tx.Manager, numbers numerator.Generator) *Service {
	return &Service{
		repo:      repo,
		suppliers: suppliers,
		engine:    engine,
		txm:       txm,
		numbers:   numbers,
		numCfg:    numerator.DefaultConfig("PO"),
	}
}

// ItemInput is one requested order line.
type ItemInput struct {
	ProductID id.ID
	Quantity  int64
	UnitCost  types.Money
}

// CreateInput describes a new purchase order.
type CreateInput struct {
	SupplierID   id.ID
	ExpectedDate *time.Time
	Notes        *string
	Items        []ItemInput
}

// Create opens a new purchase order. Gaps in PO numbers are acceptable, so
// the cached numbering strategy is used.
func (s *Service) Create(ctx context.Context, in CreateInput) (*PurchaseOrder, error) {
	now := time.Now().UTC()
	po := &PurchaseOrder{
		ID:           id.New(),
		SupplierID:   in.SupplierID,
		Status:       StatusOpen,
		ExpectedDate: in.ExpectedDate,
		Notes:        in.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, item := range in.Items {
		po.Items = append(po.Items, &PurchaseItem{
			ID:        id.New(),
			POID:      po.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitCost:  item.UnitCost,
		})
	}
	if err := po.Validate(ctx); err != nil {
		return nil, err
	}
	if _, err := s.suppliers.GetByID(ctx, in.SupplierID); err != nil {
		return nil, err
	}
	po.ComputeTotal()

	number, err := s.numbers.GetNextNumber(ctx, s.numCfg, &numerator.Options{Strategy: numerator.StrategyCached}, now)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	po.Number = number

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, po)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order created", "id", po.ID, "number", po.Number, "total", po.Total)
	return po, nil
}

// UpdateInput describes edits to an OPEN purchase order.
type UpdateInput struct {
	ExpectedDate *time.Time
	Notes        *string
	// Items, when non-nil, replaces the full item set.
	Items []ItemInput
}

// Update edits an order. Only OPEN orders are editable; the total is
// recomputed from the resulting item set.
func (s *Service) Update(ctx context.Context, poID id.ID, in UpdateInput) (*PurchaseOrder, error) {
	var po *PurchaseOrder

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		po, err = s.repo.GetForUpdate(ctx, poID)
		if err != nil {
			return err
		}
		if po.Status != StatusOpen {
			return apperror.NewConflict(fmt.Sprintf("purchase order %s is %s and cannot be updated", po.Number, po.Status))
		}

		if in.ExpectedDate != nil {
			po.ExpectedDate = in.ExpectedDate
		}
		if in.Notes != nil {
			po.Notes = in.Notes
		}
		if in.Items != nil {
			items := make([]*PurchaseItem, 0, len(in.Items))
			for _, item := range in.Items {
				items = append(items, &PurchaseItem{
					ID:        id.New(),
					POID:      po.ID,
					ProductID: item.ProductID,
					Quantity:  item.Quantity,
					UnitCost:  item.UnitCost,
				})
			}
			po.Items = items
		}
		if err := po.Validate(ctx); err != nil {
			return err
		}
		po.ComputeTotal()
		po.UpdatedAt = time.Now().UTC()

		if in.Items != nil {
			if err := s.repo.ReplaceItems(ctx, po.ID, po.Items); err != nil {
				return err
			}
		}
		return s.repo.UpdateHeader(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

// Cancel moves an OPEN order to CANCELLED. No stock effect.
func (s *Service) Cancel(ctx context.Context, poID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		po, err := s.repo.GetForUpdate(ctx, poID)
		if err != nil {
			return err
		}
		if !po.Status.CanTransitionTo(StatusCancelled) {
			return apperror.NewConflict(fmt.Sprintf("purchase order %s is %s and cannot be cancelled", po.Number, po.Status))
		}
		if err := s.repo.UpdateStatus(ctx, po.ID, StatusCancelled); err != nil {
			return err
		}
		logger.Info(ctx, "purchase order cancelled", "id", po.ID, "number", po.Number)
		return nil
	})
}

// Receive fulfills an OPEN order: every item is stocked in with the item's
// unit cost overwriting the product cost, then the order flips to RECEIVED.
// One transaction; any item failure leaves the order OPEN and stock
// untouched. A vanished product aborts the whole receipt.
func (s *Service) Receive(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	var po *PurchaseOrder

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		po, err = s.repo.GetForUpdate(ctx, poID)
		if err != nil {
			return err
		}
		if po.Status != StatusOpen {
			return apperror.NewConflict(fmt.Sprintf("purchase order %s is already %s", po.Number, po.Status))
		}

		items := make([]*PurchaseItem, len(po.Items))
		copy(items, po.Items)
		sortItemsByProduct(items)

		reason := fmt.Sprintf("Received from PO %s", po.Number)
		for _, item := range items {
			cost := item.UnitCost
			ref := po.Number
			if _, err := s.engine.ApplyMovement(ctx, stock.Movement{
				ProductID:    item.ProductID,
				Delta:        item.Quantity,
				Type:         stock.EntryIn,
				Reason:       reason,
				Reference:    &ref,
				CostOverride: &cost,
			}); err != nil {
				return err
			}
		}

		if err := s.repo.UpdateStatus(ctx, po.ID, StatusReceived); err != nil {
			return err
		}
		po.Status = StatusReceived
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order received", "id", po.ID, "number", po.Number, "items", len(po.Items))
	return po, nil
}

// Delete removes an order. RECEIVED orders are part of the audit trail and
// cannot be deleted.
func (s *Service) Delete(ctx context.Context, poID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		po, err := s.repo.GetForUpdate(ctx, poID)
		if err != nil {
			return err
		}
		if po.Status == StatusReceived {
			return apperror.NewConflict(fmt.Sprintf("purchase order %s has been received and cannot be deleted", po.Number))
		}
		return s.repo.Delete(ctx, po.ID)
	})
}

// GetByID retrieves an order with its items.
func (s *Service) GetByID(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	return s.repo.GetByID(ctx, poID)
}

// List retrieves orders.
func (s *Service) List(ctx context.Context, filter Filter) ([]*PurchaseOrder, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}

// sortItemsByProduct orders items ascending by product id so concurrent
// multi-item operations lock rows in the same order.
func sortItemsByProduct(items []*PurchaseItem) {
	sort.Slice(items, func(a, b int) bool {
		return id.Less(items[a].ProductID, items[b].ProductID)
	})
}
