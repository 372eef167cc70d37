package stock

import (
	"context"
	"fmt"
	"time"

	"retailcore/internal/core/apperror"
	corecontext "retailcore/internal/core/context"
	"retailcore/internal/core/id"
	"retailcore/internal/core/tx"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/catalog/product"
	"retailcore/pkg/logger"
)

// ReturnType distinguishes the two return directions.
type ReturnType string

const (
	ReturnCustomer ReturnType = "customer"
	ReturnSupplier ReturnType = "supplier"
)

// Movement is one requested quantity change, consumed by ApplyMovement.
type Movement struct {
	ProductID id.ID
	// Delta is the signed requested change. This exact value is logged
	// even when the effective change is smaller due to clamping.
	Delta     int64
	Type      EntryType
	Reason    string
	Reference *string

	// CostOverride, when set, overwrites the product's unit cost in the
	// same statement as the quantity write.
	CostOverride *types.Money

	// Strict makes a would-be-negative result an InsufficientStock error
	// instead of clamping to zero. Sales set this; nothing else does.
	Strict bool
}

// Service is the stock engine. Every quantity mutation in the system goes
// through ApplyMovement; callers outside this package and the sale/purchase
// services never write quantities directly.
type Service struct {
	products product.Repository
	ledger   LedgerRepository
	damage   DamageRepository
	txm      tx.Manager
}

// NewService creates the stock engine service.
func NewService(products product.Repository, ledger LedgerRepository, damage DamageRepository, txm tx.Manager) *Service {
	return &Service{products: products, ledger: ledger, damage: damage, txm: txm}
}

// ApplyMovement executes one locked read-modify-write against the product
// row and appends the matching ledger entry. It must run inside a
// transaction; calling it through RunInTransaction from a caller that
// already holds one reuses that transaction.
//
// The returned entry carries BalanceAfter, the on-hand quantity after
// clamping.
func (s *Service) ApplyMovement(ctx context.Context, m Movement) (*LedgerEntry, error) {
	var entry *LedgerEntry

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.products.GetForUpdate(ctx, m.ProductID)
		if err != nil {
			return err
		}

		newQty := p.Quantity + m.Delta
		if newQty < 0 {
			if m.Strict {
				return apperror.NewInsufficientStock(m.ProductID.String(), -m.Delta, p.Quantity)
			}
			newQty = 0
		}

		if m.CostOverride != nil {
			err = s.products.UpdateStockAndCost(ctx, m.ProductID, newQty, *m.CostOverride)
		} else {
			err = s.products.UpdateStock(ctx, m.ProductID, newQty)
		}
		if err != nil {
			return err
		}

		pid := m.ProductID
		entry = &LedgerEntry{
			ID:           id.New(),
			ProductID:    &pid,
			Type:         m.Type,
			Quantity:     m.Delta,
			Reference:    m.Reference,
			Reason:       m.Reason,
			ActorID:      actorID(ctx),
			BalanceAfter: newQty,
			CreatedAt:    time.Now().UTC(),
		}
		return s.ledger.Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// StockInInput describes a direct receipt.
type StockInInput struct {
	ProductID id.ID
	Quantity  int64
	// Cost, when set, overwrites the product's unit cost.
	Cost      *types.Money
	Reference *string
	// SupplierTag is folded into the reason text ("Direct purchase from
	// supplier #...").
	SupplierTag string
}

// StockIn receives goods directly, outside any purchase order.
func (s *Service) StockIn(ctx context.Context, in StockInInput) (*LedgerEntry, error) {
	if in.Quantity <= 0 {
		return nil, apperror.NewValidation("quantity must be positive").WithDetail("field", "quantity")
	}
	if in.Cost != nil && in.Cost.IsNegative() {
		return nil, apperror.NewValidation("cost cannot be negative").WithDetail("field", "cost")
	}

	reason := "Direct purchase"
	if in.SupplierTag != "" {
		reason = fmt.Sprintf("Direct purchase from supplier #%s", in.SupplierTag)
	}

	entry, err := s.ApplyMovement(ctx, Movement{
		ProductID:    in.ProductID,
		Delta:        in.Quantity,
		Type:         EntryIn,
		Reason:       reason,
		Reference:    in.Reference,
		CostOverride: in.Cost,
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock received", "product_id", in.ProductID, "quantity", in.Quantity, "balance", entry.BalanceAfter)
	return entry, nil
}

// Adjust removes stock as a manual correction. The requested quantity is
// logged even when the balance clamps at zero.
func (s *Service) Adjust(ctx context.Context, productID id.ID, quantity int64, reason string) (*LedgerEntry, error) {
	if quantity <= 0 {
		return nil, apperror.NewValidation("quantity must be positive").WithDetail("field", "quantity")
	}
	if reason == "" {
		reason = "Net adjustment"
	}

	entry, err := s.ApplyMovement(ctx, Movement{
		ProductID: productID,
		Delta:     -quantity,
		Type:      EntryAdjust,
		Reason:    reason,
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock adjusted", "product_id", productID, "requested", -quantity, "balance", entry.BalanceAfter)
	return entry, nil
}

// ReportDamage writes stock off as damaged. One DamagedRecord and one OUT
// ledger entry, both in the same transaction.
func (s *Service) ReportDamage(ctx context.Context, productID id.ID, quantity int64, reason string) (*LedgerEntry, error) {
	if quantity <= 0 {
		return nil, apperror.NewValidation("quantity must be positive").WithDetail("field", "quantity")
	}
	if reason == "" {
		reason = "No reason given"
	}

	var entry *LedgerEntry
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		entry, err = s.ApplyMovement(ctx, Movement{
			ProductID: productID,
			Delta:     -quantity,
			Type:      EntryOut,
			Reason:    fmt.Sprintf("Damaged: %s", reason),
		})
		if err != nil {
			return err
		}

		rec := &DamagedRecord{
			ID:         id.New(),
			ProductID:  productID,
			Quantity:   quantity,
			Reason:     reason,
			ReportedBy: actorID(ctx),
			CreatedAt:  time.Now().UTC(),
		}
		return s.damage.Create(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "damage reported", "product_id", productID, "quantity", quantity, "balance", entry.BalanceAfter)
	return entry, nil
}

// Return processes a customer return (stock comes back) or a supplier
// return (stock goes out, clamped at zero).
func (s *Service) Return(ctx context.Context, productID id.ID, quantity int64, returnType ReturnType, reason string, saleRef *string) (*LedgerEntry, error) {
	if quantity <= 0 {
		return nil, apperror.NewValidation("quantity must be positive").WithDetail("field", "quantity")
	}

	var delta int64
	var prefix string
	switch returnType {
	case ReturnCustomer:
		delta = quantity
		prefix = "Customer return: "
	case ReturnSupplier:
		delta = -quantity
		prefix = "Supplier return: "
	default:
		return nil, apperror.NewValidation("return_type must be customer or supplier").WithDetail("field", "return_type")
	}

	entry, err := s.ApplyMovement(ctx, Movement{
		ProductID: productID,
		Delta:     delta,
		Type:      EntryReturn,
		Reason:    prefix + reason,
		Reference: saleRef,
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "return processed", "product_id", productID, "type", returnType, "balance", entry.BalanceAfter)
	return entry, nil
}

// Transactions lists ledger entries.
func (s *Service) Transactions(ctx context.Context, filter LedgerFilter) ([]*LedgerEntry, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.ledger.List(ctx, filter)
}

// Damaged lists damage write-off records.
func (s *Service) Damaged(ctx context.Context, filter DamageFilter) ([]*DamagedRecord, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.damage.List(ctx, filter)
}

// actorID resolves the acting user from context. Nil when the call has no
// authenticated actor (seeding, tests).
func actorID(ctx context.Context) *id.ID {
	raw := corecontext.GetUserID(ctx)
	if raw == "" {
		return nil
	}
	actor, err := id.Parse(raw)
	if err != nil {
		return nil
	}
	return &actor
}
