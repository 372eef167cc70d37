package sales

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/core/tx"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/catalog/product"
	"retailcore/internal/domain/stock"
	"retailcore/pkg/logger"
	"retailcore/pkg/numerator"
)

// StockEngine is the slice of the stock engine checkout and refund need.
type StockEngine interface {
	ApplyMovement(ctx context.Context, m stock.Movement) (*stock.LedgerEntry, error)
}

// Service provides checkout and refund operations.
type Service struct {
	repo     Repository
	products product.Repository
	engine   StockEngine
	txm      tx.Manager
	numbers  numerator.Generator
	numCfg   numerator.Config
}

// NewService creates a new sales service.
func NewService(repo Repository, products product.Repository, engine StockEngine, txm tx.Manager, numbers numerator.Generator) *Service {
	return &Service{
		repo:     repo,
		products: products,
		engine:   engine,
		txm:      txm,
		numbers:  numbers,
		numCfg:   numerator.DefaultConfig("SAL"),
	}
}

// LineInput is one requested checkout line.
type LineInput struct {
	ProductID id.ID
	Quantity  int64
	// PriceOverride, when set, replaces the catalog price for this line.
	PriceOverride *types.Money
}

// CheckoutInput describes a point-of-sale checkout.
type CheckoutInput struct {
	Lines         []LineInput
	PaymentMethod PaymentMethod
	CustomerID    *id.ID
	Discount      types.Money
	Tax           types.Money
}

func (in *CheckoutInput) validate() error {
	if len(in.Lines) == 0 {
		return apperror.NewValidation("sale must have at least one line").WithDetail("field", "lines")
	}
	for _, line := range in.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("line product_id is required").WithDetail("field", "lines.product_id")
		}
		if line.Quantity <= 0 {
			return apperror.NewValidation("line quantity must be positive").WithDetail("field", "lines.quantity")
		}
		if line.PriceOverride != nil && line.PriceOverride.IsNegative() {
			return apperror.NewValidation("price override cannot be negative").WithDetail("field", "lines.price")
		}
	}
	if !in.PaymentMethod.Valid() {
		return apperror.NewValidation("payment_method must be cash, card or e-wallet").WithDetail("field", "payment_method")
	}
	if in.Discount.IsNegative() {
		return apperror.NewValidation("discount cannot be negative").WithDetail("field", "discount")
	}
	if in.Tax.IsNegative() {
		return apperror.NewValidation("tax cannot be negative").WithDetail("field", "tax")
	}
	return nil
}

// Checkout finalizes a sale: locks every product in ascending id order,
// re-checks sufficiency under the lock, decrements stock per line, and
// persists the sale as COMPLETED. All lines commit or none do; any
// shortfall aborts with InsufficientStock before a single decrement is
// visible.
func (s *Service) Checkout(ctx context.Context, in CheckoutInput) (*Sale, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	number, err := s.numbers.GetNextNumber(ctx, s.numCfg, numerator.DefaultOptions(), now)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	sale := &Sale{
		ID:            id.New(),
		Number:        number,
		ReceiptNo:     receiptNumber(number),
		CustomerID:    in.CustomerID,
		Status:        StatusCompleted,
		Discount:      in.Discount,
		Tax:           in.Tax,
		PaymentMethod: in.PaymentMethod,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	lines := make([]LineInput, len(in.Lines))
	copy(lines, in.Lines)
	sort.Slice(lines, func(a, b int) bool {
		return id.Less(lines[a].ProductID, lines[b].ProductID)
	})

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		subtotal := types.Zero()
		reason := fmt.Sprintf("Sale %s", sale.Number)

		for _, line := range lines {
			p, err := s.products.GetForUpdate(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if p.Quantity < line.Quantity {
				return apperror.NewInsufficientStock(p.ID.String(), line.Quantity, p.Quantity)
			}

			price := p.Price
			if line.PriceOverride != nil {
				price = *line.PriceOverride
			}

			ref := sale.Number
			if _, err := s.engine.ApplyMovement(ctx, stock.Movement{
				ProductID: line.ProductID,
				Delta:     -line.Quantity,
				Type:      stock.EntryOut,
				Reason:    reason,
				Reference: &ref,
				Strict:    true,
			}); err != nil {
				return err
			}

			pid := line.ProductID
			lineTotal := types.MoneyFromQty(price, line.Quantity)
			sale.Items = append(sale.Items, &SaleItem{
				ID:          id.New(),
				SaleID:      sale.ID,
				ProductID:   &pid,
				ProductName: p.Name,
				Quantity:    line.Quantity,
				UnitPrice:   price,
				LineTotal:   lineTotal,
			})
			subtotal = subtotal.Add(lineTotal)
		}

		if in.Discount.GreaterThan(subtotal) {
			return apperror.NewValidation("discount cannot exceed subtotal").WithDetail("field", "discount")
		}

		sale.Subtotal = subtotal
		sale.Total = subtotal.Sub(in.Discount).Add(in.Tax)

		return s.repo.Create(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale completed",
		"id", sale.ID, "number", sale.Number, "total", sale.Total, "payment", sale.PaymentMethod)
	return sale, nil
}

// Refund reverses a COMPLETED sale: every line's quantity is restored with
// a RETURN entry referencing the sale number, then the sale flips to
// REFUNDED. Lines whose product no longer exists are skipped with a
// warning; the rest restore normally.
func (s *Service) Refund(ctx context.Context, saleID id.ID) (*Sale, error) {
	var sale *Sale

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.repo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if !sale.Status.CanTransitionTo(StatusRefunded) {
			return apperror.NewConflict(fmt.Sprintf("sale %s is %s and cannot be refunded", sale.Number, sale.Status))
		}

		items := make([]*SaleItem, len(sale.Items))
		copy(items, sale.Items)
		sort.Slice(items, func(a, b int) bool {
			switch {
			case items[a].ProductID == nil:
				return items[b].ProductID != nil
			case items[b].ProductID == nil:
				return false
			default:
				return id.Less(*items[a].ProductID, *items[b].ProductID)
			}
		})

		reason := fmt.Sprintf("Refund for sale %s", sale.Number)
		for _, item := range items {
			if item.ProductID == nil {
				logger.Warn(ctx, "refund line skipped, product deleted",
					"sale", sale.Number, "product_name", item.ProductName)
				continue
			}

			ref := sale.Number
			_, err := s.engine.ApplyMovement(ctx, stock.Movement{
				ProductID: *item.ProductID,
				Delta:     item.Quantity,
				Type:      stock.EntryReturn,
				Reason:    reason,
				Reference: &ref,
			})
			if apperror.IsNotFound(err) {
				logger.Warn(ctx, "refund line skipped, product missing",
					"sale", sale.Number, "product_id", *item.ProductID)
				continue
			}
			if err != nil {
				return err
			}
		}

		if err := s.repo.UpdateStatus(ctx, sale.ID, StatusRefunded); err != nil {
			return err
		}
		sale.Status = StatusRefunded
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale refunded", "id", sale.ID, "number", sale.Number)
	return sale, nil
}

// GetByID retrieves a sale with its items.
func (s *Service) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	return s.repo.GetByID(ctx, saleID)
}

// List retrieves sales.
func (s *Service) List(ctx context.Context, filter Filter) ([]*Sale, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}

// receiptNumber derives the printed receipt number from the sale number.
func receiptNumber(saleNumber string) string {
	return "RCT-" + strings.TrimPrefix(saleNumber, "SAL-")
}
