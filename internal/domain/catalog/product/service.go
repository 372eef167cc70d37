package product

import (
	"context"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/domain"
	"retailcore/pkg/logger"
)

// Service provides catalog operations for products.
// Stock quantity is out of reach here; only the stock engine mutates it.
type Service struct {
	repo Repository
}

// NewService creates a new product catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create adds a new product to the catalog.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	exists, err := s.repo.ExistsBySKU(ctx, p.SKU)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicate("product", "sku", p.SKU)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}

	logger.Info(ctx, "product created", "id", p.ID, "sku", p.SKU)
	return nil
}

// GetByID retrieves a product.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// GetBySKU retrieves a product by its stock-keeping identifier.
func (s *Service) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	return s.repo.GetBySKU(ctx, sku)
}

// Update persists catalog fields. The stored quantity wins over whatever
// the caller put in the struct.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	current, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	p.Quantity = current.Quantity
	p.Touch()

	return s.repo.Update(ctx, p)
}

// SetActive activates or deactivates a product.
func (s *Service) SetActive(ctx context.Context, productID id.ID, active bool) error {
	if _, err := s.repo.GetByID(ctx, productID); err != nil {
		return err
	}
	return s.repo.SetActive(ctx, productID, active)
}

// List retrieves products with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error) {
	return s.repo.List(ctx, filter)
}

// FindLowStock returns the low-stock alert set.
func (s *Service) FindLowStock(ctx context.Context) ([]*Product, error) {
	return s.repo.FindLowStock(ctx)
}
