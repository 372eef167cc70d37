// Package supplier provides the supplier catalog referenced by purchase orders.
package supplier

import (
	"context"
	"time"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/domain"
)

// Supplier represents a goods supplier.
type Supplier struct {
	ID        id.ID     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Contact   *string   `db:"contact" json:"contact,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Address   *string   `db:"address" json:"address,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// New creates a supplier with generated ID.
func New(name string) *Supplier {
	return &Supplier{
		ID:        id.New(),
		Name:      name,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks supplier invariants.
func (s *Supplier) Validate(ctx context.Context) error {
	if s.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	return nil
}

// Repository defines persistence operations for suppliers.
type Repository interface {
	Create(ctx context.Context, s *Supplier) error
	GetByID(ctx context.Context, supplierID id.ID) (*Supplier, error)
	Update(ctx context.Context, s *Supplier) error
	SetActive(ctx context.Context, supplierID id.ID, active bool) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Supplier], error)
}

// Service provides supplier catalog operations.
type Service struct {
	repo Repository
}

// NewService creates a new supplier service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create adds a supplier.
func (s *Service) Create(ctx context.Context, sup *Supplier) error {
	if err := sup.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Create(ctx, sup)
}

// GetByID retrieves a supplier.
func (s *Service) GetByID(ctx context.Context, supplierID id.ID) (*Supplier, error) {
	return s.repo.GetByID(ctx, supplierID)
}

// Update persists supplier changes.
func (s *Service) Update(ctx context.Context, sup *Supplier) error {
	if err := sup.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Update(ctx, sup)
}

// SetActive activates or deactivates a supplier.
func (s *Service) SetActive(ctx context.Context, supplierID id.ID, active bool) error {
	return s.repo.SetActive(ctx, supplierID, active)
}

// List retrieves suppliers.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Supplier], error) {
	return s.repo.List(ctx, filter)
}
