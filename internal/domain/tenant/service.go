package tenant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	tenants Repository
}

func NewService(r Repository) *Service {
	return &Service{tenants: r}
}

func (s *Service) Create(ctx context.Context, t *Tenant) error {
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	if t.TaxPercent < 0 {
		return fmt.Errorf("tax_percent must not be negative")
	}
	if t.AdminFee < 0 {
		return fmt.Errorf("admin_fee must not be negative")
	}
	t.Active = true
	return s.tenants.Create(ctx, t)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	return s.tenants.GetByID(ctx, id)
}

// Lookup returns the billing projection the template copier needs.
func (s *Service) Lookup(ctx context.Context, id uuid.UUID) (*Info, error) {
	t, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	info := t.Info()
	return &info, nil
}

func (s *Service) Update(ctx context.Context, t *Tenant) error {
	if t.TaxPercent < 0 {
		return fmt.Errorf("tax_percent must not be negative")
	}
	return s.tenants.Update(ctx, t)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Tenant, int, error) {
	return s.tenants.List(ctx, limit, offset)
}
