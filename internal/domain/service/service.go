package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/praxis/praxis/internal/platform/jsonshape"
)

type Service struct {
	services Repository
}

func NewService(r Repository) *Service {
	return &Service{services: r}
}

func (s *Service) Create(ctx context.Context, svc *TenantService) error {
	if svc.TenantID == uuid.Nil {
		return fmt.Errorf("tenant_id is required")
	}
	if svc.Name == "" {
		return fmt.Errorf("name is required")
	}
	if svc.TotalInvoice < 0 {
		return fmt.Errorf("total_invoice must not be negative")
	}
	// Reserved report codes are report services no matter what the caller says.
	if IsReservedReportCode(svc.Code) {
		svc.Report = true
	}
	if svc.SessionsCount <= 0 {
		svc.SessionsCount = 1
	}
	if svc.FormulaType == "" {
		svc.FormulaType = FormulaTypeSingle
	}
	if svc.FormulaType != FormulaTypeSingle && svc.FormulaType != FormulaTypeDistributed {
		return fmt.Errorf("invalid formula_type: %s", svc.FormulaType)
	}
	return s.services.Create(ctx, svc)
}

func (s *Service) Get(ctx context.Context, id int64) (*TenantService, error) {
	return s.services.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, svc *TenantService) error {
	if IsReservedReportCode(svc.Code) {
		svc.Report = true
	}
	if svc.FormulaType != FormulaTypeSingle && svc.FormulaType != FormulaTypeDistributed {
		return fmt.Errorf("invalid formula_type: %s", svc.FormulaType)
	}
	return s.services.Update(ctx, svc)
}

func (s *Service) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*TenantService, int, error) {
	return s.services.ListByTenant(ctx, tenantID, limit, offset)
}

// ReportServices returns the tenant's report services in creation order.
func (s *Service) ReportServices(ctx context.Context, tenantID uuid.UUID) ([]*TenantService, error) {
	return s.services.ListReportsByTenant(ctx, tenantID)
}

// RemapCandidates returns the tenant's non-report services that carry a
// non-empty report formula.
func (s *Service) RemapCandidates(ctx context.Context, tenantID uuid.UUID) ([]*TenantService, error) {
	all, err := s.services.ListNonReportsByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var out []*TenantService
	for _, svc := range all {
		if !svc.ReportFormula.IsEmpty() {
			out = append(out, svc)
		}
	}
	return out, nil
}

func (s *Service) UpdateReportFormula(ctx context.Context, id int64, f jsonshape.ReportFormula) error {
	return s.services.UpdateReportFormula(ctx, id, f)
}

// UpsertBaselineReport inserts a report service unless one with the same code
// already exists for the tenant.
func (s *Service) UpsertBaselineReport(ctx context.Context, svc *TenantService) (int64, bool, error) {
	if svc.TenantID == uuid.Nil {
		return 0, false, fmt.Errorf("tenant_id is required")
	}
	if !IsReservedReportCode(svc.Code) {
		return 0, false, fmt.Errorf("code %q is not a baseline report code", svc.Code)
	}
	svc.Report = true
	if svc.SessionsCount <= 0 {
		svc.SessionsCount = 1
	}
	if svc.FormulaType == "" {
		svc.FormulaType = FormulaTypeSingle
	}
	return s.services.UpsertReportByCode(ctx, svc)
}
