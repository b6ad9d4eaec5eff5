package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/praxis/praxis/internal/platform/jsonshape"
)

type Repository interface {
	Create(ctx context.Context, s *TenantService) error
	GetByID(ctx context.Context, id int64) (*TenantService, error)
	Update(ctx context.Context, s *TenantService) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*TenantService, int, error)
	// ListReportsByTenant returns the tenant's report services ordered by
	// creation time, the order the remapper uses for positional matching.
	ListReportsByTenant(ctx context.Context, tenantID uuid.UUID) ([]*TenantService, error)
	ListNonReportsByTenant(ctx context.Context, tenantID uuid.UUID) ([]*TenantService, error)
	UpdateReportFormula(ctx context.Context, id int64, f jsonshape.ReportFormula) error
	// UpsertReportByCode inserts a report service unless the tenant already
	// has one with the same code. Returns the row id and whether a row was
	// actually created.
	UpsertReportByCode(ctx context.Context, s *TenantService) (int64, bool, error)
}
