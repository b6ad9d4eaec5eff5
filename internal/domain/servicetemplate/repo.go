package servicetemplate

import (
	"context"

	"github.com/google/uuid"

	"github.com/praxis/praxis/internal/domain/form"
	"github.com/praxis/praxis/internal/domain/service"
	"github.com/praxis/praxis/internal/domain/tenant"
	"github.com/praxis/praxis/internal/platform/jsonshape"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*ServiceTemplate, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*ServiceTemplate, error)
	GetByCode(ctx context.Context, code string) (*ServiceTemplate, error)
	List(ctx context.Context, limit, offset int) ([]*ServiceTemplate, int, error)
}

// TenantDirectory resolves the tenant a copy targets. Satisfied by
// tenant.Service.
type TenantDirectory interface {
	Lookup(ctx context.Context, id uuid.UUID) (*tenant.Info, error)
}

// ServiceStore is the slice of the service domain the copier and remapper
// drive. Satisfied by service.Service.
type ServiceStore interface {
	Create(ctx context.Context, svc *service.TenantService) error
	ReportServices(ctx context.Context, tenantID uuid.UUID) ([]*service.TenantService, error)
	RemapCandidates(ctx context.Context, tenantID uuid.UUID) ([]*service.TenantService, error)
	UpdateReportFormula(ctx context.Context, id int64, f jsonshape.ReportFormula) error
	UpsertBaselineReport(ctx context.Context, svc *service.TenantService) (int64, bool, error)
}

// FormCatalog is the slice of the form domain the copier drives. Satisfied by
// form.Service.
type FormCatalog interface {
	AttachServiceToForms(ctx context.Context, templateID, newServiceID int64) (*form.AttachSummary, error)
	PreviewAffectedForms(ctx context.Context, templateID int64) ([]form.ImpactEntry, error)
}

// Notifier is told when a batch copy finishes so the tenant can be emailed a
// summary. Best-effort: failures are logged, never surfaced.
type Notifier interface {
	BatchCopyCompleted(ctx context.Context, tenantID uuid.UUID, copied, failed int)
}
