package servicetemplate

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/praxis/praxis/internal/domain/form"
	"github.com/praxis/praxis/internal/domain/service"
	"github.com/praxis/praxis/internal/platform/jsonshape"
)

// defaultFormula is written when a template carries no formula at all.
var defaultFormula = []float64{7}

// OperationMetrics counts copier operations. Satisfied by
// *telemetry.TelemetryProvider; nil disables counting.
type OperationMetrics interface {
	OperationCounter(resource, operation string)
}

// CopyEntry is one template to copy in a batch, with the tenant-chosen
// tax-inclusive price.
type CopyEntry struct {
	TemplateID int64   `json:"template_service_id" validate:"required,gt=0"`
	Price      float64 `json:"price" validate:"gte=0"`
}

// CopyResult is the outcome of copying a single template.
type CopyResult struct {
	Service *service.TenantService `json:"service"`
	Forms   *form.AttachSummary    `json:"forms"`
}

// BatchError records one entry of a batch copy that failed. The rest of the
// batch proceeds.
type BatchError struct {
	TemplateID int64  `json:"template_service_id"`
	Message    string `json:"message"`
}

// FormsSummary aggregates the form updates across a whole batch. Per-entry
// detail stays on each CopyResult.
type FormsSummary struct {
	FormsUpdated int `json:"forms_updated"`
	FormErrors   int `json:"form_errors"`
}

// BatchResult is the outcome of a batch copy: what landed, what failed, and
// what the closing remap pass did.
type BatchResult struct {
	Copied []*CopyResult `json:"copied"`
	Errors []BatchError  `json:"errors"`
	Forms  FormsSummary  `json:"forms_update_summary"`
	Remap  *RemapSummary `json:"remap,omitempty"`
}

// FormImpact is the dry-run answer for one template: the active forms that
// would gain a reference when it is copied.
type FormImpact struct {
	TemplateID    int64              `json:"template_service_id"`
	AffectedForms int                `json:"affected_forms"`
	Forms         []form.ImpactEntry `json:"forms"`
}

// Service orchestrates copying catalog templates into a tenant: pricing the
// copy, provisioning baseline reports, wiring forms, and remapping report
// formulas.
type Service struct {
	templates Repository
	tenants   TenantDirectory
	services  ServiceStore
	forms     FormCatalog
	notifier  Notifier
	metrics   OperationMetrics
	logger    zerolog.Logger
}

func NewService(templates Repository, tenants TenantDirectory, services ServiceStore,
	forms FormCatalog, notifier Notifier, metrics OperationMetrics, logger zerolog.Logger) *Service {
	return &Service{
		templates: templates,
		tenants:   tenants,
		services:  services,
		forms:     forms,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger,
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*ServiceTemplate, error) {
	t, err := s.templates.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Resource: "service template", ID: strconv.FormatInt(id, 10), Cause: err}
	}
	return t, err
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*ServiceTemplate, int, error) {
	return s.templates.List(ctx, limit, offset)
}

// CopyTemplate copies one catalog template into a tenant at the given
// tax-inclusive price, then appends the new service to every active form
// that referenced the template. Form failures never roll back the copy.
func (s *Service) CopyTemplate(ctx context.Context, templateID int64, tenantID uuid.UUID, price float64) (*CopyResult, error) {
	tn, err := s.tenants.Lookup(ctx, tenantID)
	if err != nil {
		return nil, &NotFoundError{Resource: "tenant", ID: tenantID.String(), Cause: err}
	}

	tmpl, err := s.templates.GetByID(ctx, templateID)
	if err != nil {
		return nil, &NotFoundError{Resource: "service template", ID: strconv.FormatInt(templateID, 10), Cause: err}
	}

	return s.copyOne(ctx, tmpl, tn.GeneratedID, tn.TaxPercent, price)
}

func (s *Service) copyOne(ctx context.Context, tmpl *ServiceTemplate, tenantID uuid.UUID, taxPercent, price float64) (*CopyResult, error) {
	if price < 0 {
		return nil, &ValidationError{Field: "price", Reason: "must not be negative"}
	}

	svc := s.buildService(tmpl, tenantID, taxPercent, price)
	if err := s.services.Create(ctx, svc); err != nil {
		return nil, &PersistenceError{Op: "create service", Cause: err}
	}
	if s.metrics != nil {
		s.metrics.OperationCounter("service", "copy")
	}

	forms, err := s.forms.AttachServiceToForms(ctx, tmpl.ID, svc.ID)
	if err != nil {
		// The service row is already committed; the forms pass is advisory.
		s.logger.Error().Err(err).Int64("template_id", tmpl.ID).Int64("service_id", svc.ID).
			Msg("form attachment pass failed")
		forms = &form.AttachSummary{Errors: []form.AttachError{{Message: err.Error()}}}
	}

	return &CopyResult{Service: svc, Forms: forms}, nil
}

// buildService projects a template into a tenant service. The stored price is
// tax-inclusive: gst is derived from the tenant's tax rate and added on top.
func (s *Service) buildService(tmpl *ServiceTemplate, tenantID uuid.UUID, taxPercent, price float64) *service.TenantService {
	gst := price * taxPercent / 100
	templateID := tmpl.ID

	svc := &service.TenantService{
		TenantID:      tenantID,
		TemplateID:    &templateID,
		Name:          tmpl.Name,
		Code:          tmpl.Code,
		Report:        tmpl.InferReport(),
		Additive:      tmpl.Additive,
		SessionsCount: 1,
		FormulaType:   service.FormulaTypeSingle,
		TotalInvoice:  price + gst,
		GST:           gst,
	}
	if tmpl.SessionsCount != nil && *tmpl.SessionsCount > 0 {
		svc.SessionsCount = *tmpl.SessionsCount
	}
	if tmpl.FormulaType == service.FormulaTypeDistributed {
		svc.FormulaType = service.FormulaTypeDistributed
	}

	formula := jsonshape.ParseFloatList(tmpl.Formula)
	switch {
	case formula.Fallback:
		s.logger.Warn().Int64("template_id", tmpl.ID).
			Msg("template formula unparseable, copied as empty")
		svc.Formula = []float64{}
	case len(formula.Values) == 0:
		svc.Formula = append([]float64(nil), defaultFormula...)
	default:
		svc.Formula = formula.Values
	}

	rf := jsonshape.ParseReportFormula(tmpl.ReportFormula)
	if rf.Fallback {
		s.logger.Warn().Int64("template_id", tmpl.ID).
			Msg("template report formula unparseable, copied as empty")
	}
	svc.ReportFormula = rf.Value

	return svc
}

// CopyTemplates copies a batch of templates into a tenant. Report templates
// land before non-report ones so the closing remap pass can resolve against
// them; when the batch carries no report templates the tenant's baseline
// reports are provisioned first. Each entry fails independently.
func (s *Service) CopyTemplates(ctx context.Context, tenantID uuid.UUID, entries []CopyEntry) (*BatchResult, error) {
	if len(entries) == 0 {
		return nil, &ValidationError{Field: "service_templates", Reason: "must not be empty"}
	}

	tn, err := s.tenants.Lookup(ctx, tenantID)
	if err != nil {
		return nil, &NotFoundError{Resource: "tenant", ID: tenantID.String(), Cause: err}
	}

	result := &BatchResult{}

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.TemplateID)
	}
	found, err := s.templates.GetByIDs(ctx, ids)
	if err != nil {
		return nil, &PersistenceError{Op: "load templates", Cause: err}
	}
	byID := make(map[int64]*ServiceTemplate, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}

	var reports, others []CopyEntry
	for _, e := range entries {
		tmpl, ok := byID[e.TemplateID]
		if !ok {
			result.Errors = append(result.Errors, BatchError{
				TemplateID: e.TemplateID,
				Message:    fmt.Sprintf("service template %d not found", e.TemplateID),
			})
			continue
		}
		if tmpl.InferReport() {
			reports = append(reports, e)
		} else {
			others = append(others, e)
		}
	}

	// A batch with no report templates still needs the baseline reports in
	// place before anything can point at them.
	if len(reports) == 0 {
		if err := s.ensureReportServices(ctx, tn.GeneratedID, tn.TaxPercent); err != nil {
			s.logger.Error().Err(err).Str("tenant_id", tenantID.String()).
				Msg("baseline report provisioning failed")
		}
	}

	for _, e := range append(reports, others...) {
		res, err := s.copyOne(ctx, byID[e.TemplateID], tn.GeneratedID, tn.TaxPercent, e.Price)
		if err != nil {
			result.Errors = append(result.Errors, BatchError{TemplateID: e.TemplateID, Message: err.Error()})
			continue
		}
		result.Copied = append(result.Copied, res)
		if res.Forms != nil {
			result.Forms.FormsUpdated += res.Forms.Changed()
			result.Forms.FormErrors += len(res.Forms.Errors)
		}
	}

	remap, err := s.RemapReportFormulas(ctx, tn.GeneratedID)
	if err != nil {
		s.logger.Error().Err(err).Str("tenant_id", tenantID.String()).Msg("report formula remap failed")
	} else {
		result.Remap = remap
	}

	if s.notifier != nil {
		s.notifier.BatchCopyCompleted(ctx, tenantID, len(result.Copied), len(result.Errors))
	}

	return result, nil
}

// ensureReportServices upserts the three baseline report services for a
// tenant. When the catalog holds a template under the reserved code the copy
// follows it; otherwise a bare service is synthesized. Concurrent batches
// racing here converge on one row per code.
func (s *Service) ensureReportServices(ctx context.Context, tenantID uuid.UUID, taxPercent float64) error {
	names := map[string]string{
		service.CodeIntakeReport:    "Intake Report",
		service.CodeProgressReport:  "Progress Report",
		service.CodeDischargeReport: "Discharge Report",
	}

	for _, code := range service.ReservedReportCodes() {
		svc := &service.TenantService{
			TenantID:      tenantID,
			Name:          names[code],
			Code:          code,
			Report:        true,
			SessionsCount: 1,
			FormulaType:   service.FormulaTypeSingle,
			Formula:       []float64{},
		}

		tmpl, err := s.templates.GetByCode(ctx, code)
		if err == nil {
			built := s.buildService(tmpl, tenantID, taxPercent, 0)
			built.Code = code
			built.Report = true
			svc = built
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("lookup template for %s: %w", code, err)
		}

		id, created, err := s.services.UpsertBaselineReport(ctx, svc)
		if err != nil {
			return fmt.Errorf("provision %s: %w", code, err)
		}
		if created {
			s.logger.Info().Str("code", code).Int64("service_id", id).
				Str("tenant_id", tenantID.String()).Msg("baseline report service provisioned")
		}
	}
	return nil
}

// CheckFormsAffected reports which active forms would gain a reference if the
// template were copied, without copying anything.
func (s *Service) CheckFormsAffected(ctx context.Context, templateID int64) (*FormImpact, error) {
	if _, err := s.templates.GetByID(ctx, templateID); err != nil {
		return nil, &NotFoundError{Resource: "service template", ID: strconv.FormatInt(templateID, 10), Cause: err}
	}
	entries, err := s.forms.PreviewAffectedForms(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return &FormImpact{TemplateID: templateID, AffectedForms: len(entries), Forms: entries}, nil
}
