package servicetemplate

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/praxis/praxis/internal/domain/service"
	"github.com/praxis/praxis/internal/platform/jsonshape"
)

// RemapSummary counts what one remap pass did across a tenant.
type RemapSummary struct {
	Scanned    int `json:"scanned"`
	Updated    int `json:"updated"`
	Fallbacks  int `json:"fallbacks"`
	Unresolved int `json:"unresolved"`
}

// RemapReportFormulas rewrites every non-report service's report formula so
// its service ids point at the tenant's own report services instead of the
// catalog templates the formula was copied with.
//
// Each id resolves by code first: the template it names is looked up and
// matched against the tenant's report services by code. When the template
// has no code match, the id falls back to the report service at the same
// position in creation order. An id that names no known template is left
// untouched, which also makes the pass idempotent: ids already pointing at
// tenant services resolve to no template and stay as they are.
func (s *Service) RemapReportFormulas(ctx context.Context, tenantID uuid.UUID) (*RemapSummary, error) {
	targets, err := s.services.ReportServices(ctx, tenantID)
	if err != nil {
		return nil, &PersistenceError{Op: "list report services", Cause: err}
	}
	byCode := make(map[string]int64, len(targets))
	for _, t := range targets {
		code := strings.ToUpper(strings.TrimSpace(t.Code))
		if code == "" {
			continue
		}
		if _, ok := byCode[code]; !ok {
			byCode[code] = t.ID
		}
	}

	candidates, err := s.services.RemapCandidates(ctx, tenantID)
	if err != nil {
		return nil, &PersistenceError{Op: "list remap candidates", Cause: err}
	}

	summary := &RemapSummary{Scanned: len(candidates)}
	for _, svc := range candidates {
		mapped, changed := s.remapFormula(ctx, svc.ReportFormula, targets, byCode, summary)
		if !changed {
			continue
		}
		if err := s.services.UpdateReportFormula(ctx, svc.ID, mapped); err != nil {
			s.logger.Error().Err(err).Int64("service_id", svc.ID).
				Msg("report formula update failed")
			continue
		}
		summary.Updated++
	}
	return summary, nil
}

func (s *Service) remapFormula(ctx context.Context, f jsonshape.ReportFormula,
	targets []*service.TenantService, byCode map[string]int64, summary *RemapSummary) (jsonshape.ReportFormula, bool) {

	mapped := jsonshape.ReportFormula{
		Position:  append([]int64(nil), f.Position...),
		ServiceID: make([]int64, 0, len(f.ServiceID)),
	}
	changed := false

	for i, id := range f.ServiceID {
		tmpl, err := s.templates.GetByID(ctx, id)
		if err != nil {
			// Not a template id; already remapped or stale. Leave it alone.
			mapped.ServiceID = append(mapped.ServiceID, id)
			continue
		}

		if target, ok := byCode[strings.ToUpper(strings.TrimSpace(tmpl.Code))]; ok {
			if s.metrics != nil {
				s.metrics.OperationCounter("report_formula", "code_match")
			}
			mapped.ServiceID = append(mapped.ServiceID, target)
			changed = changed || target != id
			continue
		}

		if i < len(targets) {
			s.logger.Warn().Int64("template_id", id).Int("position", i).
				Int64("target_id", targets[i].ID).
				Msg("report formula id resolved by position, no code match")
			if s.metrics != nil {
				s.metrics.OperationCounter("report_formula", "positional_fallback")
			}
			summary.Fallbacks++
			mapped.ServiceID = append(mapped.ServiceID, targets[i].ID)
			changed = changed || targets[i].ID != id
			continue
		}

		s.logger.Warn().Int64("template_id", id).Int("position", i).
			Msg("report formula id unresolved, kept as-is")
		if s.metrics != nil {
			s.metrics.OperationCounter("report_formula", "unresolved")
		}
		summary.Unresolved++
		mapped.ServiceID = append(mapped.ServiceID, id)
	}

	return mapped, changed
}
