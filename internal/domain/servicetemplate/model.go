package servicetemplate

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/praxis/praxis/internal/domain/service"
)

// ServiceTemplate maps to the service_templates table: a platform-level
// catalog entry for a billable offering, not yet bound to any tenant. The
// core only ever reads these rows.
type ServiceTemplate struct {
	ID            int64           `db:"id" json:"id"`
	Name          string          `db:"tmpl_name" json:"name"`
	Code          string          `db:"tmpl_code" json:"code"`
	IsReport      *bool           `db:"is_report" json:"is_report,omitempty"`
	Additive      bool            `db:"additive" json:"additive"`
	SessionsCount *int            `db:"sessions_count" json:"sessions_count,omitempty"`
	FormulaType   string          `db:"formula_type" json:"formula_type,omitempty"`
	Formula       json.RawMessage `db:"tmpl_formula" json:"formula,omitempty"`
	ReportFormula json.RawMessage `db:"tmpl_report_formula" json:"report_formula,omitempty"`
	TaxRate       float64         `db:"tax_rate" json:"tax_rate"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// reportNameKeywords trigger report inference when a template carries no
// explicit flag.
var reportNameKeywords = []string{"report", "intake", "progress", "discharge"}

// InferReport resolves whether a copy of this template is a report service:
// a reserved code always wins, then the template's own flag, then a keyword
// in the name. Defaults to false.
func (t *ServiceTemplate) InferReport() bool {
	if service.IsReservedReportCode(t.Code) {
		return true
	}
	if t.IsReport != nil {
		return *t.IsReport
	}
	name := strings.ToLower(t.Name)
	for _, kw := range reportNameKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}
