package service

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/praxis/praxis/internal/platform/jsonshape"
)

// Formula types a service can carry.
const (
	FormulaTypeSingle      = "single"
	FormulaTypeDistributed = "distributed"
)

// Reserved codes for the three baseline clinical report deliverables. A
// service with one of these codes is a report service no matter what the row
// or its source template says.
const (
	CodeIntakeReport    = "IR"
	CodeProgressReport  = "PR"
	CodeDischargeReport = "DR"
)

var reservedReportCodes = map[string]bool{
	CodeIntakeReport:    true,
	CodeProgressReport:  true,
	CodeDischargeReport: true,
}

// IsReservedReportCode reports whether code is one of the baseline report
// codes (case-insensitive).
func IsReservedReportCode(code string) bool {
	return reservedReportCodes[strings.ToUpper(strings.TrimSpace(code))]
}

// ReservedReportCodes returns the three baseline report codes in their
// canonical order.
func ReservedReportCodes() []string {
	return []string{CodeIntakeReport, CodeProgressReport, CodeDischargeReport}
}

// TenantService maps to the service table: a tenant-owned, billable copy of a
// catalog template.
type TenantService struct {
	ID            int64                   `db:"id" json:"id"`
	TenantID      uuid.UUID               `db:"tenant_id" json:"tenant_id"`
	TemplateID    *int64                  `db:"template_id" json:"template_id,omitempty"`
	Name          string                  `db:"svc_name" json:"name"`
	Code          string                  `db:"svc_code" json:"code"`
	Report        bool                    `db:"report" json:"report"`
	Additive      bool                    `db:"additive" json:"additive"`
	SessionsCount int                     `db:"sessions_count" json:"sessions_count"`
	FormulaType   string                  `db:"formula_type" json:"formula_type"`
	Formula       []float64               `db:"svc_formula" json:"formula"`
	ReportFormula jsonshape.ReportFormula `db:"svc_report_formula" json:"report_formula"`
	TotalInvoice  float64                 `db:"total_invoice" json:"total_invoice"`
	GST           float64                 `db:"gst" json:"gst"`
	CreatedAt     time.Time               `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time               `db:"updated_at" json:"updated_at"`
}
