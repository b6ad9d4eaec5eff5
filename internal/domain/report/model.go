package report

import (
	"time"

	"github.com/google/uuid"
)

// Report types mirror the three baseline report services.
const (
	TypeIntake    = "intake"
	TypeProgress  = "progress"
	TypeDischarge = "discharge"
)

// Report statuses.
const (
	StatusDraft = "draft"
	StatusFinal = "final"
)

// Report maps to the reports table: a clinical document a therapist writes
// for a client, tied to the report service that bills it.
type Report struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	TenantID      uuid.UUID  `db:"tenant_id" json:"tenant_id"`
	ClientID      uuid.UUID  `db:"client_id" json:"client_id"`
	TherapistID   uuid.UUID  `db:"therapist_id" json:"therapist_id"`
	ServiceID     *int64     `db:"service_id" json:"service_id,omitempty"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	Type          string     `db:"report_type" json:"type"`
	Status        string     `db:"status" json:"status"`
	Fields        Fields     `db:"fields" json:"fields"`
	FinalizedAt   *time.Time `db:"finalized_at" json:"finalized_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Fields is the free-form clinical content, stored as JSONB.
type Fields map[string]string

// requiredFields lists what each report type must carry before it can be
// finalized.
var requiredFields = map[string][]string{
	TypeIntake:    {"presenting_problem", "history", "initial_plan"},
	TypeProgress:  {"progress_note", "goals_review"},
	TypeDischarge: {"outcome_summary", "aftercare_plan"},
}

// MissingFields returns the required fields the report does not carry yet, in
// declaration order. Empty values count as missing.
func (r *Report) MissingFields() []string {
	var missing []string
	for _, f := range requiredFields[r.Type] {
		if r.Fields[f] == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// ValidType reports whether t is a known report type.
func ValidType(t string) bool {
	_, ok := requiredFields[t]
	return ok
}
