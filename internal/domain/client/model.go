package client

import (
	"time"

	"github.com/google/uuid"
)

// Intake lifecycle statuses. A client moves forward only: draft on intake,
// active once onboarded, discharged at the end of care.
const (
	StatusDraft      = "draft"
	StatusActive     = "active"
	StatusDischarged = "discharged"
)

// Client maps to the clients table: a person receiving care at a tenant
// practice.
type Client struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	TenantID     uuid.UUID  `db:"tenant_id" json:"tenant_id"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	Email        *string    `db:"email" json:"email,omitempty"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	BirthDate    *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Status       string     `db:"status" json:"status"`
	TherapistID  *uuid.UUID `db:"therapist_id" json:"therapist_id,omitempty"`
	IntakeNotes  *string    `db:"intake_notes" json:"intake_notes,omitempty"`
	ActivatedAt  *time.Time `db:"activated_at" json:"activated_at,omitempty"`
	DischargedAt *time.Time `db:"discharged_at" json:"discharged_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// validTransitions encodes the forward-only intake lifecycle.
var validTransitions = map[string][]string{
	StatusDraft:      {StatusActive},
	StatusActive:     {StatusDischarged},
	StatusDischarged: {},
}

// CanTransition reports whether a status change is allowed.
func CanTransition(from, to string) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
