package tenant

import (
	"time"

	"github.com/google/uuid"
)

// Tenant maps to the tenant table: one row per therapy practice.
type Tenant struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Email      *string   `db:"email" json:"email,omitempty"`
	TaxPercent float64   `db:"tax_percent" json:"tax_percent"`
	AdminFee   float64   `db:"admin_fee" json:"admin_fee"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Info is the read-side projection the service-template copier consumes.
type Info struct {
	GeneratedID uuid.UUID `json:"tenant_generated_id"`
	TaxPercent  float64   `json:"tax_percent"`
	AdminFee    float64   `json:"admin_fee"`
}

// Info returns the copier projection of the tenant.
func (t *Tenant) Info() Info {
	return Info{GeneratedID: t.ID, TaxPercent: t.TaxPercent, AdminFee: t.AdminFee}
}
