package form

import (
	"time"
)

// Form statuses.
const (
	StatusActive   = "active"
	StatusDraft    = "draft"
	StatusArchived = "archived"
)

// Form maps to the forms table: a reusable clinical questionnaire bound to a
// set of services through svc_ids.
type Form struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"form_name" json:"name"`
	Status    string    `db:"status" json:"status"`
	FormType  string    `db:"form_type" json:"form_type"`
	SvcIDs    []int64   `db:"svc_ids" json:"svc_ids"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// SvcIDsDegraded is set when the stored svc_ids could not be parsed and
	// was normalized to empty. Not persisted.
	SvcIDsDegraded bool `db:"-" json:"-"`
}

// HasService reports whether id is already referenced by the form.
func (f *Form) HasService(id int64) bool {
	for _, v := range f.SvcIDs {
		if v == id {
			return true
		}
	}
	return false
}
