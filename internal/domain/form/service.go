package form

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Attachment records one form that gained a reference to a newly copied
// service.
type Attachment struct {
	FormID    int64   `json:"form_id"`
	OldSvcIDs []int64 `json:"old_svc_ids"`
	NewSvcIDs []int64 `json:"new_svc_ids"`
}

// AttachError records a form the referencer could not update. One bad form
// never aborts the scan.
type AttachError struct {
	FormID  int64  `json:"form_id"`
	Message string `json:"message"`
}

// AttachSummary is the outcome of one referencer pass.
type AttachSummary struct {
	Attachments []Attachment  `json:"attachments"`
	Errors      []AttachError `json:"errors"`
}

// Changed returns the number of forms actually updated.
func (s *AttachSummary) Changed() int { return len(s.Attachments) }

// ImpactEntry describes one form that references a template, used for the
// pre-copy dry run.
type ImpactEntry struct {
	FormID    int64   `json:"form_id"`
	Name      string  `json:"name"`
	OldSvcIDs []int64 `json:"old_svc_ids"`
}

type Service struct {
	forms  Repository
	logger zerolog.Logger
}

func NewService(r Repository, logger zerolog.Logger) *Service {
	return &Service{forms: r, logger: logger}
}

func (s *Service) Create(ctx context.Context, f *Form) error {
	if f.Name == "" {
		return fmt.Errorf("name is required")
	}
	if f.Status == "" {
		f.Status = StatusDraft
	}
	if f.Status != StatusActive && f.Status != StatusDraft && f.Status != StatusArchived {
		return fmt.Errorf("invalid status: %s", f.Status)
	}
	return s.forms.Create(ctx, f)
}

func (s *Service) Get(ctx context.Context, id int64) (*Form, error) {
	return s.forms.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, f *Form) error {
	if f.Status != StatusActive && f.Status != StatusDraft && f.Status != StatusArchived {
		return fmt.Errorf("invalid status: %s", f.Status)
	}
	return s.forms.Update(ctx, f)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Form, int, error) {
	return s.forms.List(ctx, limit, offset)
}

// AttachServiceToForms appends newServiceID to every active form whose
// svc_ids references templateID. The append is idempotent: a form already
// holding newServiceID is left alone. Forms that fail to persist are
// collected, not fatal.
func (s *Service) AttachServiceToForms(ctx context.Context, templateID, newServiceID int64) (*AttachSummary, error) {
	forms, err := s.forms.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active forms: %w", err)
	}

	summary := &AttachSummary{}
	for _, f := range forms {
		if f.SvcIDsDegraded {
			s.logger.Warn().Int64("form_id", f.ID).
				Msg("svc_ids unparseable, treated as empty")
		}
		if !f.HasService(templateID) || f.HasService(newServiceID) {
			continue
		}

		oldIDs := append([]int64(nil), f.SvcIDs...)
		newIDs := append(oldIDs, newServiceID)
		if err := s.forms.UpdateSvcIDs(ctx, f.ID, newIDs); err != nil {
			s.logger.Error().Err(err).Int64("form_id", f.ID).Msg("form svc_ids update failed")
			summary.Errors = append(summary.Errors, AttachError{FormID: f.ID, Message: err.Error()})
			continue
		}
		summary.Attachments = append(summary.Attachments, Attachment{
			FormID:    f.ID,
			OldSvcIDs: oldIDs,
			NewSvcIDs: newIDs,
		})
	}
	return summary, nil
}

// PreviewAffectedForms is the read-only variant of AttachServiceToForms: it
// reports which active forms reference templateID without touching them.
func (s *Service) PreviewAffectedForms(ctx context.Context, templateID int64) ([]ImpactEntry, error) {
	forms, err := s.forms.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active forms: %w", err)
	}

	var entries []ImpactEntry
	for _, f := range forms {
		if !f.HasService(templateID) {
			continue
		}
		entries = append(entries, ImpactEntry{
			FormID:    f.ID,
			Name:      f.Name,
			OldSvcIDs: append([]int64(nil), f.SvcIDs...),
		})
	}
	return entries, nil
}
