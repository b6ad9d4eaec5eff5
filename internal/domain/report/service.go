package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	reports Repository
	logger  zerolog.Logger
}

func NewService(r Repository, logger zerolog.Logger) *Service {
	return &Service{reports: r, logger: logger}
}

// Create opens a draft report. Content can arrive incrementally; required
// fields are enforced at finalization.
func (s *Service) Create(ctx context.Context, r *Report) error {
	if r.TenantID == uuid.Nil || r.ClientID == uuid.Nil || r.TherapistID == uuid.Nil {
		return fmt.Errorf("tenant_id, client_id and therapist_id are required")
	}
	if !ValidType(r.Type) {
		return fmt.Errorf("invalid report type: %s", r.Type)
	}
	r.Status = StatusDraft
	if r.Fields == nil {
		r.Fields = Fields{}
	}
	return s.reports.Create(ctx, r)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Report, error) {
	return s.reports.GetByID(ctx, id)
}

// Update merges new field content into a draft. Final reports are immutable.
func (s *Service) Update(ctx context.Context, id uuid.UUID, fields Fields) (*Report, error) {
	r, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status == StatusFinal {
		return nil, fmt.Errorf("final reports cannot be edited")
	}
	for k, v := range fields {
		r.Fields[k] = v
	}
	if err := s.reports.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Finalize locks a report once every field its type requires is filled in.
func (s *Service) Finalize(ctx context.Context, id uuid.UUID) (*Report, error) {
	r, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status == StatusFinal {
		return r, nil
	}
	if missing := r.MissingFields(); len(missing) > 0 {
		return nil, fmt.Errorf("%s report is missing: %s", r.Type, strings.Join(missing, ", "))
	}

	now := time.Now().UTC()
	r.Status = StatusFinal
	r.FinalizedAt = &now
	if err := s.reports.Update(ctx, r); err != nil {
		return nil, err
	}
	s.logger.Info().Str("report_id", id.String()).Str("type", r.Type).Msg("report finalized")
	return r, nil
}

func (s *Service) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Report, int, error) {
	return s.reports.ListByClient(ctx, clientID, limit, offset)
}
