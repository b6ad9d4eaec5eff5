package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	appointments Repository
	logger       zerolog.Logger
}

func NewService(r Repository, logger zerolog.Logger) *Service {
	return &Service{appointments: r, logger: logger}
}

// Book schedules an appointment after checking the therapist's calendar for
// overlap. Cancelled slots do not block rebooking.
func (s *Service) Book(ctx context.Context, a *Appointment) error {
	if a.TenantID == uuid.Nil || a.ClientID == uuid.Nil || a.TherapistID == uuid.Nil {
		return fmt.Errorf("tenant_id, client_id and therapist_id are required")
	}
	if !a.EndsAt.After(a.StartsAt) {
		return fmt.Errorf("ends_at must be after starts_at")
	}

	existing, err := s.appointments.ListByTherapist(ctx, a.TherapistID, a.StartsAt, a.EndsAt)
	if err != nil {
		return fmt.Errorf("check therapist calendar: %w", err)
	}
	for _, e := range existing {
		if e.ID != a.ID && e.Overlaps(a.StartsAt, a.EndsAt) {
			return fmt.Errorf("therapist already booked from %s to %s",
				e.StartsAt.Format(time.RFC3339), e.EndsAt.Format(time.RFC3339))
		}
	}

	a.Status = StatusScheduled
	return s.appointments.Create(ctx, a)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) ListByTenant(ctx context.Context, tenantID uuid.UUID, from, to time.Time, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByTenant(ctx, tenantID, from, to, limit, offset)
}

// Reschedule moves a scheduled appointment, re-running the conflict check.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, startsAt, endsAt time.Time) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusScheduled {
		return nil, fmt.Errorf("only scheduled appointments can be rescheduled")
	}
	if !endsAt.After(startsAt) {
		return nil, fmt.Errorf("ends_at must be after starts_at")
	}

	existing, err := s.appointments.ListByTherapist(ctx, a.TherapistID, startsAt, endsAt)
	if err != nil {
		return nil, fmt.Errorf("check therapist calendar: %w", err)
	}
	for _, e := range existing {
		if e.ID != a.ID && e.Overlaps(startsAt, endsAt) {
			return nil, fmt.Errorf("therapist already booked in that slot")
		}
	}

	a.StartsAt = startsAt
	a.EndsAt = endsAt
	a.ReminderSent = false
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.close(ctx, id, StatusCompleted)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.close(ctx, id, StatusCancelled)
}

func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.close(ctx, id, StatusNoShow)
}

func (s *Service) close(ctx context.Context, id uuid.UUID, status string) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusScheduled {
		return nil, fmt.Errorf("appointment is already %s", a.Status)
	}
	a.Status = status
	if status == StatusCancelled {
		now := time.Now().UTC()
		a.CancelledAt = &now
	}
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info().Str("appointment_id", id.String()).Str("status", status).Msg("appointment closed")
	return a, nil
}
