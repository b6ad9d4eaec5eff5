package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID, from, to time.Time, limit, offset int) ([]*Appointment, int, error)
	// ListByTherapist returns the therapist's scheduled appointments touching
	// the [from, to) window, for conflict checks.
	ListByTherapist(ctx context.Context, therapistID uuid.UUID, from, to time.Time) ([]*Appointment, error)
	// ListDueReminders returns scheduled appointments starting inside
	// [now, now+window) whose reminder has not gone out yet.
	ListDueReminders(ctx context.Context, now time.Time, window time.Duration) ([]*Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) error
}
