package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxis/praxis/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const cols = `id, tenant_id, client_id, therapist_id, service_id, starts_at, ends_at,
	status, notes, reminder_sent, cancelled_at, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.TenantID, &a.ClientID, &a.TherapistID, &a.ServiceID,
		&a.StartsAt, &a.EndsAt, &a.Status, &a.Notes, &a.ReminderSent,
		&a.CancelledAt, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func collect(rows pgx.Rows) ([]*Appointment, error) {
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointments (id, tenant_id, client_id, therapist_id, service_id,
			starts_at, ends_at, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.TenantID, a.ClientID, a.TherapistID, a.ServiceID,
		a.StartsAt, a.EndsAt, a.Status, a.Notes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM appointments WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET client_id=$2, therapist_id=$3, service_id=$4, starts_at=$5,
			ends_at=$6, status=$7, notes=$8, reminder_sent=$9, cancelled_at=$10, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.ClientID, a.TherapistID, a.ServiceID, a.StartsAt, a.EndsAt,
		a.Status, a.Notes, a.ReminderSent, a.CancelledAt)
	return err
}

func (r *repoPG) ListByTenant(ctx context.Context, tenantID uuid.UUID, from, to time.Time, limit, offset int) ([]*Appointment, int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM appointments
		WHERE tenant_id = $1 AND starts_at >= $2 AND starts_at < $3`,
		tenantID, from, to).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM appointments
		WHERE tenant_id = $1 AND starts_at >= $2 AND starts_at < $3
		ORDER BY starts_at LIMIT $4 OFFSET $5`,
		tenantID, from, to, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := collect(rows)
	return items, total, err
}

func (r *repoPG) ListByTherapist(ctx context.Context, therapistID uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM appointments
		WHERE therapist_id = $1 AND status = $2 AND starts_at < $4 AND ends_at > $3
		ORDER BY starts_at`,
		therapistID, StatusScheduled, from, to)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *repoPG) ListDueReminders(ctx context.Context, now time.Time, window time.Duration) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM appointments
		WHERE status = $1 AND reminder_sent = FALSE AND starts_at >= $2 AND starts_at < $3
		ORDER BY starts_at`,
		StatusScheduled, now, now.Add(window))
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *repoPG) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointments SET reminder_sent = TRUE, updated_at = NOW() WHERE id = $1`, id)
	return err
}
