package report

import (
	"context"
	"encoding/json"

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

const cols = `id, tenant_id, client_id, therapist_id, service_id, appointment_id,
	report_type, status, fields, finalized_at, created_at, updated_at`

func scanReport(row pgx.Row) (*Report, error) {
	var rep Report
	var fields []byte
	err := row.Scan(&rep.ID, &rep.TenantID, &rep.ClientID, &rep.TherapistID,
		&rep.ServiceID, &rep.AppointmentID, &rep.Type, &rep.Status, &fields,
		&rep.FinalizedAt, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rep.Fields = Fields{}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &rep.Fields); err != nil {
			return nil, err
		}
	}
	return &rep, nil
}

func (r *repoPG) Create(ctx context.Context, rep *Report) error {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	fields, err := json.Marshal(rep.Fields)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO reports (id, tenant_id, client_id, therapist_id, service_id,
			appointment_id, report_type, status, fields)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		rep.ID, rep.TenantID, rep.ClientID, rep.TherapistID, rep.ServiceID,
		rep.AppointmentID, rep.Type, rep.Status, fields)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	return scanReport(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM reports WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, rep *Report) error {
	fields, err := json.Marshal(rep.Fields)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		UPDATE reports SET service_id=$2, appointment_id=$3, status=$4, fields=$5,
			finalized_at=$6, updated_at=NOW()
		WHERE id = $1`,
		rep.ID, rep.ServiceID, rep.AppointmentID, rep.Status, fields, rep.FinalizedAt)
	return err
}

func (r *repoPG) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Report, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM reports WHERE client_id = $1`, clientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM reports WHERE client_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		clientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rep)
	}
	return items, total, rows.Err()
}
