package client

import (
	"context"
	"fmt"

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

const cols = `id, tenant_id, first_name, last_name, email, phone, birth_date, status,
	therapist_id, intake_notes, activated_at, discharged_at, created_at, updated_at`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.TenantID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.BirthDate, &c.Status, &c.TherapistID, &c.IntakeNotes,
		&c.ActivatedAt, &c.DischargedAt, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *repoPG) Create(ctx context.Context, c *Client) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO clients (id, tenant_id, first_name, last_name, email, phone, birth_date,
			status, therapist_id, intake_notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		c.ID, c.TenantID, c.FirstName, c.LastName, c.Email, c.Phone, c.BirthDate,
		c.Status, c.TherapistID, c.IntakeNotes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	return scanClient(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM clients WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, c *Client) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE clients SET first_name=$2, last_name=$3, email=$4, phone=$5, birth_date=$6,
			status=$7, therapist_id=$8, intake_notes=$9, activated_at=$10, discharged_at=$11,
			updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.FirstName, c.LastName, c.Email, c.Phone, c.BirthDate,
		c.Status, c.TherapistID, c.IntakeNotes, c.ActivatedAt, c.DischargedAt)
	return err
}

func (r *repoPG) ListByTenant(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*Client, int, error) {
	where := `WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	if status != "" {
		where += ` AND status = $2`
		args = append(args, status)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM clients `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM clients %s ORDER BY last_name, first_name LIMIT $%d OFFSET $%d`,
		cols, where, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}
