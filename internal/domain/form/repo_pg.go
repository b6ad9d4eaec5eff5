package form

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxis/praxis/internal/platform/db"
	"github.com/praxis/praxis/internal/platform/jsonshape"
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

const cols = `id, form_name, status, form_type, svc_ids, created_at, updated_at`

// svc_ids is TEXT, not JSONB: legacy rows hold comma-separated strings and
// quoted JSON, so the column is read through jsonshape on every scan.
func scanForm(row pgx.Row) (*Form, error) {
	var f Form
	var rawSvcIDs []byte
	err := row.Scan(&f.ID, &f.Name, &f.Status, &f.FormType, &rawSvcIDs,
		&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	parsed := jsonshape.ParseIntList(rawSvcIDs)
	f.SvcIDs = parsed.Values
	f.SvcIDsDegraded = parsed.Fallback
	return &f, nil
}

func (r *repoPG) Create(ctx context.Context, f *Form) error {
	if f.SvcIDs == nil {
		f.SvcIDs = []int64{}
	}
	raw, err := json.Marshal(f.SvcIDs)
	if err != nil {
		return err
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO forms (form_name, status, form_type, svc_ids)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at, updated_at`,
		f.Name, f.Status, f.FormType, string(raw)).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Form, error) {
	return scanForm(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM forms WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, f *Form) error {
	if f.SvcIDs == nil {
		f.SvcIDs = []int64{}
	}
	raw, err := json.Marshal(f.SvcIDs)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		UPDATE forms SET form_name=$2, status=$3, form_type=$4, svc_ids=$5, updated_at=NOW()
		WHERE id = $1`,
		f.ID, f.Name, f.Status, f.FormType, string(raw))
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Form, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM forms`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+cols+` FROM forms ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collect(rows)
	return items, total, err
}

func (r *repoPG) ListActive(ctx context.Context) ([]*Form, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+cols+` FROM forms WHERE status = $1 ORDER BY id`, StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repoPG) UpdateSvcIDs(ctx context.Context, id int64, svcIDs []int64) error {
	if svcIDs == nil {
		svcIDs = []int64{}
	}
	raw, err := json.Marshal(svcIDs)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx,
		`UPDATE forms SET svc_ids=$2, updated_at=NOW() WHERE id = $1`, id, string(raw))
	return err
}

func collect(rows pgx.Rows) ([]*Form, error) {
	var items []*Form
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}
