package servicetemplate

import (
	"context"

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

const cols = `id, tmpl_name, tmpl_code, is_report, additive, sessions_count,
	formula_type, tmpl_formula, tmpl_report_formula, tax_rate, created_at, updated_at`

func scanTemplate(row pgx.Row) (*ServiceTemplate, error) {
	var t ServiceTemplate
	err := row.Scan(&t.ID, &t.Name, &t.Code, &t.IsReport, &t.Additive,
		&t.SessionsCount, &t.FormulaType, &t.Formula, &t.ReportFormula,
		&t.TaxRate, &t.CreatedAt, &t.UpdatedAt)
	return &t, err
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*ServiceTemplate, error) {
	return scanTemplate(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM service_templates WHERE id = $1`, id))
}

func (r *repoPG) GetByIDs(ctx context.Context, ids []int64) ([]*ServiceTemplate, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+cols+` FROM service_templates WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ServiceTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (r *repoPG) GetByCode(ctx context.Context, code string) (*ServiceTemplate, error) {
	return scanTemplate(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM service_templates WHERE UPPER(tmpl_code) = UPPER($1) ORDER BY id LIMIT 1`, code))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*ServiceTemplate, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM service_templates`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+cols+` FROM service_templates ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*ServiceTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}
