package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
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

const cols = `id, tenant_id, template_id, svc_name, svc_code, report, additive,
	sessions_count, formula_type, svc_formula, svc_report_formula,
	total_invoice, gst, created_at, updated_at`

// scanService normalizes the two legacy JSON columns through jsonshape on
// every read; old rows may hold strings instead of arrays/objects.
func scanService(row pgx.Row) (*TenantService, error) {
	var s TenantService
	var rawFormula, rawReportFormula []byte
	err := row.Scan(&s.ID, &s.TenantID, &s.TemplateID, &s.Name, &s.Code,
		&s.Report, &s.Additive, &s.SessionsCount, &s.FormulaType,
		&rawFormula, &rawReportFormula, &s.TotalInvoice, &s.GST,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Formula = jsonshape.ParseFloatList(rawFormula).Values
	s.ReportFormula = jsonshape.ParseReportFormula(rawReportFormula).Value
	return &s, nil
}

func marshalFormula(s *TenantService) ([]byte, []byte, error) {
	formula := s.Formula
	if formula == nil {
		formula = []float64{}
	}
	rawFormula, err := json.Marshal(formula)
	if err != nil {
		return nil, nil, err
	}
	rf := s.ReportFormula
	if rf.Position == nil {
		rf.Position = []int64{}
	}
	if rf.ServiceID == nil {
		rf.ServiceID = []int64{}
	}
	rawReportFormula, err := json.Marshal(rf)
	if err != nil {
		return nil, nil, err
	}
	return rawFormula, rawReportFormula, nil
}

func (r *repoPG) Create(ctx context.Context, s *TenantService) error {
	rawFormula, rawReportFormula, err := marshalFormula(s)
	if err != nil {
		return err
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO service (tenant_id, template_id, svc_name, svc_code, report, additive,
			sessions_count, formula_type, svc_formula, svc_report_formula, total_invoice, gst)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id, created_at, updated_at`,
		s.TenantID, s.TemplateID, s.Name, s.Code, s.Report, s.Additive,
		s.SessionsCount, s.FormulaType, rawFormula, rawReportFormula,
		s.TotalInvoice, s.GST).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*TenantService, error) {
	return scanService(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM service WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, s *TenantService) error {
	rawFormula, rawReportFormula, err := marshalFormula(s)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		UPDATE service SET svc_name=$2, svc_code=$3, report=$4, additive=$5,
			sessions_count=$6, formula_type=$7, svc_formula=$8,
			svc_report_formula=$9, total_invoice=$10, gst=$11, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.Name, s.Code, s.Report, s.Additive, s.SessionsCount,
		s.FormulaType, rawFormula, rawReportFormula, s.TotalInvoice, s.GST)
	return err
}

func (r *repoPG) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*TenantService, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM service WHERE tenant_id = $1`, tenantID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+cols+` FROM service
		WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collect(rows)
	return items, total, err
}

func (r *repoPG) ListReportsByTenant(ctx context.Context, tenantID uuid.UUID) ([]*TenantService, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+cols+` FROM service
		WHERE tenant_id = $1 AND report ORDER BY created_at, id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repoPG) ListNonReportsByTenant(ctx context.Context, tenantID uuid.UUID) ([]*TenantService, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+cols+` FROM service
		WHERE tenant_id = $1 AND NOT report ORDER BY created_at, id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repoPG) UpdateReportFormula(ctx context.Context, id int64, f jsonshape.ReportFormula) error {
	if f.Position == nil {
		f.Position = []int64{}
	}
	if f.ServiceID == nil {
		f.ServiceID = []int64{}
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx,
		`UPDATE service SET svc_report_formula=$2, updated_at=NOW() WHERE id = $1`, id, raw)
	return err
}

func (r *repoPG) UpsertReportByCode(ctx context.Context, s *TenantService) (int64, bool, error) {
	rawFormula, rawReportFormula, err := marshalFormula(s)
	if err != nil {
		return 0, false, err
	}
	// The partial unique index on (tenant_id, svc_code) WHERE report makes
	// concurrent baseline provisioning race-free.
	err = r.conn(ctx).QueryRow(ctx, `
		INSERT INTO service (tenant_id, template_id, svc_name, svc_code, report, additive,
			sessions_count, formula_type, svc_formula, svc_report_formula, total_invoice, gst)
		VALUES ($1,$2,$3,$4,TRUE,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (tenant_id, svc_code) WHERE report DO NOTHING
		RETURNING id`,
		s.TenantID, s.TemplateID, s.Name, s.Code, s.Additive,
		s.SessionsCount, s.FormulaType, rawFormula, rawReportFormula,
		s.TotalInvoice, s.GST).Scan(&s.ID)
	if err == nil {
		s.Report = true
		return s.ID, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, err
	}

	var id int64
	err = r.conn(ctx).QueryRow(ctx,
		`SELECT id FROM service WHERE tenant_id = $1 AND svc_code = $2 AND report`,
		s.TenantID, s.Code).Scan(&id)
	if err != nil {
		return 0, false, err
	}
	return id, false, nil
}

func collect(rows pgx.Rows) ([]*TenantService, error) {
	var items []*TenantService
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
