package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"planrec/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// DefaultTable is the warehouse table holding the plan catalog.
const DefaultTable = "insurance_plans"

// Querier is the read side of a pgx connection or pool.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Column is a result column: its name and declared type.
type Column struct {
	Name     string `json:"name"`
	TypeName string `json:"type"`
}

// Result is a fully materialized query result.
type Result struct {
	Columns []Column
	Rows    [][]any
}

// ColumnNames returns the result's column names in order.
func (r Result) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}

// Warehouse is a read-only client for the plan catalog table.
type Warehouse struct {
	conn   Querier
	table  string
	types  *pgtype.Map
	logger *slog.Logger
}

// NewWarehouse returns a client reading from table (DefaultTable if empty).
func NewWarehouse(conn Querier, table string, logger *slog.Logger) *Warehouse {
	if table == "" {
		table = DefaultTable
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Warehouse{
		conn:   conn,
		table:  pgx.Identifier(strings.Split(table, ".")).Sanitize(),
		types:  pgtype.NewMap(),
		logger: logger,
	}
}

// Query runs an arbitrary read query and returns every row along with the
// column names and type names.
func (w *Warehouse) Query(ctx context.Context, sql string, args ...any) (Result, error) {
	rows, err := w.conn.Query(ctx, sql, args...)
	if err != nil {
		return Result{}, fmt.Errorf("warehouse query: %w", err)
	}
	defer rows.Close()

	var res Result
	for _, fd := range rows.FieldDescriptions() {
		typeName := fmt.Sprintf("oid:%d", fd.DataTypeOID)
		if t, ok := w.types.TypeForOID(fd.DataTypeOID); ok {
			typeName = t.Name
		}
		res.Columns = append(res.Columns, Column{Name: fd.Name, TypeName: typeName})
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return Result{}, fmt.Errorf("read warehouse row %d: %w", len(res.Rows), err)
		}
		res.Rows = append(res.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("warehouse rows: %w", err)
	}
	return res, nil
}

func (w *Warehouse) queryPlans(ctx context.Context, sql string, args ...any) ([]model.Plan, error) {
	res, err := w.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	plans, err := Project(res.ColumnNames(), res.Rows, PlanDateFields)
	if err != nil {
		return nil, fmt.Errorf("project plans: %w", err)
	}
	return plans, nil
}

// ListPlans pages through the catalog in row order.
func (w *Warehouse) ListPlans(ctx context.Context, skip, limit int) ([]model.Plan, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = 10
	}
	sql := "SELECT * FROM " + w.table + " ORDER BY id LIMIT $1 OFFSET $2"
	return w.queryPlans(ctx, sql, limit, skip)
}

// FilterPlans returns the patient's candidate plans: same state, metal level
// equal to the budget tier, out-of-country coverage matching the travel
// need, offerings open to adults (family coverage) and children (offspring),
// and a disease management program for every listed condition.
func (w *Warehouse) FilterPlans(ctx context.Context, p model.Patient) ([]model.Plan, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	add("state_code = $%d", p.State)
	if p.BudgetTier != "" {
		add("metal_level = $%d", string(p.BudgetTier))
	}
	if p.TravelCoverage {
		add("out_of_country_coverage = $%d", "Yes")
	} else {
		add("out_of_country_coverage = $%d", "No")
	}
	if p.FamilyCoverage {
		add("child_only_offering LIKE $%d", "%Adult%")
	}
	if p.HasOffspring {
		add("child_only_offering LIKE $%d", "%Child%")
	}
	for _, cond := range p.MedicalConditions {
		add("disease_management_programs_offered LIKE $%d", "%"+escapeLike(cond)+"%")
	}

	sql := "SELECT * FROM " + w.table + " WHERE " + strings.Join(where, " AND ") + " ORDER BY id"
	plans, err := w.queryPlans(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	w.logger.Debug("filtered plans", "patient_id", p.ID, "clauses", len(where), "plans", len(plans))
	return plans, nil
}

// PlansByID returns the plans with the given identifiers in the order
// requested. Unknown ids are skipped; duplicate catalog rows keep the first.
func (w *Warehouse) PlansByID(ctx context.Context, ids []string) ([]model.Plan, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	sql := "SELECT * FROM " + w.table + " WHERE plan_id = ANY($1) ORDER BY id"
	plans, err := w.queryPlans(ctx, sql, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.Plan, len(plans))
	for _, p := range plans {
		if _, ok := byID[p.PlanID]; !ok {
			byID[p.PlanID] = p
		}
	}
	out := make([]model.Plan, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, p)
		}
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
