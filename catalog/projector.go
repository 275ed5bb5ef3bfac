// Package catalog moves the plan catalog between its sources (CSV exports,
// Parquet files, the warehouse table) and projects warehouse rows onto the
// canonical model.Plan record.
package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"planrec/model"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// ErrProjection is wrapped by every RowError.
var ErrProjection = errors.New("catalog projection failed")

// RowError identifies the row (0-based, within the batch) and, when known,
// the target field that could not be projected.
type RowError struct {
	Row   int
	Field string
	Err   error
}

func (e *RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d field %s: %v", e.Row, e.Field, e.Err)
	}
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() []error { return []error{ErrProjection, e.Err} }

// PlanDateFields are the canonical fields holding calendar dates.
var PlanDateFields = []string{"PlanEffectiveDate", "PlanExpirationDate"}

var validate = validator.New()

// targetIndex maps a lowercased canonical field name to the field name.
var targetIndex = func() map[string]string {
	idx := make(map[string]string)
	for _, f := range model.PlanFieldNames() {
		idx[strings.ToLower(f)] = f
	}
	return idx
}()

// pascalCase converts UPPER_SNAKE or lower_snake to PascalCase:
// "PLAN_ID" -> "PlanId", "tehb_inn_tier1_individual_moop" -> "TehbInnTier1IndividualMoop".
// Names without underscores are returned unchanged.
func pascalCase(column string) string {
	if !strings.Contains(column, "_") {
		return column
	}
	parts := strings.Split(strings.ToLower(column), "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// FieldName returns the canonical field a warehouse column maps to. Columns
// with no canonical match keep their original name.
func FieldName(column string) (string, bool) {
	if f, ok := targetIndex[strings.ToLower(pascalCase(strings.TrimSpace(column)))]; ok {
		return f, true
	}
	return column, false
}

// Project maps rows (one value per column, in column order) onto plans.
// Fields named in dateFields are reformatted as YYYY-MM-DD. The first row
// that does not fit aborts the batch with a *RowError.
func Project(columns []string, rows [][]any, dateFields []string) ([]model.Plan, error) {
	fields := make([]string, len(columns))
	for i, c := range columns {
		fields[i], _ = FieldName(c)
	}
	isDate := make(map[string]bool, len(dateFields))
	for _, f := range dateFields {
		isDate[f] = true
	}

	plans := make([]model.Plan, 0, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, &RowError{Row: i, Err: fmt.Errorf("%d values for %d columns", len(row), len(columns))}
		}

		record := make(map[string]any, len(row))
		for j, v := range row {
			if isDate[fields[j]] {
				d, err := formatDate(v)
				if err != nil {
					return nil, &RowError{Row: i, Field: fields[j], Err: err}
				}
				v = d
			}
			record[fields[j]] = v
		}

		plan, err := decodePlan(record)
		if err != nil {
			return nil, &RowError{Row: i, Field: err.field, Err: err.err}
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

type decodeError struct {
	field string
	err   error
}

func decodePlan(record map[string]any) (model.Plan, *decodeError) {
	var plan model.Plan
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &plan,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return plan, &decodeError{err: err}
	}
	if err := dec.Decode(record); err != nil {
		return plan, &decodeError{field: mapstructureField(err), err: err}
	}

	if err := validate.Struct(plan); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return plan, &decodeError{field: verrs[0].Field(), err: fmt.Errorf("failed %q", verrs[0].Tag())}
		}
		return plan, &decodeError{err: err}
	}
	return plan, nil
}

// mapstructureField pulls the quoted field name out of the first decode
// error, e.g. "cannot parse 'BusinessYear' as int".
func mapstructureField(err error) string {
	var merr *mapstructure.Error
	if !errors.As(err, &merr) || len(merr.Errors) == 0 {
		return ""
	}
	msg := merr.Errors[0]
	start := strings.IndexByte(msg, '\'')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(msg[start+1:], '\'')
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

// formatDate renders a date value as YYYY-MM-DD. Strings are accepted in
// ISO or US (MM/DD/YYYY) form; nil and empty strings stay absent.
func formatDate(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return t.Format("2006-01-02"), nil
	case *time.Time:
		if t == nil {
			return nil, nil
		}
		return t.Format("2006-01-02"), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil
		}
		if len(s) > 10 {
			s = s[:10]
		}
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			d, err = time.Parse("01/02/2006", s)
			if err != nil {
				return nil, fmt.Errorf("parse date %q: %w", t, err)
			}
		}
		return d.Format("2006-01-02"), nil
	}
	return nil, fmt.Errorf("unsupported date value of type %T", v)
}
