package catalog

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldName(t *testing.T) {
	tests := []struct {
		column string
		want   string
		ok     bool
	}{
		{"PLAN_ID", "PlanId", true},
		{"plan_id", "PlanId", true},
		{"PlanId", "PlanId", true},
		{"planid", "PlanId", true},
		{"IS_HSA_ELIGIBLE", "IsHSAEligible", true},
		{"sbc_havinga_baby_deductible", "SBCHavingaBabyDeductible", true},
		{"TEHB_INN_TIER1_INDIVIDUAL_MOOP", "TEHBInnTier1IndividualMOOP", true},
		{"EHB_PERCENT_TOTAL_PREMIUM", "EHBPercentTotalPremium", true},
		{"id", "id", false},
		{"ROW_NUMBER", "ROW_NUMBER", false},
	}
	for _, tt := range tests {
		got, ok := FieldName(tt.column)
		if got != tt.want || ok != tt.ok {
			t.Errorf("FieldName(%q) = %q, %v; want %q, %v", tt.column, got, ok, tt.want, tt.ok)
		}
	}
}

func TestProject(t *testing.T) {
	columns := []string{"ID", "PLAN_ID", "BUSINESS_YEAR", "PLAN_TYPE", "PLAN_EFFECTIVE_DATE",
		"PLAN_EXPIRATION_DATE", "EHB_PERCENT_TOTAL_PREMIUM", "TEHB_DED_INN_TIER1_INDIVIDUAL"}
	rows := [][]any{
		{int64(1), "11512NC0100031-04", int32(2024), "HMO",
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "12/31/2024", 0.97, "$4,500"},
		{int64(2), "11512NC0100032-04", nil, "PPO", nil, nil, nil, nil},
	}

	plans, err := Project(columns, rows, PlanDateFields)
	require.NoError(t, err)
	require.Len(t, plans, 2)

	p := plans[0]
	assert.Equal(t, "11512NC0100031-04", p.PlanID)
	assert.Equal(t, 2024, p.BusinessYear)
	assert.Equal(t, "HMO", p.PlanType)
	assert.Equal(t, "2024-01-01", p.PlanEffectiveDate)
	assert.Equal(t, "2024-12-31", p.PlanExpirationDate)
	require.NotNil(t, p.EHBPercentTotalPremium)
	assert.InDelta(t, 0.97, *p.EHBPercentTotalPremium, 1e-9)
	assert.Equal(t, "$4,500", p.TEHBDedInnTier1Individual)
	assert.Equal(t, int64(1), p.Extra["ID"])

	assert.Empty(t, plans[1].PlanEffectiveDate)
	assert.Nil(t, plans[1].EHBPercentTotalPremium)
}

func TestProjectAbortsBatch(t *testing.T) {
	tests := []struct {
		name      string
		columns   []string
		rows      [][]any
		wantRow   int
		wantField string
	}{
		{
			name:      "missing plan id",
			columns:   []string{"PLAN_ID", "PLAN_TYPE"},
			rows:      [][]any{{"A", "HMO"}, {nil, "PPO"}},
			wantRow:   1,
			wantField: "PlanID",
		},
		{
			name:      "wrong shape",
			columns:   []string{"PLAN_ID", "BUSINESS_YEAR"},
			rows:      [][]any{{"A", "twenty"}},
			wantRow:   0,
			wantField: "BusinessYear",
		},
		{
			name:      "bad date",
			columns:   []string{"PLAN_ID", "PLAN_EFFECTIVE_DATE"},
			rows:      [][]any{{"A", "2024-01-01"}, {"B", "soon"}},
			wantRow:   1,
			wantField: "PlanEffectiveDate",
		},
		{
			name:    "short row",
			columns: []string{"PLAN_ID", "PLAN_TYPE"},
			rows:    [][]any{{"A"}},
			wantRow: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plans, err := Project(tt.columns, tt.rows, PlanDateFields)
			require.Error(t, err)
			assert.Nil(t, plans)
			assert.True(t, errors.Is(err, ErrProjection))

			var rerr *RowError
			require.True(t, errors.As(err, &rerr))
			assert.Equal(t, tt.wantRow, rerr.Row)
			assert.Equal(t, tt.wantField, rerr.Field)
		})
	}
}
