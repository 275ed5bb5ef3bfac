package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"planrec/graph"
	"planrec/model"
	"planrec/rules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	plans []model.Plan
	err   error
	got   model.Patient
}

func (f *fakeSource) FilterPlans(ctx context.Context, p model.Patient) ([]model.Plan, error) {
	f.got = p
	return f.plans, f.err
}

func catalogPlans(n int) []model.Plan {
	plans := make([]model.Plan, n)
	for i := range plans {
		planType := "HMO"
		if i%2 == 1 {
			planType = "PPO"
		}
		cost := (i/2 + 1) * 500
		plans[i] = model.Plan{
			PlanID:                     fmt.Sprintf("AK-%02d", i),
			PlanType:                   " " + planType + " ",
			MetalLevel:                 "Silver",
			PlanMarketingName:          fmt.Sprintf("Plan %d", i),
			TEHBDedInnTier1Individual:  fmt.Sprintf("$%d", cost),
			TEHBDedInnTier1Coinsurance: fmt.Sprintf("%d%% Coinsurance after deductible", i/2*5),
			TEHBInnTier1IndividualMOOP: fmt.Sprintf("$%d", 4000+cost),
			OutOfCountryCoverage:       "N/A",
		}
	}
	return plans
}

func TestPlanProperties(t *testing.T) {
	p := model.Plan{
		PlanID:                     "00001",
		PlanType:                   " EPO",
		TEHBDedInnTier1Individual:  "$1,234.50",
		TEHBDedInnTier1Coinsurance: "Not Applicable",
		SBCHavingDiabetesCopayment: "$0",
		NationalNetwork:            "n/a",
		BusinessYear:               2024,
	}
	props := PlanProperties(p)

	assert.Equal(t, "00001", props["PlanId"])
	assert.Equal(t, "EPO", props["PlanType"])
	assert.Equal(t, 1234.50, props["TEHBDedInnTier1Individual"])
	assert.Equal(t, 0.0, props["SBCHavingDiabetesCopayment"])
	assert.NotContains(t, props, "TEHBDedInnTier1Coinsurance")
	assert.NotContains(t, props, "NationalNetwork")
	assert.Equal(t, 2024, props["BusinessYear"])
}

func TestServiceProcess(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	src := &fakeSource{plans: catalogPlans(30)}
	svc := NewService(src, store, nil)

	patient := model.Patient{ID: 9, Name: "Kai", Age: 55, Gender: "Female", State: "AK", FamilyCoverage: false}
	res, err := svc.Process(ctx, patient)
	require.NoError(t, err)

	assert.Equal(t, int64(9), src.got.ID)
	assert.Equal(t, 30, res.CandidateCount)
	assert.Equal(t, []string{rules.OlderAdults}, res.RulesApplied)
	assert.Greater(t, res.PreferredPlansCount, 0)
	assert.LessOrEqual(t, len(res.PreferredPlans), MaxPreferredPlans)
	for i := 1; i < len(res.PreferredPlans); i++ {
		prev, cur := res.PreferredPlans[i-1], res.PreferredPlans[i]
		assert.True(t, prev.RuleCount > cur.RuleCount ||
			(prev.RuleCount == cur.RuleCount && prev.PlanID < cur.PlanID))
	}
	for _, mp := range res.PreferredPlans {
		assert.Contains(t, []string{"HMO", "PPO"}, mp.PlanType)
		assert.Equal(t, 1, mp.RuleCount)
	}

	assert.Equal(t, 30, countLabel(t, store, 9, rules.Considers))

	d, err := svc.Distribution(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 1, d.MaxRuleCount)
	assert.Equal(t, res.PreferredPlansCount, d.Buckets[1].Count)

	plans, _, err := svc.SelectPlans(ctx, 9, "HMO")
	require.NoError(t, err)
	require.NotEmpty(t, plans)
	for _, p := range plans {
		assert.Equal(t, "HMO", p.PlanType)
	}

	removed, err := svc.ResetRules(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, res.PreferredPlansCount, removed)

	_, _, err = svc.SelectPlans(ctx, 9, "HMO")
	assert.True(t, errors.Is(err, ErrNoMatches))
}

func TestServiceProcessCapsResults(t *testing.T) {
	store := graph.NewMemoryStore()
	src := &fakeSource{plans: catalogPlans(60)}
	svc := NewService(src, store, nil)

	res, err := svc.Process(context.Background(), model.Patient{ID: 3, Age: 70, FamilyCoverage: true, MedicalConditions: []string{"Diabetes"}})
	require.NoError(t, err)
	assert.Greater(t, res.PreferredPlansCount, MaxPreferredPlans)
	assert.Len(t, res.PreferredPlans, MaxPreferredPlans)
}

func TestServiceProcessNoCandidates(t *testing.T) {
	svc := NewService(&fakeSource{}, graph.NewMemoryStore(), nil)
	_, err := svc.Process(context.Background(), model.Patient{ID: 1})
	assert.True(t, errors.Is(err, ErrNoCandidates))
}

func TestServiceProcessSourceError(t *testing.T) {
	boom := errors.New("warehouse down")
	svc := NewService(&fakeSource{err: boom}, graph.NewMemoryStore(), nil)
	_, err := svc.Process(context.Background(), model.Patient{ID: 1})
	assert.True(t, errors.Is(err, boom))
}

func countLabel(t *testing.T, store graph.Store, patientID int64, label string) int {
	t.Helper()
	ctx := context.Background()
	sess, err := store.Session(ctx)
	require.NoError(t, err)
	defer sess.Close(ctx)

	edges, err := sess.PatientEdges(ctx, patientID)
	require.NoError(t, err)
	n := 0
	for _, e := range edges {
		if e.Label == label {
			n++
		}
	}
	return n
}
