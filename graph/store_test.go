package graph

import (
	"context"
	"errors"
	"testing"

	"planrec/rules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plan(id, planType string, props map[string]any) PlanNode {
	return PlanNode{PlanID: id, PlanType: planType, Props: props}
}

var deductible = "TEHBDedInnTier1Individual"

// runStoreSuite exercises the Session contract against any Store. The store
// must start empty.
func runStoreSuite(t *testing.T, store Store) {
	ctx := context.Background()
	sess, err := store.Session(ctx)
	require.NoError(t, err)
	defer sess.Close(ctx)

	require.NoError(t, sess.UpsertPatient(ctx, 7, map[string]any{"name": "Lin", "age": 40}))
	require.NoError(t, sess.ConsiderPlans(ctx, 7, []PlanNode{
		plan("H1", "HMO", map[string]any{deductible: 1000.0, "TEHBDedInnTier1Coinsurance": 10.0, "TEHBInnTier1IndividualMOOP": 5000.0}),
		plan("H2", "HMO", map[string]any{deductible: 2000.0, "TEHBDedInnTier1Coinsurance": 20.0, "TEHBInnTier1IndividualMOOP": 6000.0}),
		plan("H3", "HMO", map[string]any{deductible: 3000.0, "TEHBDedInnTier1Coinsurance": 30.0, "TEHBInnTier1IndividualMOOP": 7000.0}),
		plan("H4", "HMO", map[string]any{deductible: 100.0, "TEHBDedInnTier1Coinsurance": nil}),
		plan("P1", "PPO", map[string]any{deductible: 500.0, "TEHBDedInnTier1Coinsurance": 0.0, "TEHBInnTier1IndividualMOOP": 9000.0}),
		plan("P2", "PPO", map[string]any{deductible: 700.0, "TEHBDedInnTier1Coinsurance": 50.0, "TEHBInnTier1IndividualMOOP": 9500.0}),
	}))

	t.Run("PlanTypes", func(t *testing.T) {
		types, err := sess.PlanTypes(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"HMO", "PPO"}, types)
	})

	group := []string{deductible, "TEHBDedInnTier1Coinsurance", "TEHBInnTier1IndividualMOOP"}

	t.Run("MediansIgnoreIncompletePlans", func(t *testing.T) {
		med, err := sess.Medians(ctx, "HMO", group)
		require.NoError(t, err)
		require.NotNil(t, med[deductible])
		// H4 lacks coinsurance, so the population is H1..H3.
		assert.InDelta(t, 2000.0, *med[deductible], 1e-9)
		assert.InDelta(t, 20.0, *med["TEHBDedInnTier1Coinsurance"], 1e-9)

		med, err = sess.Medians(ctx, "PPO", group)
		require.NoError(t, err)
		assert.InDelta(t, 600.0, *med[deductible], 1e-9)
	})

	t.Run("MediansUnknownType", func(t *testing.T) {
		med, err := sess.Medians(ctx, "EPO", group)
		require.NoError(t, err)
		for _, a := range group {
			assert.Nil(t, med[a], a)
		}
	})

	t.Run("RejectsIdentifiersOutsideCatalog", func(t *testing.T) {
		_, err := sess.Medians(ctx, "HMO", []string{"PlanId`]) DETACH DELETE (x"})
		assert.True(t, errors.Is(err, ErrInvalidIdentifier))

		_, err = sess.MatchRule(ctx, "Bogus", 7, "HMO", map[string]float64{deductible: 1})
		assert.True(t, errors.Is(err, ErrInvalidIdentifier))

		_, err = sess.MatchRule(ctx, rules.Considers, 7, "HMO", map[string]float64{deductible: 1})
		assert.True(t, errors.Is(err, ErrInvalidIdentifier))
	})

	t.Run("MatchRuleIsMerged", func(t *testing.T) {
		thresholds := map[string]float64{deductible: 2000, "TEHBDedInnTier1Coinsurance": 20, "TEHBInnTier1IndividualMOOP": 6000}
		matched, err := sess.MatchRule(ctx, rules.Default, 7, "HMO", thresholds)
		require.NoError(t, err)
		require.Len(t, matched, 2)
		assert.Equal(t, "H1", matched[0].PlanID)
		assert.Equal(t, "H2", matched[1].PlanID)
		assert.Equal(t, "HMO", matched[0].PlanType)

		_, err = sess.MatchRule(ctx, rules.Default, 7, "HMO", thresholds)
		require.NoError(t, err)

		edges, err := sess.PatientEdges(ctx, 7)
		require.NoError(t, err)
		defaults := 0
		for _, e := range edges {
			if e.Label == rules.Default {
				defaults++
			}
		}
		assert.Equal(t, 2, defaults)
	})

	t.Run("PlansWithRuleCount", func(t *testing.T) {
		_, err := sess.MatchRule(ctx, rules.OlderAdults, 7, "HMO", map[string]float64{deductible: 1000})
		require.NoError(t, err)

		two, err := sess.PlansWithRuleCount(ctx, 7, "HMO", 2)
		require.NoError(t, err)
		require.Len(t, two, 1)
		assert.Equal(t, "H1", two[0].PlanID)
		assert.Equal(t, 1000.0, two[0].Props[deductible])

		// H4 lacks coinsurance but has a deductible, so it satisfies the
		// single-attribute threshold.
		one, err := sess.PlansWithRuleCount(ctx, 7, "HMO", 1)
		require.NoError(t, err)
		assert.Len(t, one, 3)

		none, err := sess.PlansWithRuleCount(ctx, 7, "PPO", 1)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("ClearRuleEdgesKeepsConsiders", func(t *testing.T) {
		removed, err := sess.ClearRuleEdges(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 4, removed)

		edges, err := sess.PatientEdges(ctx, 7)
		require.NoError(t, err)
		assert.Len(t, edges, 6)
		for _, e := range edges {
			assert.Equal(t, rules.Considers, e.Label)
		}
	})

	t.Run("UnknownPatient", func(t *testing.T) {
		err := sess.ConsiderPlans(ctx, 404, []PlanNode{plan("X", "HMO", nil)})
		assert.True(t, errors.Is(err, ErrPatientNotFound))

		matched, err := sess.MatchRule(ctx, rules.Default, 404, "HMO", map[string]float64{deductible: 1e9})
		require.NoError(t, err)
		assert.Empty(t, matched)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, NewMemoryStore())
}

func TestMemorySessionClosed(t *testing.T) {
	ctx := context.Background()
	sess, err := NewMemoryStore().Session(ctx)
	require.NoError(t, err)
	require.NoError(t, sess.Close(ctx))

	_, err = sess.PlanTypes(ctx)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestAddEdgeKeepsDuplicates(t *testing.T) {
	store := NewMemoryStore()
	p := plan("A", "HMO", nil)
	store.AddEdge(1, p, rules.Diabetes)
	store.AddEdge(1, p, rules.Diabetes)
	assert.Equal(t, 2, store.EdgeCount(1))
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{1.5, 1.5, true},
		{int64(3), 3, true},
		{" 42 ", 42, true},
		{"$1,000", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		got, ok := toFloat(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	c := DefaultConfig()
	c.URI = ""
	assert.Error(t, c.Validate())

	c = DefaultConfig()
	c.ConnectionTimeout = 0
	assert.Error(t, c.Validate())
}
