package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"planrec/graph"
	"planrec/model"
	"planrec/normalize"
	"planrec/rules"
)

// MaxPreferredPlans caps the plans returned by Process.
const MaxPreferredPlans = 10

// ErrNoCandidates means the catalog filter returned no plans for the patient.
var ErrNoCandidates = errors.New("no candidate plans for patient")

// PlanSource supplies a patient's candidate plans.
type PlanSource interface {
	FilterPlans(ctx context.Context, p model.Patient) ([]model.Plan, error)
}

// MatchedPlan is a plan and the rules it satisfied in one Process run.
type MatchedPlan struct {
	PlanID    string         `json:"PlanId"`
	PlanType  string         `json:"PlanType"`
	RuleCount int            `json:"rule_count"`
	Rules     []string       `json:"rules"`
	Plan      map[string]any `json:"plan"`
}

// ProcessResult is returned by Process.
type ProcessResult struct {
	PatientID           int64         `json:"patient_id"`
	CandidateCount      int           `json:"candidate_count"`
	RulesApplied        []string      `json:"rules_applied"`
	PreferredPlansCount int           `json:"preferred_plans_count"`
	PreferredPlans      []MatchedPlan `json:"preferred_plans"`
}

// Service drives the whole flow for one request at a time, each call in
// its own graph session.
type Service struct {
	plans  PlanSource
	store  graph.Store
	engine *Engine
	logger *slog.Logger
}

func NewService(plans PlanSource, store graph.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{plans: plans, store: store, engine: New(logger), logger: logger}
}

func (s *Service) withSession(ctx context.Context, fn func(graph.Session) error) (err error) {
	sess, err := s.store.Session(ctx)
	if err != nil {
		return fmt.Errorf("open graph session: %w", err)
	}
	defer func() {
		if cerr := sess.Close(ctx); cerr != nil && err == nil {
			err = fmt.Errorf("close graph session: %w", cerr)
		}
	}()
	return fn(sess)
}

// PlanProperties returns the graph properties of a plan: rule attributes
// normalized as numbers, everything else as text, PlanId verbatim.
func PlanProperties(p model.Plan) map[string]any {
	numeric := rules.NumericAttributes()
	props := make(map[string]any)
	for k, v := range p.Attributes() {
		if k == "PlanId" {
			props[k] = p.PlanID
			continue
		}
		kind := normalize.Text
		if numeric[k] {
			kind = normalize.Numeric
		}
		if clean, ok := normalize.Normalize(v, kind); ok {
			props[k] = clean
		}
	}
	return props
}

// Process filters the catalog for the patient, records the candidates in
// the graph, applies every applicable rule and returns the matched plans
// ordered by how many rules they satisfied.
func (s *Service) Process(ctx context.Context, patient model.Patient) (ProcessResult, error) {
	candidates, err := s.plans.FilterPlans(ctx, patient)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("filter plans: %w", err)
	}
	if len(candidates) == 0 {
		return ProcessResult{}, fmt.Errorf("%w: patient %d", ErrNoCandidates, patient.ID)
	}

	nodes := make([]graph.PlanNode, 0, len(candidates))
	for _, c := range candidates {
		props := PlanProperties(c)
		planType, _ := props["PlanType"].(string)
		nodes = append(nodes, graph.PlanNode{PlanID: c.PlanID, PlanType: planType, Props: props})
	}

	res := ProcessResult{PatientID: patient.ID, CandidateCount: len(candidates)}
	err = s.withSession(ctx, func(sess graph.Session) error {
		if err := sess.UpsertPatient(ctx, patient.ID, patient.GraphProperties()); err != nil {
			return err
		}
		if err := sess.ConsiderPlans(ctx, patient.ID, nodes); err != nil {
			return err
		}

		matches, err := s.engine.ApplyRules(ctx, sess, patient)
		res.RulesApplied = matches.Rules
		if err != nil {
			return err
		}
		res.PreferredPlans = rankMatches(matches)
		return nil
	})
	if err != nil {
		return res, err
	}

	res.PreferredPlansCount = len(res.PreferredPlans)
	if len(res.PreferredPlans) > MaxPreferredPlans {
		res.PreferredPlans = res.PreferredPlans[:MaxPreferredPlans]
	}
	s.logger.Info("plans processed", "patient_id", patient.ID, "candidates", len(candidates),
		"preferred", res.PreferredPlansCount)
	return res, nil
}

// rankMatches merges the per-rule plan lists into unique plans ordered by
// rule count, then PlanId.
func rankMatches(m RuleMatches) []MatchedPlan {
	byID := make(map[string]*MatchedPlan)
	for _, rule := range m.Rules {
		for _, p := range m.Plans[rule] {
			mp, ok := byID[p.PlanID]
			if !ok {
				mp = &MatchedPlan{PlanID: p.PlanID, PlanType: p.PlanType, Plan: p.Props}
				byID[p.PlanID] = mp
			}
			if !contains(mp.Rules, rule) {
				mp.Rules = append(mp.Rules, rule)
				mp.RuleCount++
			}
		}
	}

	out := make([]MatchedPlan, 0, len(byID))
	for _, mp := range byID {
		out = append(out, *mp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RuleCount != out[j].RuleCount {
			return out[i].RuleCount > out[j].RuleCount
		}
		return out[i].PlanID < out[j].PlanID
	})
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Distribution summarizes the patient's rule edges.
func (s *Service) Distribution(ctx context.Context, patientID int64) (Distribution, error) {
	var d Distribution
	err := s.withSession(ctx, func(sess graph.Session) error {
		var err error
		d, err = s.engine.Distribution(ctx, sess, patientID)
		return err
	})
	return d, err
}

// SelectPlans returns the patient's plans of planType that reach the
// highest rule count. It returns ErrNoMatches when no plan satisfied a rule.
func (s *Service) SelectPlans(ctx context.Context, patientID int64, planType string) ([]graph.PlanNode, Distribution, error) {
	var (
		d     Distribution
		plans []graph.PlanNode
	)
	err := s.withSession(ctx, func(sess graph.Session) error {
		var err error
		d, err = s.engine.Distribution(ctx, sess, patientID)
		if err != nil {
			return err
		}
		if !d.HasMatches() {
			return fmt.Errorf("%w: patient %d", ErrNoMatches, patientID)
		}
		plans, err = s.engine.PlansOfTypeAtCount(ctx, sess, patientID, planType, d.MaxRuleCount)
		return err
	})
	return plans, d, err
}

// ResetRules removes the patient's rule edges so rules can be re-applied.
func (s *Service) ResetRules(ctx context.Context, patientID int64) (int, error) {
	var n int
	err := s.withSession(ctx, func(sess graph.Session) error {
		var err error
		n, err = sess.ClearRuleEdges(ctx, patientID)
		return err
	})
	if err == nil {
		s.logger.Info("rule edges cleared", "patient_id", patientID, "removed", n)
	}
	return n, err
}
