// Package engine derives per-plan-type thresholds, tags patient to plan
// edges for every applicable rule and summarizes how many rules each plan
// satisfies.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"planrec/graph"
	"planrec/model"
	"planrec/rules"
)

var (
	// ErrNoRules means no rule applies to the patient.
	ErrNoRules = errors.New("no applicable rules")
	// ErrNoMatches means rules applied but no plan satisfied any of them.
	ErrNoMatches = errors.New("no plans matched any rule")
)

// Engine runs rule matching over a graph session.
type Engine struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// DeriveMedians returns the median of each attribute over plans of planType
// having every attribute present. Attributes without a median are dropped;
// an empty map means the (rule, planType) pair should be skipped.
func (e *Engine) DeriveMedians(ctx context.Context, sess graph.Session, planType string, attrs []string) (map[string]float64, error) {
	raw, err := sess.Medians(ctx, planType, attrs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(raw))
	for a, m := range raw {
		if m != nil {
			out[a] = *m
		}
	}
	return out, nil
}

// ApplyRule tags every qualifying plan of every plan type with the rule's
// label and returns the plans connected, across all types. Plan types with
// no derivable medians are skipped.
func (e *Engine) ApplyRule(ctx context.Context, sess graph.Session, rule rules.Rule, patientID int64) ([]graph.PlanNode, error) {
	types, err := sess.PlanTypes(ctx)
	if err != nil {
		return nil, err
	}

	var matched []graph.PlanNode
	for _, planType := range types {
		thresholds, err := e.DeriveMedians(ctx, sess, planType, rule.Attributes)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.Name, err)
		}
		if len(thresholds) == 0 {
			e.logger.Debug("no medians, skipping plan type", "rule", rule.Name, "plan_type", planType)
			continue
		}

		plans, err := sess.MatchRule(ctx, rule.Name, patientID, planType, thresholds)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.Name, err)
		}
		e.logger.Debug("rule applied", "rule", rule.Name, "plan_type", planType,
			"thresholds", thresholds, "matched", len(plans))
		matched = append(matched, plans...)
	}
	return matched, nil
}

// RuleMatches is the outcome of applying a set of rules: the plans each
// rule connected, keyed by rule name, and the rule names in catalog order.
type RuleMatches struct {
	Rules []string
	Plans map[string][]graph.PlanNode
}

// ApplyRules applies every rule selected for the patient, in catalog order.
// It returns ErrNoMatches when no rule connected any plan.
func (e *Engine) ApplyRules(ctx context.Context, sess graph.Session, patient model.Patient) (RuleMatches, error) {
	selected := rules.Select(patient)
	if len(selected) == 0 {
		return RuleMatches{}, ErrNoRules
	}

	res := RuleMatches{Plans: make(map[string][]graph.PlanNode, len(selected))}
	total := 0
	for _, r := range selected {
		plans, err := e.ApplyRule(ctx, sess, r, patient.ID)
		if err != nil {
			return RuleMatches{}, err
		}
		res.Rules = append(res.Rules, r.Name)
		if len(plans) > 0 {
			res.Plans[r.Name] = plans
			total += len(plans)
		}
	}

	e.logger.Info("rules applied", "patient_id", patient.ID, "rules", res.Rules, "edges", total)
	if total == 0 {
		return res, ErrNoMatches
	}
	return res, nil
}

// PlansOfTypeAtCount returns plans of planType connected to the patient by
// at least ruleCount distinct rules.
func (e *Engine) PlansOfTypeAtCount(ctx context.Context, sess graph.Session, patientID int64, planType string, ruleCount int) ([]graph.PlanNode, error) {
	if ruleCount < 1 {
		return nil, ErrNoMatches
	}
	return sess.PlansWithRuleCount(ctx, patientID, planType, ruleCount)
}

// PlanIDs returns the identifiers of plans, in order.
func PlanIDs(plans []graph.PlanNode) []string {
	ids := make([]string, len(plans))
	for i, p := range plans {
		ids[i] = p.PlanID
	}
	return ids
}
