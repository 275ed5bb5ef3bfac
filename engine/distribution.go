package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"planrec/graph"
	"planrec/rules"
)

// RuleSetCount is how many plans earned exactly this combination of rules.
type RuleSetCount struct {
	Rules []string `json:"rules"`
	Count int      `json:"count"`
}

// Bucket groups the plans that satisfy the same number of rules.
type Bucket struct {
	Count    int            `json:"count"`
	Plans    []string       `json:"plans"`
	RuleSets []RuleSetCount `json:"rule_sets_summary"`
}

// Distribution summarizes a patient's rule edges. Buckets never has a key
// of zero: a plan with no rule edge is not counted, and MaxRuleCount of zero
// means nothing matched.
type Distribution struct {
	Buckets        map[int]*Bucket `json:"plan_distribution"`
	PlanTypesAtMax map[string]int  `json:"plan_type_distribution"`
	MaxRuleCount   int             `json:"max_rule_count"`
	Note           string          `json:"note"`
}

// HasMatches reports whether any plan satisfied a rule.
func (d Distribution) HasMatches() bool { return d.MaxRuleCount > 0 }

// ComputeDistribution groups the edges by plan, counting distinct rule
// labels per plan. CONSIDERS edges and repeated labels do not count.
func ComputeDistribution(edges []graph.Edge) Distribution {
	labels := make(map[string]map[string]bool)
	planTypes := make(map[string]string)
	for _, e := range edges {
		if e.Label == rules.Considers {
			continue
		}
		if labels[e.PlanID] == nil {
			labels[e.PlanID] = make(map[string]bool)
		}
		labels[e.PlanID][e.Label] = true
		planTypes[e.PlanID] = e.PlanType
	}

	d := Distribution{
		Buckets:        make(map[int]*Bucket),
		PlanTypesAtMax: make(map[string]int),
	}
	combos := make(map[int]map[string]*RuleSetCount)

	planIDs := make([]string, 0, len(labels))
	for id := range labels {
		planIDs = append(planIDs, id)
	}
	sort.Strings(planIDs)

	for _, id := range planIDs {
		set := make([]string, 0, len(labels[id]))
		for l := range labels[id] {
			set = append(set, l)
		}
		sort.Strings(set)
		n := len(set)

		b, ok := d.Buckets[n]
		if !ok {
			b = &Bucket{}
			d.Buckets[n] = b
			combos[n] = make(map[string]*RuleSetCount)
		}
		b.Count++
		b.Plans = append(b.Plans, id)

		key := strings.Join(set, "\x00")
		rc, ok := combos[n][key]
		if !ok {
			rc = &RuleSetCount{Rules: set}
			combos[n][key] = rc
		}
		rc.Count++

		if n > d.MaxRuleCount {
			d.MaxRuleCount = n
		}
	}

	for n, b := range d.Buckets {
		for _, rc := range combos[n] {
			b.RuleSets = append(b.RuleSets, *rc)
		}
		sort.Slice(b.RuleSets, func(i, j int) bool {
			if b.RuleSets[i].Count != b.RuleSets[j].Count {
				return b.RuleSets[i].Count > b.RuleSets[j].Count
			}
			return strings.Join(b.RuleSets[i].Rules, ",") < strings.Join(b.RuleSets[j].Rules, ",")
		})
	}

	if d.MaxRuleCount > 0 {
		for _, id := range d.Buckets[d.MaxRuleCount].Plans {
			d.PlanTypesAtMax[planTypes[id]]++
		}
		d.Note = fmt.Sprintf("plan_type_distribution counts the plans that satisfy %d rules", d.MaxRuleCount)
	} else {
		d.Note = "no plan satisfies any rule"
	}
	return d
}

// Distribution reads the patient's edges and summarizes them.
func (e *Engine) Distribution(ctx context.Context, sess graph.Session, patientID int64) (Distribution, error) {
	edges, err := sess.PatientEdges(ctx, patientID)
	if err != nil {
		return Distribution{}, err
	}
	return ComputeDistribution(edges), nil
}
