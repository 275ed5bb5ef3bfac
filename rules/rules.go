// Package rules holds the fixed eligibility rule catalog. Each rule pairs a
// predicate over the patient profile with the plan attributes whose per-type
// medians decide which plans satisfy it.
package rules

import "planrec/model"

// Rule names double as graph relationship types.
const (
	Diabetes       = "Diabetes"
	Maternity      = "Maternity"
	OlderAdults    = "Older_Adults"
	FamilyCoverage = "Family_Coverage"
	Default        = "Default"
)

// Considers is the relationship type marking a candidate plan. It is not a
// rule and never counts toward a plan's rule total.
const Considers = "CONSIDERS"

// Rule is one eligibility predicate and its attribute group.
type Rule struct {
	Name       string
	Attributes []string
	applies    func(model.Patient) bool
}

// Applies reports whether the rule is relevant to p. The Default rule never
// applies on its own; it is selected only when nothing else matched.
func (r Rule) Applies(p model.Patient) bool {
	if r.applies == nil {
		return false
	}
	return r.applies(p)
}

var catalog = []Rule{
	{
		Name: Diabetes,
		Attributes: []string{
			"SBCHavingDiabetesCoinsurance",
			"SBCHavingDiabetesDeductible",
			"SBCHavingDiabetesLimit",
			"SBCHavingDiabetesCopayment",
		},
		applies: func(p model.Patient) bool { return p.HasCondition("Diabetes") },
	},
	{
		Name: Maternity,
		Attributes: []string{
			"SBCHavingaBabyDeductible",
			"SBCHavingaBabyCoinsurance",
			"SBCHavingaBabyLimit",
			"SBCHavingaBabyCopayment",
		},
		applies: func(p model.Patient) bool { return p.IsFemale() && p.Age >= 18 && p.Age <= 45 },
	},
	{
		Name: OlderAdults,
		Attributes: []string{
			"TEHBInnTier1IndividualMOOP",
			"TEHBDedInnTier1Individual",
			"TEHBDedInnTier1Coinsurance",
		},
		applies: func(p model.Patient) bool { return p.Age >= 50 },
	},
	{
		Name: FamilyCoverage,
		Attributes: []string{
			"TEHBDedInnTier1FamilyPerPerson",
			"TEHBDedOutOfNetFamilyPerPerson",
			"TEHBInnTier1FamilyPerPersonMOOP",
			"TEHBDedInnTier1FamilyPerGroup",
			"TEHBInnTier1FamilyPerGroupMOOP",
		},
		applies: func(p model.Patient) bool { return p.FamilyCoverage },
	},
	{
		Name: Default,
		Attributes: []string{
			"TEHBDedInnTier1Individual",
			"TEHBDedInnTier1Coinsurance",
			"TEHBInnTier1IndividualMOOP",
		},
	},
}

var (
	byName     = make(map[string]Rule)
	attributes = make(map[string]bool)
)

func init() {
	for _, r := range catalog {
		byName[r.Name] = r
		for _, a := range r.Attributes {
			attributes[a] = true
		}
	}
}

// All returns the catalog in evaluation order.
func All() []Rule {
	out := make([]Rule, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the rule with the given name.
func Lookup(name string) (Rule, bool) {
	r, ok := byName[name]
	return r, ok
}

// Select returns every rule applicable to p, in catalog order. When no
// specific rule applies the Default rule is returned alone.
func Select(p model.Patient) []Rule {
	var selected []Rule
	for _, r := range catalog {
		if r.Applies(p) {
			selected = append(selected, r)
		}
	}
	if len(selected) == 0 {
		selected = append(selected, byName[Default])
	}
	return selected
}

// IsRuleLabel reports whether label names a rule in the catalog.
func IsRuleLabel(label string) bool {
	_, ok := byName[label]
	return ok
}

// IsAttribute reports whether name belongs to some rule's attribute group.
// Only these names may appear structurally in graph queries.
func IsAttribute(name string) bool {
	return attributes[name]
}

// NumericAttributes returns every attribute referenced by the catalog.
// These are normalized as numbers when plans are written to the graph.
func NumericAttributes() map[string]bool {
	out := make(map[string]bool, len(attributes))
	for a := range attributes {
		out[a] = true
	}
	return out
}
