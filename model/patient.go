package model

import "strings"

// ActivityLevel is the self-reported physical activity of a patient.
type ActivityLevel string

const (
	Sedentary ActivityLevel = "sedentary"
	Moderate  ActivityLevel = "moderate"
	Active    ActivityLevel = "active"
)

// Valid reports whether a is one of the known activity levels.
func (a ActivityLevel) Valid() bool {
	switch a {
	case Sedentary, Moderate, Active:
		return true
	}
	return false
}

// BudgetTier is the metal level a patient is willing to pay for. It matches
// the plan catalog's MetalLevel values.
type BudgetTier string

const (
	Bronze   BudgetTier = "Bronze"
	Silver   BudgetTier = "Silver"
	Gold     BudgetTier = "Gold"
	Platinum BudgetTier = "Platinum"
)

// Valid reports whether b is one of the known budget tiers.
func (b BudgetTier) Valid() bool {
	switch b {
	case Bronze, Silver, Gold, Platinum:
		return true
	}
	return false
}

// Patient is the intake profile used for plan filtering and rule evaluation.
// It is read-only once created.
type Patient struct {
	ID                int64         `json:"id"`
	Name              string        `json:"name"`
	Age               int           `json:"age"`
	Gender            string        `json:"gender"`
	State             string        `json:"state"`
	Occupation        string        `json:"occupation,omitempty"`
	Smoker            bool          `json:"smoking_status"`
	ActivityLevel     ActivityLevel `json:"physical_activity_level"`
	MedicalConditions []string      `json:"medical_conditions"`
	TravelCoverage    bool          `json:"travel_coverage_needed"`
	FamilyCoverage    bool          `json:"family_coverage"`
	BudgetTier        BudgetTier    `json:"budget_category,omitempty"`
	HasOffspring      bool          `json:"has_offspring"`
	Married           bool          `json:"is_married"`
}

// HasCondition reports whether name appears in the patient's medical
// condition list. Matching is exact, as entered at intake.
func (p Patient) HasCondition(name string) bool {
	for _, c := range p.MedicalConditions {
		if c == name {
			return true
		}
	}
	return false
}

// IsFemale reports whether the recorded gender is female, ignoring case.
func (p Patient) IsFemale() bool {
	return strings.EqualFold(strings.TrimSpace(p.Gender), "female")
}

// GraphProperties returns the node properties stored on the Patient node.
func (p Patient) GraphProperties() map[string]any {
	conditions := p.MedicalConditions
	if conditions == nil {
		conditions = []string{}
	}
	return map[string]any{
		"name":                    p.Name,
		"age":                     int64(p.Age),
		"gender":                  p.Gender,
		"state":                   p.State,
		"occupation":              p.Occupation,
		"smoking_status":          p.Smoker,
		"physical_activity_level": string(p.ActivityLevel),
		"medical_conditions":      conditions,
		"travel_coverage_needed":  p.TravelCoverage,
		"family_coverage":         p.FamilyCoverage,
		"budget_category":         string(p.BudgetTier),
		"has_offspring":           p.HasOffspring,
		"is_married":              p.Married,
	}
}
