package recommend

import (
	"encoding/json"
	"fmt"
	"strings"

	"planrec/model"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

const roleText = "You are an insurance analyst. You rank health insurance plans for one " +
	"patient, weighting each plan attribute by how much it matters to that patient, " +
	"and you explain every score you give."

const scoringText = `Score the plans against the patient below.

For every plan attribute:
1. Judge its relevance to this patient as high, moderate, low or none, using occupation, medical conditions, lifestyle, age and stated needs.
2. Score it: high 2-3 points, moderate 1-2, low 0-1, none 0.
3. Say in the score explanation why the attribute earned that score.

Guidance:
- Frequent travellers care about OutOfCountryCoverage.
- Physically risky occupations make injury costs such as SBCHavingSimplefractureDeductible weigh more.
- Chronic conditions make DiseaseManagementProgramsOffered highly relevant.
- Weigh Deductible, MaxOutOfPocket and HSA eligibility against the patient's budget.
Missing attributes are noted, never penalized.`

const schemaText = `Reply with one JSON object and nothing else:
{
  "recommended_plans": [{
    "rank": integer starting at 1,
    "PlanId": string,
    "PlanMarketingName": string,
    "IssuerName": string (from IssuerMarketPlaceMarketingName),
    "MetalLevel": string,
    "Deductible": string (from TEHBDedInnTier1Individual),
    "MaxOutOfPocket": string (from TEHBInnTier1IndividualMOOP),
    "TotalScore": integer, the sum of the attribute scores,
    "ScoreExplanation": string,
    "Justification": string
  }],
  "summary": string comparing the top plan with the others
}
Return the best %d plans, each PlanId and PlanMarketingName at most once.`

// BuildMessages returns the conversation sent to the model. System is false
// for models that reject a system role.
func BuildMessages(patient model.Patient, plans []map[string]any, topN int, system bool) ([]llms.MessageContent, error) {
	patientJSON, err := json.Marshal(patient)
	if err != nil {
		return nil, fmt.Errorf("encode patient: %w", err)
	}
	plansJSON, err := json.Marshal(plans)
	if err != nil {
		return nil, fmt.Errorf("encode plans: %w", err)
	}

	roleType := schema.ChatMessageTypeSystem
	if !system {
		roleType = schema.ChatMessageTypeHuman
	}

	return []llms.MessageContent{
		llms.TextParts(roleType, roleText),
		llms.TextParts(schema.ChatMessageTypeHuman, scoringText),
		llms.TextParts(schema.ChatMessageTypeHuman, "Patient: "+string(patientJSON)),
		llms.TextParts(schema.ChatMessageTypeHuman, fmt.Sprintf(schemaText, topN)),
		llms.TextParts(schema.ChatMessageTypeHuman, "Plans: "+string(plansJSON)),
	}, nil
}

// extractJSON trims markdown fences and any prose around the outermost
// JSON object.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return strings.TrimSpace(s)
	}
	return s[start : end+1]
}
