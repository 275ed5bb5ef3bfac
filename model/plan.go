package model

import (
	"reflect"
	"sync"
)

// Plan is the canonical insurance plan record. Field names (the mapstructure
// tags) are the target schema the warehouse columns are projected onto; the
// same names are used as graph node properties and in the LLM hand-off.
//
// Benefit cost fields are kept as the warehouse text ("$1,500.00", "20%",
// "Not Applicable"); they are normalized to numbers only when projected into
// the graph store.
type Plan struct {
	// ── Identity & descriptive ────────────────────────────────────────
	PlanID                         string   `mapstructure:"PlanId" json:"PlanId" validate:"required"`
	BusinessYear                   int      `mapstructure:"BusinessYear" json:"BusinessYear,omitempty"`
	StateCode                      string   `mapstructure:"StateCode" json:"StateCode,omitempty"`
	IssuerID                       int      `mapstructure:"IssuerId" json:"IssuerId,omitempty"`
	IssuerMarketPlaceMarketingName string   `mapstructure:"IssuerMarketPlaceMarketingName" json:"IssuerMarketPlaceMarketingName,omitempty"`
	MarketCoverage                 string   `mapstructure:"MarketCoverage" json:"MarketCoverage,omitempty"`
	DentalOnlyPlan                 string   `mapstructure:"DentalOnlyPlan" json:"DentalOnlyPlan,omitempty"`
	PlanMarketingName              string   `mapstructure:"PlanMarketingName" json:"PlanMarketingName,omitempty"`
	PlanType                       string   `mapstructure:"PlanType" json:"PlanType,omitempty"`
	MetalLevel                     string   `mapstructure:"MetalLevel" json:"MetalLevel,omitempty"`
	PlanEffectiveDate              string   `mapstructure:"PlanEffectiveDate" json:"PlanEffectiveDate,omitempty"`
	PlanExpirationDate             string   `mapstructure:"PlanExpirationDate" json:"PlanExpirationDate,omitempty"`
	EHBPercentTotalPremium         *float64 `mapstructure:"EHBPercentTotalPremium" json:"EHBPercentTotalPremium,omitempty"`

	// ── Coverage flags ────────────────────────────────────────────────
	IsNoticeRequiredForPregnancy     string `mapstructure:"IsNoticeRequiredForPregnancy" json:"IsNoticeRequiredForPregnancy,omitempty"`
	IsReferralRequiredForSpecialist  string `mapstructure:"IsReferralRequiredForSpecialist" json:"IsReferralRequiredForSpecialist,omitempty"`
	ChildOnlyOffering                string `mapstructure:"ChildOnlyOffering" json:"ChildOnlyOffering,omitempty"`
	WellnessProgramOffered           string `mapstructure:"WellnessProgramOffered" json:"WellnessProgramOffered,omitempty"`
	DiseaseManagementProgramsOffered string `mapstructure:"DiseaseManagementProgramsOffered" json:"DiseaseManagementProgramsOffered,omitempty"`
	OutOfCountryCoverage             string `mapstructure:"OutOfCountryCoverage" json:"OutOfCountryCoverage,omitempty"`
	OutOfServiceAreaCoverage         string `mapstructure:"OutOfServiceAreaCoverage" json:"OutOfServiceAreaCoverage,omitempty"`
	NationalNetwork                  string `mapstructure:"NationalNetwork" json:"NationalNetwork,omitempty"`
	IsHSAEligible                    string `mapstructure:"IsHSAEligible" json:"IsHSAEligible,omitempty"`

	// ── Summary of benefits: diabetes ─────────────────────────────────
	SBCHavingDiabetesDeductible  string `mapstructure:"SBCHavingDiabetesDeductible" json:"SBCHavingDiabetesDeductible,omitempty"`
	SBCHavingDiabetesCopayment   string `mapstructure:"SBCHavingDiabetesCopayment" json:"SBCHavingDiabetesCopayment,omitempty"`
	SBCHavingDiabetesCoinsurance string `mapstructure:"SBCHavingDiabetesCoinsurance" json:"SBCHavingDiabetesCoinsurance,omitempty"`
	SBCHavingDiabetesLimit       string `mapstructure:"SBCHavingDiabetesLimit" json:"SBCHavingDiabetesLimit,omitempty"`

	// ── Summary of benefits: maternity ────────────────────────────────
	SBCHavingaBabyDeductible  string `mapstructure:"SBCHavingaBabyDeductible" json:"SBCHavingaBabyDeductible,omitempty"`
	SBCHavingaBabyCopayment   string `mapstructure:"SBCHavingaBabyCopayment" json:"SBCHavingaBabyCopayment,omitempty"`
	SBCHavingaBabyCoinsurance string `mapstructure:"SBCHavingaBabyCoinsurance" json:"SBCHavingaBabyCoinsurance,omitempty"`
	SBCHavingaBabyLimit       string `mapstructure:"SBCHavingaBabyLimit" json:"SBCHavingaBabyLimit,omitempty"`

	// ── Summary of benefits: simple fracture ──────────────────────────
	SBCHavingSimplefractureDeductible  string `mapstructure:"SBCHavingSimplefractureDeductible" json:"SBCHavingSimplefractureDeductible,omitempty"`
	SBCHavingSimplefractureCopayment   string `mapstructure:"SBCHavingSimplefractureCopayment" json:"SBCHavingSimplefractureCopayment,omitempty"`
	SBCHavingSimplefractureCoinsurance string `mapstructure:"SBCHavingSimplefractureCoinsurance" json:"SBCHavingSimplefractureCoinsurance,omitempty"`
	SBCHavingSimplefractureLimit       string `mapstructure:"SBCHavingSimplefractureLimit" json:"SBCHavingSimplefractureLimit,omitempty"`

	// ── Total EHB tier-1 deductible / out-of-pocket ───────────────────
	TEHBInnTier1IndividualMOOP      string `mapstructure:"TEHBInnTier1IndividualMOOP" json:"TEHBInnTier1IndividualMOOP,omitempty"`
	TEHBInnTier1FamilyPerPersonMOOP string `mapstructure:"TEHBInnTier1FamilyPerPersonMOOP" json:"TEHBInnTier1FamilyPerPersonMOOP,omitempty"`
	TEHBInnTier1FamilyPerGroupMOOP  string `mapstructure:"TEHBInnTier1FamilyPerGroupMOOP" json:"TEHBInnTier1FamilyPerGroupMOOP,omitempty"`
	TEHBDedInnTier1Individual       string `mapstructure:"TEHBDedInnTier1Individual" json:"TEHBDedInnTier1Individual,omitempty"`
	TEHBDedInnTier1FamilyPerPerson  string `mapstructure:"TEHBDedInnTier1FamilyPerPerson" json:"TEHBDedInnTier1FamilyPerPerson,omitempty"`
	TEHBDedInnTier1FamilyPerGroup   string `mapstructure:"TEHBDedInnTier1FamilyPerGroup" json:"TEHBDedInnTier1FamilyPerGroup,omitempty"`
	TEHBDedInnTier1Coinsurance      string `mapstructure:"TEHBDedInnTier1Coinsurance" json:"TEHBDedInnTier1Coinsurance,omitempty"`
	TEHBDedOutOfNetIndividual       string `mapstructure:"TEHBDedOutOfNetIndividual" json:"TEHBDedOutOfNetIndividual,omitempty"`
	TEHBDedOutOfNetFamilyPerPerson  string `mapstructure:"TEHBDedOutOfNetFamilyPerPerson" json:"TEHBDedOutOfNetFamilyPerPerson,omitempty"`

	// Extra holds warehouse columns with no canonical field, keyed by the
	// original column name.
	Extra map[string]any `mapstructure:",remain" json:"Extra,omitempty"`
}

type planField struct {
	name  string
	index int
}

var (
	planFieldsOnce sync.Once
	planFields     []planField
)

func loadPlanFields() []planField {
	planFieldsOnce.Do(func() {
		t := reflect.TypeOf(Plan{})
		for i := 0; i < t.NumField(); i++ {
			tag := t.Field(i).Tag.Get("mapstructure")
			if tag == "" || tag[0] == ',' {
				continue
			}
			planFields = append(planFields, planField{name: tag, index: i})
		}
	})
	return planFields
}

// PlanFieldNames returns the canonical target schema in declaration order.
func PlanFieldNames() []string {
	fields := loadPlanFields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.name
	}
	return names
}

// Attributes returns the plan's populated canonical fields keyed by field
// name. Zero-valued fields are omitted; pointer fields are dereferenced.
func (p *Plan) Attributes() map[string]any {
	v := reflect.ValueOf(p).Elem()
	out := make(map[string]any, len(loadPlanFields()))
	for _, f := range loadPlanFields() {
		fv := v.Field(f.index)
		if fv.IsZero() {
			continue
		}
		if fv.Kind() == reflect.Pointer {
			fv = fv.Elem()
		}
		out[f.name] = fv.Interface()
	}
	return out
}
