package catalog

import (
	"strings"
	"time"

	"planrec/db"
	"planrec/model"

	"github.com/jackc/pgx/v5/pgtype"
)

// PlanRow is the Parquet layout of one catalog plan. Column names match the
// warehouse table, so a file can be loaded without a mapping step.
//
// Benefit cost columns stay text; most are sparse and cost roughly one bit
// per row in the null bitmap when absent.
type PlanRow struct {
	// ── Identity ──────────────────────────────────────────────────────
	PlanID       string  `parquet:"plan_id"`
	BusinessYear *int32  `parquet:"business_year,optional"`
	StateCode    *string `parquet:"state_code,optional"`
	IssuerID     *int32  `parquet:"issuer_id,optional"`

	// ── Descriptive ───────────────────────────────────────────────────
	IssuerMarketPlaceMarketingName *string  `parquet:"issuer_market_place_marketing_name,optional"`
	MarketCoverage                 *string  `parquet:"market_coverage,optional"`
	DentalOnlyPlan                 *string  `parquet:"dental_only_plan,optional"`
	PlanMarketingName              *string  `parquet:"plan_marketing_name,optional"`
	PlanType                       *string  `parquet:"plan_type,optional"`
	MetalLevel                     *string  `parquet:"metal_level,optional"`
	PlanEffectiveDate              *string  `parquet:"plan_effective_date,optional"` // YYYY-MM-DD
	PlanExpirationDate             *string  `parquet:"plan_expiration_date,optional"`
	EHBPercentTotalPremium         *float64 `parquet:"ehb_percent_total_premium,optional"`

	// ── Coverage flags ────────────────────────────────────────────────
	IsNoticeRequiredForPregnancy     *string `parquet:"is_notice_required_for_pregnancy,optional"`
	IsReferralRequiredForSpecialist  *string `parquet:"is_referral_required_for_specialist,optional"`
	ChildOnlyOffering                *string `parquet:"child_only_offering,optional"`
	WellnessProgramOffered           *string `parquet:"wellness_program_offered,optional"`
	DiseaseManagementProgramsOffered *string `parquet:"disease_management_programs_offered,optional"`
	OutOfCountryCoverage             *string `parquet:"out_of_country_coverage,optional"`
	OutOfServiceAreaCoverage         *string `parquet:"out_of_service_area_coverage,optional"`
	NationalNetwork                  *string `parquet:"national_network,optional"`
	IsHSAEligible                    *string `parquet:"is_hsa_eligible,optional"`

	// ── Summary of benefits ───────────────────────────────────────────
	SBCHavingDiabetesDeductible        *string `parquet:"sbc_having_diabetes_deductible,optional"`
	SBCHavingDiabetesCopayment         *string `parquet:"sbc_having_diabetes_copayment,optional"`
	SBCHavingDiabetesCoinsurance       *string `parquet:"sbc_having_diabetes_coinsurance,optional"`
	SBCHavingDiabetesLimit             *string `parquet:"sbc_having_diabetes_limit,optional"`
	SBCHavingaBabyDeductible           *string `parquet:"sbc_havinga_baby_deductible,optional"`
	SBCHavingaBabyCopayment            *string `parquet:"sbc_havinga_baby_copayment,optional"`
	SBCHavingaBabyCoinsurance          *string `parquet:"sbc_havinga_baby_coinsurance,optional"`
	SBCHavingaBabyLimit                *string `parquet:"sbc_havinga_baby_limit,optional"`
	SBCHavingSimplefractureDeductible  *string `parquet:"sbc_having_simplefracture_deductible,optional"`
	SBCHavingSimplefractureCopayment   *string `parquet:"sbc_having_simplefracture_copayment,optional"`
	SBCHavingSimplefractureCoinsurance *string `parquet:"sbc_having_simplefracture_coinsurance,optional"`
	SBCHavingSimplefractureLimit       *string `parquet:"sbc_having_simplefracture_limit,optional"`

	// ── Total EHB tier-1 deductible / out-of-pocket ───────────────────
	TEHBInnTier1IndividualMOOP      *string `parquet:"tehb_inn_tier1_individual_moop,optional"`
	TEHBInnTier1FamilyPerPersonMOOP *string `parquet:"tehb_inn_tier1_family_per_person_moop,optional"`
	TEHBInnTier1FamilyPerGroupMOOP  *string `parquet:"tehb_inn_tier1_family_per_group_moop,optional"`
	TEHBDedInnTier1Individual       *string `parquet:"tehb_ded_inn_tier1_individual,optional"`
	TEHBDedInnTier1FamilyPerPerson  *string `parquet:"tehb_ded_inn_tier1_family_per_person,optional"`
	TEHBDedInnTier1FamilyPerGroup   *string `parquet:"tehb_ded_inn_tier1_family_per_group,optional"`
	TEHBDedInnTier1Coinsurance      *string `parquet:"tehb_ded_inn_tier1_coinsurance,optional"`
	TEHBDedOutOfNetIndividual       *string `parquet:"tehb_ded_out_of_net_individual,optional"`
	TEHBDedOutOfNetFamilyPerPerson  *string `parquet:"tehb_ded_out_of_net_family_per_person,optional"`
}

// RowFromPlan converts a canonical plan into its Parquet row.
func RowFromPlan(p model.Plan) PlanRow {
	return PlanRow{
		PlanID:                             p.PlanID,
		BusinessYear:                       optInt(p.BusinessYear),
		StateCode:                          optStr(p.StateCode),
		IssuerID:                           optInt(p.IssuerID),
		IssuerMarketPlaceMarketingName:     optStr(p.IssuerMarketPlaceMarketingName),
		MarketCoverage:                     optStr(p.MarketCoverage),
		DentalOnlyPlan:                     optStr(p.DentalOnlyPlan),
		PlanMarketingName:                  optStr(p.PlanMarketingName),
		PlanType:                           optStr(p.PlanType),
		MetalLevel:                         optStr(p.MetalLevel),
		PlanEffectiveDate:                  optStr(p.PlanEffectiveDate),
		PlanExpirationDate:                 optStr(p.PlanExpirationDate),
		EHBPercentTotalPremium:             p.EHBPercentTotalPremium,
		IsNoticeRequiredForPregnancy:       optStr(p.IsNoticeRequiredForPregnancy),
		IsReferralRequiredForSpecialist:    optStr(p.IsReferralRequiredForSpecialist),
		ChildOnlyOffering:                  optStr(p.ChildOnlyOffering),
		WellnessProgramOffered:             optStr(p.WellnessProgramOffered),
		DiseaseManagementProgramsOffered:   optStr(p.DiseaseManagementProgramsOffered),
		OutOfCountryCoverage:               optStr(p.OutOfCountryCoverage),
		OutOfServiceAreaCoverage:           optStr(p.OutOfServiceAreaCoverage),
		NationalNetwork:                    optStr(p.NationalNetwork),
		IsHSAEligible:                      optStr(p.IsHSAEligible),
		SBCHavingDiabetesDeductible:        optStr(p.SBCHavingDiabetesDeductible),
		SBCHavingDiabetesCopayment:         optStr(p.SBCHavingDiabetesCopayment),
		SBCHavingDiabetesCoinsurance:       optStr(p.SBCHavingDiabetesCoinsurance),
		SBCHavingDiabetesLimit:             optStr(p.SBCHavingDiabetesLimit),
		SBCHavingaBabyDeductible:           optStr(p.SBCHavingaBabyDeductible),
		SBCHavingaBabyCopayment:            optStr(p.SBCHavingaBabyCopayment),
		SBCHavingaBabyCoinsurance:          optStr(p.SBCHavingaBabyCoinsurance),
		SBCHavingaBabyLimit:                optStr(p.SBCHavingaBabyLimit),
		SBCHavingSimplefractureDeductible:  optStr(p.SBCHavingSimplefractureDeductible),
		SBCHavingSimplefractureCopayment:   optStr(p.SBCHavingSimplefractureCopayment),
		SBCHavingSimplefractureCoinsurance: optStr(p.SBCHavingSimplefractureCoinsurance),
		SBCHavingSimplefractureLimit:       optStr(p.SBCHavingSimplefractureLimit),
		TEHBInnTier1IndividualMOOP:         optStr(p.TEHBInnTier1IndividualMOOP),
		TEHBInnTier1FamilyPerPersonMOOP:    optStr(p.TEHBInnTier1FamilyPerPersonMOOP),
		TEHBInnTier1FamilyPerGroupMOOP:     optStr(p.TEHBInnTier1FamilyPerGroupMOOP),
		TEHBDedInnTier1Individual:          optStr(p.TEHBDedInnTier1Individual),
		TEHBDedInnTier1FamilyPerPerson:     optStr(p.TEHBDedInnTier1FamilyPerPerson),
		TEHBDedInnTier1FamilyPerGroup:      optStr(p.TEHBDedInnTier1FamilyPerGroup),
		TEHBDedInnTier1Coinsurance:         optStr(p.TEHBDedInnTier1Coinsurance),
		TEHBDedOutOfNetIndividual:          optStr(p.TEHBDedOutOfNetIndividual),
		TEHBDedOutOfNetFamilyPerPerson:     optStr(p.TEHBDedOutOfNetFamilyPerPerson),
	}
}

// insertParams converts a Parquet row into COPY parameters.
func (r *PlanRow) insertParams() db.InsertPlansParams {
	return db.InsertPlansParams{
		PlanID:                             sanitizeUTF8(r.PlanID),
		BusinessYear:                       optToPgInt4(r.BusinessYear),
		StateCode:                          optToPgText(r.StateCode),
		IssuerID:                           optToPgInt4(r.IssuerID),
		IssuerMarketPlaceMarketingName:     optToPgText(r.IssuerMarketPlaceMarketingName),
		MarketCoverage:                     optToPgText(r.MarketCoverage),
		DentalOnlyPlan:                     optToPgText(r.DentalOnlyPlan),
		PlanMarketingName:                  optToPgText(r.PlanMarketingName),
		PlanType:                           optToPgText(r.PlanType),
		MetalLevel:                         optToPgText(r.MetalLevel),
		PlanEffectiveDate:                  parseDate(r.PlanEffectiveDate),
		PlanExpirationDate:                 parseDate(r.PlanExpirationDate),
		EhbPercentTotalPremium:             optToPgFloat8(r.EHBPercentTotalPremium),
		IsNoticeRequiredForPregnancy:       optToPgText(r.IsNoticeRequiredForPregnancy),
		IsReferralRequiredForSpecialist:    optToPgText(r.IsReferralRequiredForSpecialist),
		ChildOnlyOffering:                  optToPgText(r.ChildOnlyOffering),
		WellnessProgramOffered:             optToPgText(r.WellnessProgramOffered),
		DiseaseManagementProgramsOffered:   optToPgText(r.DiseaseManagementProgramsOffered),
		OutOfCountryCoverage:               optToPgText(r.OutOfCountryCoverage),
		OutOfServiceAreaCoverage:           optToPgText(r.OutOfServiceAreaCoverage),
		NationalNetwork:                    optToPgText(r.NationalNetwork),
		IsHsaEligible:                      optToPgText(r.IsHSAEligible),
		SbcHavingDiabetesDeductible:        optToPgText(r.SBCHavingDiabetesDeductible),
		SbcHavingDiabetesCopayment:         optToPgText(r.SBCHavingDiabetesCopayment),
		SbcHavingDiabetesCoinsurance:       optToPgText(r.SBCHavingDiabetesCoinsurance),
		SbcHavingDiabetesLimit:             optToPgText(r.SBCHavingDiabetesLimit),
		SbcHavingaBabyDeductible:           optToPgText(r.SBCHavingaBabyDeductible),
		SbcHavingaBabyCopayment:            optToPgText(r.SBCHavingaBabyCopayment),
		SbcHavingaBabyCoinsurance:          optToPgText(r.SBCHavingaBabyCoinsurance),
		SbcHavingaBabyLimit:                optToPgText(r.SBCHavingaBabyLimit),
		SbcHavingSimplefractureDeductible:  optToPgText(r.SBCHavingSimplefractureDeductible),
		SbcHavingSimplefractureCopayment:   optToPgText(r.SBCHavingSimplefractureCopayment),
		SbcHavingSimplefractureCoinsurance: optToPgText(r.SBCHavingSimplefractureCoinsurance),
		SbcHavingSimplefractureLimit:       optToPgText(r.SBCHavingSimplefractureLimit),
		TehbInnTier1IndividualMoop:         optToPgText(r.TEHBInnTier1IndividualMOOP),
		TehbInnTier1FamilyPerPersonMoop:    optToPgText(r.TEHBInnTier1FamilyPerPersonMOOP),
		TehbInnTier1FamilyPerGroupMoop:     optToPgText(r.TEHBInnTier1FamilyPerGroupMOOP),
		TehbDedInnTier1Individual:          optToPgText(r.TEHBDedInnTier1Individual),
		TehbDedInnTier1FamilyPerPerson:     optToPgText(r.TEHBDedInnTier1FamilyPerPerson),
		TehbDedInnTier1FamilyPerGroup:      optToPgText(r.TEHBDedInnTier1FamilyPerGroup),
		TehbDedInnTier1Coinsurance:         optToPgText(r.TEHBDedInnTier1Coinsurance),
		TehbDedOutOfNetIndividual:          optToPgText(r.TEHBDedOutOfNetIndividual),
		TehbDedOutOfNetFamilyPerPerson:     optToPgText(r.TEHBDedOutOfNetFamilyPerPerson),
	}
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optInt(n int) *int32 {
	if n == 0 {
		return nil
	}
	v := int32(n)
	return &v
}

func sanitizeUTF8(s string) string {
	return strings.ToValidUTF8(s, " ")
}

func optToPgText(s *string) pgtype.Text {
	if s == nil || *s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: sanitizeUTF8(*s), Valid: true}
}

func optToPgInt4(n *int32) pgtype.Int4 {
	if n == nil {
		return pgtype.Int4{Valid: false}
	}
	return pgtype.Int4{Int32: *n, Valid: true}
}

func optToPgFloat8(f *float64) pgtype.Float8 {
	if f == nil {
		return pgtype.Float8{Valid: false}
	}
	return pgtype.Float8{Float64: *f, Valid: true}
}

// parseDate accepts YYYY-MM-DD with an MM/DD/YYYY fallback; anything else
// is stored as NULL.
func parseDate(s *string) pgtype.Date {
	if s == nil || *s == "" {
		return pgtype.Date{Valid: false}
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		t, err = time.Parse("01/02/2006", *s)
		if err != nil {
			return pgtype.Date{Valid: false}
		}
	}
	return pgtype.Date{Time: t, Valid: true}
}
