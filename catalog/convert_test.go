package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testCSV = "\ufeffPlanId,BusinessYear,StateCode,PlanType,MetalLevel,PlanEffectiveDate,OutOfCountryCoverage,TEHBDedInnTier1Individual,Notes\n" +
	"21989AK0010001-00,2024,AK,PPO,Silver,01/01/2024,No,\"$3,000\",first\n" +
	"21989AK0010002-00,2024,AK,HMO,Gold,2024-01-01,Yes,,\n" +
	"21989AK0010003-00,,AK,HMO,Gold,,No,Not Applicable\n"

func TestConvertCSV(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "plans.csv")
	out := filepath.Join(dir, "plans.parquet")
	if err := os.WriteFile(in, []byte(testCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	stats, err := ConvertCSV(in, out, 2, nil)
	if err != nil {
		t.Fatalf("ConvertCSV: %v", err)
	}
	if stats.Rows != 3 {
		t.Fatalf("converted %d rows, want 3", stats.Rows)
	}

	rows, err := ReadParquet(out)
	if err != nil {
		t.Fatalf("ReadParquet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("read %d rows, want 3", len(rows))
	}

	first := rows[0]
	if first.PlanID != "21989AK0010001-00" {
		t.Errorf("plan id = %q", first.PlanID)
	}
	if first.BusinessYear == nil || *first.BusinessYear != 2024 {
		t.Errorf("business year = %v", first.BusinessYear)
	}
	if first.PlanEffectiveDate == nil || *first.PlanEffectiveDate != "2024-01-01" {
		t.Errorf("effective date = %v", first.PlanEffectiveDate)
	}
	if first.TEHBDedInnTier1Individual == nil || *first.TEHBDedInnTier1Individual != "$3,000" {
		t.Errorf("deductible = %v", first.TEHBDedInnTier1Individual)
	}
	if rows[1].TEHBDedInnTier1Individual != nil {
		t.Errorf("empty cell should be null, got %q", *rows[1].TEHBDedInnTier1Individual)
	}
	if rows[2].BusinessYear != nil {
		t.Errorf("missing year should be null, got %d", *rows[2].BusinessYear)
	}
	if rows[2].TEHBDedInnTier1Individual == nil || *rows[2].TEHBDedInnTier1Individual != "Not Applicable" {
		t.Errorf("published text must be kept verbatim, got %v", rows[2].TEHBDedInnTier1Individual)
	}
}

func TestConvertCSVReportsLine(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.csv")
	data := "PLAN_ID,BUSINESS_YEAR\nA,2024\nB,2024\nC,someday\n"
	if err := os.WriteFile(in, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := ConvertCSV(in, filepath.Join(dir, "bad.parquet"), 2, nil)
	if err == nil {
		t.Fatal("expected projection error")
	}
	if !strings.Contains(err.Error(), "CSV line 4") {
		t.Errorf("error should name CSV line 4: %v", err)
	}
}
