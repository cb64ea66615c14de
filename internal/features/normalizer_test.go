package features

import (
	"math"
	"testing"
	"time"

	"FraudSight/internal/domain/models"
)

func fixedClock() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestNormalizeEmptyInputUsesDefaults(t *testing.T) {
	n := NewNormalizerAt(fixedClock)
	v := n.Normalize(map[string]interface{}{})
	if len(v) != models.FeatureCount {
		t.Fatalf("expected %d features, got %d", models.FeatureCount, len(v))
	}
	if v[models.FeatureIndex("credit_score")] != 650 {
		t.Fatalf("expected default credit_score 650, got %v", v[0])
	}
	if v[models.FeatureIndex("debt_to_income_ratio")] != 35.0 {
		t.Fatalf("expected default dti 35, got %v", v[1])
	}
	if v[models.FeatureIndex("loan_to_value_ratio")] != 85.0 {
		t.Fatalf("expected default ltv 85, got %v", v[2])
	}
	if v[models.FeatureIndex("vehicle_age")] != 5.0 {
		t.Fatalf("expected default vehicle_age 5, got %v", v[5])
	}
	if v[models.FeatureIndex("applicant_age")] != 35.0 {
		t.Fatalf("expected default applicant_age 35, got %v", v[14])
	}
}

func TestNormalizeAlwaysWithinBounds(t *testing.T) {
	n := NewNormalizerAt(fixedClock)
	inputs := []map[string]interface{}{
		{},
		{"credit_score": 9000, "annual_income": -5, "loan_term_months": 1},
		{"credit_score": -100, "delinquencies_24m": 99, "vehicle_year": 1900},
		{"applicant": map[string]interface{}{"credit_score": 720, "annual_income": 85000}},
		{"loan_amount": 1e12, "vehicle_value": 1},
	}
	for i, raw := range inputs {
		v := n.Normalize(raw)
		if !n.Validate(v) {
			t.Fatalf("input %d produced out-of-bounds vector %v", i, v)
		}
	}
}

func TestNormalizeNestedPaths(t *testing.T) {
	n := NewNormalizerAt(fixedClock)
	raw := map[string]interface{}{
		"financial_info": map[string]interface{}{"credit_score": 712},
		"loan":           map[string]interface{}{"amount": 20000, "term_months": 48},
		"vehicle":        map[string]interface{}{"value": 40000},
	}
	v := n.Normalize(raw)
	if v[models.FeatureIndex("credit_score")] != 712 {
		t.Fatalf("expected 712, got %v", v[0])
	}
	if v[models.FeatureIndex("loan_amount")] != 20000 {
		t.Fatalf("expected 20000, got %v", v[8])
	}
	// ltv = 20000/40000*100
	if v[models.FeatureIndex("loan_to_value_ratio")] != 50 {
		t.Fatalf("expected ltv 50, got %v", v[2])
	}
}

func TestNormalizeDirectDTIMatchesLookup(t *testing.T) {
	n := NewNormalizerAt(fixedClock)
	v := n.Normalize(map[string]interface{}{"debt_to_income_ratio": 42.5})
	if v[models.FeatureIndex("debt_to_income_ratio")] != 42.5 {
		t.Fatalf("direct dti not honored, got %v", v[1])
	}
}

func TestNormalizeDerivedDTI(t *testing.T) {
	n := NewNormalizerAt(fixedClock)
	raw := map[string]interface{}{
		"loan_amount":      24000,
		"loan_term_months": 48,
		"annual_income":    60000,
	}
	// monthly payment 500, monthly income 5000 -> 10%
	v := n.Normalize(raw)
	if math.Abs(v[models.FeatureIndex("debt_to_income_ratio")]-10) > 1e-9 {
		t.Fatalf("expected dti 10, got %v", v[1])
	}
}

func TestNormalizeDTINonPositiveIncome(t *testing.T) {
	n := NewNormalizerAt(fixedClock)
	raw := map[string]interface{}{
		"loan_amount":   24000,
		"annual_income": 0,
	}
	v := n.Normalize(raw)
	if v[models.FeatureIndex("debt_to_income_ratio")] != 35.0 {
		t.Fatalf("expected fallback 35, got %v", v[1])
	}
}

func TestNormalizeVehicleAgeFromYear(t *testing.T) {
	n := NewNormalizerAt(fixedClock)
	v := n.Normalize(map[string]interface{}{"vehicle_year": 2019})
	if v[models.FeatureIndex("vehicle_age")] != 5 {
		t.Fatalf("expected vehicle_age 5, got %v", v[5])
	}

	// Future model year must not go negative.
	v = n.Normalize(map[string]interface{}{"vehicle_year": 2030})
	if v[models.FeatureIndex("vehicle_age")] != 0 {
		t.Fatalf("expected vehicle_age 0, got %v", v[5])
	}
}

func TestNormalizeApplicantAgeFromDOB(t *testing.T) {
	n := NewNormalizerAt(fixedClock)

	// Birthday already passed in 2024 relative to June 1.
	v := n.Normalize(map[string]interface{}{"date_of_birth": "1990-03-10"})
	if v[models.FeatureIndex("applicant_age")] != 34 {
		t.Fatalf("expected 34, got %v", v[14])
	}

	// Birthday not yet reached.
	v = n.Normalize(map[string]interface{}{"date_of_birth": "1990-09-10"})
	if v[models.FeatureIndex("applicant_age")] != 33 {
		t.Fatalf("expected 33, got %v", v[14])
	}

	// Timestamp form.
	v = n.Normalize(map[string]interface{}{
		"applicant": map[string]interface{}{"date_of_birth": "1990-03-10T08:30:00Z"},
	})
	if v[models.FeatureIndex("applicant_age")] != 34 {
		t.Fatalf("expected 34 from timestamp, got %v", v[14])
	}
}

func TestNormalizeDirectAgeWinsOverDOB(t *testing.T) {
	n := NewNormalizerAt(fixedClock)
	v := n.Normalize(map[string]interface{}{
		"age":           44,
		"date_of_birth": "1990-03-10",
	})
	if v[models.FeatureIndex("applicant_age")] != 44 {
		t.Fatalf("expected 44, got %v", v[14])
	}
}

func TestValidate(t *testing.T) {
	n := NewNormalizerAt(fixedClock)
	good := n.Normalize(map[string]interface{}{})
	if !n.Validate(good) {
		t.Fatalf("expected valid vector")
	}

	if n.Validate(good[:14]) {
		t.Fatalf("expected short vector rejected")
	}

	bad := append(models.FeatureVector{}, good...)
	bad[0] = math.NaN()
	if n.Validate(bad) {
		t.Fatalf("expected NaN rejected")
	}

	bad[0] = 200 // below credit_score min
	if n.Validate(bad) {
		t.Fatalf("expected out-of-bounds rejected")
	}
}

func TestNormalizeNumericStrings(t *testing.T) {
	n := NewNormalizerAt(fixedClock)
	v := n.Normalize(map[string]interface{}{"credit_score": "705"})
	if v[models.FeatureIndex("credit_score")] != 705 {
		t.Fatalf("expected coerced 705, got %v", v[0])
	}
}
