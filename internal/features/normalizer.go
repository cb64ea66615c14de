package features

import (
	"math"
	"strconv"
	"time"

	"FraudSight/internal/domain/models"
	"FraudSight/pkg/util"
)

// bound is the inclusive [min,max] range a feature is clamped to.
type bound struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// featureBounds maps every canonical feature to its clamp range.
var featureBounds = map[string]bound{
	"credit_score":         {300, 850},
	"debt_to_income_ratio": {0, 100},
	"loan_to_value_ratio":  {0, 150},
	"employment_months":    {0, 600},
	"annual_income":        {0, 1000000},
	"vehicle_age":          {0, 50},
	"credit_history_years": {0, 50},
	"delinquencies_24m":    {0, 20},
	"loan_amount":          {1000, 200000},
	"vehicle_value":        {1000, 500000},
	"credit_utilization":   {0, 100},
	"recent_inquiries_6m":  {0, 20},
	"address_months":       {0, 600},
	"loan_term_months":     {12, 120},
	"applicant_age":        {18, 100},
}

// lookupSpec describes how a directly-resolvable feature is found in
// raw application data: candidate paths tried in order, then a default.
type lookupSpec struct {
	paths   [][]string
	defVal  float64
}

var lookupSpecs = map[string]lookupSpec{
	"credit_score": {
		paths: [][]string{
			{"credit_score"},
			{"applicant", "credit_score"},
			{"personal_info", "credit_score"},
			{"financial_info", "credit_score"},
		},
		defVal: 650,
	},
	"employment_months": {
		paths: [][]string{
			{"employment_months"},
			{"applicant", "employment_months"},
			{"financial_info", "employment_months"},
			{"personal_info", "employment_months"},
		},
		defVal: 24,
	},
	"annual_income": {
		paths: [][]string{
			{"annual_income"},
			{"applicant", "annual_income"},
			{"financial_info", "annual_income"},
			{"personal_info", "annual_income"},
		},
		defVal: 50000,
	},
	"credit_history_years": {
		paths: [][]string{
			{"credit_history_years"},
			{"applicant", "credit_history_years"},
			{"financial_info", "credit_history_years"},
		},
		defVal: 7,
	},
	"delinquencies_24m": {
		paths: [][]string{
			{"delinquencies_24m"},
			{"applicant", "delinquencies_24m"},
			{"financial_info", "delinquencies_24m"},
			{"credit_info", "delinquencies_24m"},
		},
		defVal: 1,
	},
	"loan_amount": {
		paths: [][]string{
			{"loan_amount"},
			{"loan", "amount"},
			{"loan_info", "amount"},
		},
		defVal: 25000,
	},
	"vehicle_value": {
		paths: [][]string{
			{"vehicle_value"},
			{"vehicle", "value"},
			{"vehicle", "estimated_value"},
			{"vehicle_info", "value"},
			{"vehicle_info", "estimated_value"},
		},
		defVal: 30000,
	},
	"credit_utilization": {
		paths: [][]string{
			{"credit_utilization"},
			{"applicant", "credit_utilization"},
			{"financial_info", "credit_utilization"},
			{"credit_info", "utilization"},
		},
		defVal: 30,
	},
	"recent_inquiries_6m": {
		paths: [][]string{
			{"recent_inquiries_6m"},
			{"applicant", "recent_inquiries_6m"},
			{"financial_info", "recent_inquiries_6m"},
			{"credit_info", "recent_inquiries_6m"},
		},
		defVal: 1,
	},
	"address_months": {
		paths: [][]string{
			{"address_months"},
			{"applicant", "address_months"},
			{"personal_info", "address_months"},
			{"address", "months"},
		},
		defVal: 24,
	},
	"loan_term_months": {
		paths: [][]string{
			{"loan_term_months"},
			{"loan", "term_months"},
			{"loan_info", "term_months"},
		},
		defVal: 60,
	},
}

var vehicleYearPaths = [][]string{
	{"vehicle_year"},
	{"vehicle", "year"},
	{"vehicle_info", "year"},
}

var agePaths = [][]string{
	{"age"},
	{"applicant", "age"},
	{"personal_info", "age"},
}

var dobPaths = [][]string{
	{"date_of_birth"},
	{"applicant", "date_of_birth"},
	{"personal_info", "date_of_birth"},
}

// Normalizer converts raw, loosely structured application data into
// the fixed 15-element feature vector the scoring models expect.
// Missing fields never fail a call; every feature has a default.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a Normalizer using the wall clock for age and
// vehicle-age derivations.
func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// NewNormalizerAt creates a Normalizer pinned to a fixed clock.
func NewNormalizerAt(now func() time.Time) *Normalizer {
	return &Normalizer{now: now}
}

// Normalize resolves, derives and clamps all 15 features. Output order
// matches models.FeatureNames exactly.
func (n *Normalizer) Normalize(raw map[string]interface{}) models.FeatureVector {
	resolved := map[string]float64{
		"debt_to_income_ratio": n.debtToIncomeRatio(raw),
		"loan_to_value_ratio":  n.loanToValueRatio(raw),
		"vehicle_age":          n.vehicleAge(raw),
		"applicant_age":        n.applicantAge(raw),
	}
	for name, spec := range lookupSpecs {
		resolved[name] = lookupNumber(raw, spec.paths, spec.defVal)
	}

	vector := make(models.FeatureVector, 0, models.FeatureCount)
	for _, name := range models.FeatureNames() {
		vector = append(vector, clamp(name, resolved[name]))
	}
	return vector
}

// Validate checks an externally supplied vector: correct length, all
// values finite and inside their declared bounds.
func (n *Normalizer) Validate(vector []float64) bool {
	if len(vector) != models.FeatureCount {
		return false
	}
	for i, name := range models.FeatureNames() {
		v := vector[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
		b := featureBounds[name]
		if v < b.Min || v > b.Max {
			return false
		}
	}
	return true
}

// Info describes the expected feature schema for API consumers.
func (n *Normalizer) Info() map[string]interface{} {
	bounds := make(map[string][2]float64, len(featureBounds))
	for name, b := range featureBounds {
		bounds[name] = [2]float64{b.Min, b.Max}
	}
	return map[string]interface{}{
		"feature_names":  models.FeatureNames(),
		"feature_count":  models.FeatureCount,
		"feature_bounds": bounds,
		"description":    "Top-15 features for auto loan fraud detection",
	}
}

// debtToIncomeRatio derives DTI as simplified monthly payment over
// monthly income, in percent. A direct field wins over the derivation.
func (n *Normalizer) debtToIncomeRatio(raw map[string]interface{}) float64 {
	direct := [][]string{
		{"debt_to_income_ratio"},
		{"applicant", "debt_to_income_ratio"},
		{"financial_info", "debt_to_income_ratio"},
	}
	if v, ok := tryLookupNumber(raw, direct); ok {
		return v
	}

	loanAmount, okAmount := tryLookupNumber(raw, lookupSpecs["loan_amount"].paths)
	loanTerm, okTerm := tryLookupNumber(raw, lookupSpecs["loan_term_months"].paths)
	annualIncome, okIncome := tryLookupNumber(raw, lookupSpecs["annual_income"].paths)

	// Nothing to derive from: default ratio rather than a ratio of defaults.
	if !okAmount && !okTerm && !okIncome {
		return 35.0
	}
	if !okAmount {
		loanAmount = lookupSpecs["loan_amount"].defVal
	}
	if !okTerm {
		loanTerm = lookupSpecs["loan_term_months"].defVal
	}
	if !okIncome {
		annualIncome = lookupSpecs["annual_income"].defVal
	}

	if annualIncome <= 0 || loanTerm <= 0 {
		return 35.0
	}

	monthlyPayment := loanAmount / loanTerm
	monthlyIncome := annualIncome / 12
	ratio := (monthlyPayment / monthlyIncome) * 100
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 35.0
	}
	return math.Min(ratio, 100.0)
}

// loanToValueRatio derives LTV in percent, capped at 150.
func (n *Normalizer) loanToValueRatio(raw map[string]interface{}) float64 {
	direct := [][]string{
		{"loan_to_value_ratio"},
		{"loan", "loan_to_value_ratio"},
		{"loan_info", "loan_to_value_ratio"},
	}
	if v, ok := tryLookupNumber(raw, direct); ok {
		return v
	}

	loanAmount, okAmount := tryLookupNumber(raw, lookupSpecs["loan_amount"].paths)
	vehicleValue, okValue := tryLookupNumber(raw, lookupSpecs["vehicle_value"].paths)

	if !okAmount && !okValue {
		return 85.0
	}
	if !okAmount {
		loanAmount = lookupSpecs["loan_amount"].defVal
	}
	if !okValue {
		vehicleValue = lookupSpecs["vehicle_value"].defVal
	}

	if vehicleValue <= 0 {
		return 85.0
	}

	ratio := (loanAmount / vehicleValue) * 100
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 85.0
	}
	return math.Min(ratio, 150.0)
}

// vehicleAge derives age from a model-year field; never negative.
func (n *Normalizer) vehicleAge(raw map[string]interface{}) float64 {
	if year, ok := tryLookupNumber(raw, vehicleYearPaths); ok && year > 0 {
		age := float64(n.now().Year()) - math.Trunc(year)
		return math.Max(0, age)
	}
	return 5.0
}

// applicantAge prefers a direct age field and falls back to a
// date-of-birth field, accepting date-only and timestamp formats.
func (n *Normalizer) applicantAge(raw map[string]interface{}) float64 {
	if v, ok := tryLookupNumber(raw, agePaths); ok {
		return v
	}
	for _, path := range dobPaths {
		v, ok := lookupPath(raw, path)
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if dob, ok := util.ParseDate(s); ok {
			return float64(util.AgeAt(dob, n.now()))
		}
	}
	return 35.0
}

// clamp bounds a resolved value to its feature's declared range.
func clamp(name string, v float64) float64 {
	b, ok := featureBounds[name]
	if !ok {
		return v
	}
	if math.IsNaN(v) {
		return b.Min
	}
	return math.Max(b.Min, math.Min(b.Max, v))
}

// lookupPath walks nested maps along path and returns the raw value.
func lookupPath(data map[string]interface{}, path []string) (interface{}, bool) {
	var current interface{} = data
	for _, key := range path {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// tryLookupNumber returns the first path that resolves to a numeric value.
func tryLookupNumber(data map[string]interface{}, paths [][]string) (float64, bool) {
	for _, path := range paths {
		raw, ok := lookupPath(data, path)
		if !ok {
			continue
		}
		if v, ok := coerceNumber(raw); ok {
			return v, true
		}
	}
	return 0, false
}

// lookupNumber is tryLookupNumber with a default.
func lookupNumber(data map[string]interface{}, paths [][]string, def float64) float64 {
	if v, ok := tryLookupNumber(data, paths); ok {
		return v
	}
	return def
}

// coerceNumber converts the loosely typed values JSON decoding
// produces into float64.
func coerceNumber(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}
