package models

// FeatureCount is the fixed length of every model input vector.
const FeatureCount = 15

// featureNames is the canonical feature order shared by the normalizer,
// the scoring engine and the trainer. Models are trained and scored
// against exactly this order.
var featureNames = [FeatureCount]string{
	"credit_score",
	"debt_to_income_ratio",
	"loan_to_value_ratio",
	"employment_months",
	"annual_income",
	"vehicle_age",
	"credit_history_years",
	"delinquencies_24m",
	"loan_amount",
	"vehicle_value",
	"credit_utilization",
	"recent_inquiries_6m",
	"address_months",
	"loan_term_months",
	"applicant_age",
}

// FeatureNames returns the canonical feature order as a fresh slice.
func FeatureNames() []string {
	names := make([]string, FeatureCount)
	copy(names[:], featureNames[:])
	return names
}

// FeatureIndex returns the position of a feature in the canonical order,
// or -1 if the name is unknown.
func FeatureIndex(name string) int {
	for i, n := range featureNames {
		if n == name {
			return i
		}
	}
	return -1
}

// FeatureVector is an ordered 15-element numeric model input.
type FeatureVector []float64
