package scoring

import (
	"math"

	"FraudSight/internal/domain/models"
	"FraudSight/internal/registry"
)

var (
	idxCreditScore = models.FeatureIndex("credit_score")
	idxDTI         = models.FeatureIndex("debt_to_income_ratio")
	idxLTV         = models.FeatureIndex("loan_to_value_ratio")
	idxIncome      = models.FeatureIndex("annual_income")
)

// predictProba dispatches inference on the artifact's kind tag.
func predictProba(art *registry.Artifact, x []float64) float64 {
	switch art.Kind {
	case registry.KindGBDT:
		return art.Model.PredictProba(x)
	case registry.KindLinear:
		var z float64
		for i, c := range art.Coefficients {
			z += c * x[i]
		}
		return 1.0 / (1.0 + math.Exp(-z))
	default:
		return RuleScore(x)
	}
}

// RuleScore is the deterministic rule-based fraud scorer used when no
// trained model is available. Additive risk over credit score, DTI and
// LTV, capped at 0.95.
func RuleScore(x []float64) float64 {
	score := 0.10

	switch cs := x[idxCreditScore]; {
	case cs < 600:
		score += 0.30
	case cs < 650:
		score += 0.15
	case cs < 700:
		score += 0.05
	}

	switch dti := x[idxDTI]; {
	case dti > 50:
		score += 0.25
	case dti > 40:
		score += 0.10
	}

	switch ltv := x[idxLTV]; {
	case ltv > 100:
		score += 0.20
	case ltv > 90:
		score += 0.10
	}

	if score > 0.95 {
		score = 0.95
	}
	return score
}

// confidence combines model certainty (distance of the probability
// from 0.5) with input data quality. Clamped to [0.1, 0.99].
func confidence(prob float64, x []float64) float64 {
	probConfidence := 1.0 - 2.0*math.Abs(prob-0.5)

	quality := 1.0
	if cs := x[idxCreditScore]; cs < 300 || cs > 850 {
		quality *= 0.8
	}
	if inc := x[idxIncome]; inc < 10000 || inc > 500000 {
		quality *= 0.9
	}

	c := 0.7*probConfidence + 0.3*quality
	if c < 0.1 {
		c = 0.1
	}
	if c > 0.99 {
		c = 0.99
	}
	return c
}

// riskTier buckets a fraud probability.
func riskTier(prob float64) models.RiskTier {
	switch {
	case prob < 0.30:
		return models.RiskLow
	case prob < 0.70:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

// rankImportances L1-normalizes raw importance weights, drops entries
// at or below 0.01, and returns the top ten by weight.
func rankImportances(raw []float64, x []float64) []models.FeatureImportance {
	names := models.FeatureNames()

	var total float64
	for _, v := range raw {
		total += math.Abs(v)
	}
	if total == 0 {
		return []models.FeatureImportance{}
	}

	ranked := make([]models.FeatureImportance, 0, len(raw))
	for i, v := range raw {
		if i >= len(names) {
			break
		}
		w := math.Abs(v) / total
		if w <= 0.01 {
			continue
		}
		value := 0.0
		if i < len(x) {
			value = x[i]
		}
		ranked = append(ranked, models.FeatureImportance{
			FeatureName: names[i],
			Importance:  w,
			Value:       value,
		})
	}

	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].Importance > ranked[j-1].Importance; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	if len(ranked) > 10 {
		ranked = ranked[:10]
	}
	return ranked
}
