package training

import (
	"math"
	"sort"

	"FraudSight/internal/domain/models"
	"FraudSight/internal/gbdt"
)

// Evaluate computes held-out classification metrics at a 0.5 decision
// threshold plus threshold-free AUC scores.
func Evaluate(labels, probs []float64) models.EvaluationMetrics {
	var tp, fp, tn, fn int
	for i, label := range labels {
		predicted := probs[i] >= 0.5
		actual := label > 0.5
		switch {
		case predicted && actual:
			tp++
		case predicted && !actual:
			fp++
		case !predicted && actual:
			fn++
		default:
			tn++
		}
	}

	return models.EvaluationMetrics{
		AUCROC:          gbdt.AUC(labels, probs),
		AUCPR:           averagePrecision(labels, probs),
		Precision:       ratio(tp, tp+fp),
		Recall:          ratio(tp, tp+fn),
		F1:              f1(tp, fp, fn),
		Accuracy:        ratio(tp+tn, tp+tn+fp+fn),
		ConfusionMatrix: [2][2]int{{tn, fp}, {fn, tp}},
	}
}

// averagePrecision approximates PR-AUC as the mean of precision at
// each positive, scanning predictions from highest score down.
func averagePrecision(labels, probs []float64) float64 {
	n := len(labels)
	if n == 0 || n != len(probs) {
		return 0
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return probs[idx[a]] > probs[idx[b]] })

	var positives float64
	for _, l := range labels {
		if l > 0.5 {
			positives++
		}
	}
	if positives == 0 {
		return 0
	}

	var hits, sum float64
	for rank, i := range idx {
		if labels[i] > 0.5 {
			hits++
			sum += hits / float64(rank+1)
		}
	}
	return sum / positives
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func f1(tp, fp, fn int) float64 {
	p := ratio(tp, tp+fp)
	r := ratio(tp, tp+fn)
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// cvStats summarizes per-fold scores.
func cvStats(scores []float64) models.CVResults {
	res := models.CVResults{Scores: scores}
	if len(scores) == 0 {
		return res
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	res.Mean = sum / float64(len(scores))

	var sq float64
	for _, s := range scores {
		d := s - res.Mean
		sq += d * d
	}
	res.Std = math.Sqrt(sq / float64(len(scores)))
	return res
}
