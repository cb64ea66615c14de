package gbdt

import (
	"math"
	"sort"
)

// AUC computes the ROC area under curve from labels in {0,1} and
// predicted scores, using the rank-sum formulation with averaged ranks
// for tied scores. Returns 0.5 when only one class is present.
func AUC(labels, scores []float64) float64 {
	n := len(labels)
	if n == 0 || n != len(scores) {
		return 0.5
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return scores[idx[a]] < scores[idx[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && scores[idx[j+1]] == scores[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}

	var positives, rankSum float64
	for i, l := range labels {
		if l > 0.5 {
			positives++
			rankSum += ranks[i]
		}
	}
	negatives := float64(n) - positives
	if positives == 0 || negatives == 0 {
		return 0.5
	}
	return (rankSum - positives*(positives+1)/2) / (positives * negatives)
}

// LogLoss computes binary cross-entropy with probability clipping.
func LogLoss(labels, probs []float64) float64 {
	if len(labels) == 0 || len(labels) != len(probs) {
		return 0
	}
	var sum float64
	for i, l := range labels {
		p := math.Min(math.Max(probs[i], probEps), 1-probEps)
		sum += -(l*math.Log(p) + (1-l)*math.Log(1-p))
	}
	return sum / float64(len(labels))
}
