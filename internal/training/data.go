package training

import (
	"fmt"
	"math/rand"
	"sort"

	"FraudSight/internal/domain/models"
	"FraudSight/internal/domain/repository"
)

// LabelColumn is the required binary target column in training datasets.
const LabelColumn = "fraud_label"

// BuildMatrix projects a parsed dataset onto the canonical feature
// order. Known feature columns are picked up by name; a feature with
// no matching column is filled with zeros. The label column is
// mandatory.
func BuildMatrix(ds *repository.Dataset) ([][]float64, []float64, error) {
	if ds == nil || len(ds.Rows) == 0 {
		return nil, nil, fmt.Errorf("%w: dataset has no rows", repository.ErrSchema)
	}

	colIdx := make(map[string]int, len(ds.Columns))
	for i, c := range ds.Columns {
		colIdx[c] = i
	}
	labelIdx, ok := colIdx[LabelColumn]
	if !ok {
		return nil, nil, fmt.Errorf("%w: missing label column %q", repository.ErrSchema, LabelColumn)
	}

	names := models.FeatureNames()
	featIdx := make([]int, len(names))
	for i, name := range names {
		if j, ok := colIdx[name]; ok {
			featIdx[i] = j
		} else {
			featIdx[i] = -1
		}
	}

	X := make([][]float64, len(ds.Rows))
	y := make([]float64, len(ds.Rows))
	for r, row := range ds.Rows {
		if labelIdx >= len(row) {
			return nil, nil, fmt.Errorf("%w: row %d is shorter than the header", repository.ErrSchema, r)
		}
		label := row[labelIdx]
		if label != 0 && label != 1 {
			return nil, nil, fmt.Errorf("%w: label in row %d is %v, want 0 or 1", repository.ErrSchema, r, label)
		}
		y[r] = label

		x := make([]float64, len(names))
		for i, j := range featIdx {
			if j >= 0 && j < len(row) {
				x[i] = row[j]
			}
		}
		X[r] = x
	}
	return X, y, nil
}

// StratifiedSplit partitions rows into train and test sets preserving
// the class ratio, deterministic for a given seed.
func StratifiedSplit(X [][]float64, y []float64, testSize float64, seed int64) (trainX [][]float64, trainY []float64, testX [][]float64, testY []float64) {
	rng := rand.New(rand.NewSource(seed))

	testSet := make(map[int]bool)
	for _, idx := range classIndexes(y) {
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		k := int(testSize * float64(len(idx)))
		for _, i := range idx[:k] {
			testSet[i] = true
		}
	}

	for i := range y {
		if testSet[i] {
			testX = append(testX, X[i])
			testY = append(testY, y[i])
		} else {
			trainX = append(trainX, X[i])
			trainY = append(trainY, y[i])
		}
	}
	return trainX, trainY, testX, testY
}

// stratifiedFolds deals each class's shuffled rows round-robin into k
// validation folds.
func stratifiedFolds(y []float64, k int, seed int64) [][]int {
	rng := rand.New(rand.NewSource(seed))

	folds := make([][]int, k)
	for _, idx := range classIndexes(y) {
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		for n, i := range idx {
			folds[n%k] = append(folds[n%k], i)
		}
	}
	return folds
}

// classIndexes groups row indexes by label, ordered by label value so
// the seeded RNG is consumed in a fixed order.
func classIndexes(y []float64) [][]int {
	byClass := map[float64][]int{}
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	labels := make([]float64, 0, len(byClass))
	for label := range byClass {
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	out := make([][]int, len(labels))
	for i, label := range labels {
		out[i] = byClass[label]
	}
	return out
}
