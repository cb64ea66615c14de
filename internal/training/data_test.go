package training

import (
	"errors"
	"math"
	"testing"

	"FraudSight/internal/domain/models"
	"FraudSight/internal/domain/repository"
)

func TestBuildMatrixSelectsKnownColumns(t *testing.T) {
	ds := &repository.Dataset{
		Columns: []string{"credit_score", "ignored_column", "fraud_label", "loan_amount"},
		Rows: [][]float64{
			{700, 99, 0, 20000},
			{550, 42, 1, 30000},
		},
	}
	X, y, err := BuildMatrix(ds)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(X) != 2 || len(X[0]) != models.FeatureCount {
		t.Fatalf("unexpected matrix shape %dx%d", len(X), len(X[0]))
	}
	if y[0] != 0 || y[1] != 1 {
		t.Fatalf("labels not extracted: %v", y)
	}
	cs := models.FeatureIndex("credit_score")
	la := models.FeatureIndex("loan_amount")
	dti := models.FeatureIndex("debt_to_income_ratio")
	if X[1][cs] != 550 || X[1][la] != 30000 {
		t.Fatalf("features misplaced: %v", X[1])
	}
	// Columns absent from the dataset are zero-filled.
	if X[1][dti] != 0 {
		t.Fatalf("missing column should be zero, got %v", X[1][dti])
	}
}

func TestBuildMatrixMissingLabel(t *testing.T) {
	ds := &repository.Dataset{
		Columns: []string{"credit_score"},
		Rows:    [][]float64{{700}},
	}
	if _, _, err := BuildMatrix(ds); !errors.Is(err, repository.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func TestBuildMatrixNonBinaryLabel(t *testing.T) {
	ds := &repository.Dataset{
		Columns: []string{"credit_score", "fraud_label"},
		Rows:    [][]float64{{700, 2}},
	}
	if _, _, err := BuildMatrix(ds); !errors.Is(err, repository.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func TestStratifiedSplitPreservesClassRatio(t *testing.T) {
	n := 1000
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		X[i] = []float64{float64(i)}
		if i%5 == 0 { // 20% positives
			y[i] = 1
		}
	}

	trainX, trainY, testX, testY := StratifiedSplit(X, y, 0.2, 42)
	if len(trainX)+len(testX) != n {
		t.Fatalf("rows lost in split")
	}
	if len(testX) != 200 {
		t.Fatalf("expected 200 test rows, got %d", len(testX))
	}
	if got := positiveRate(testY); math.Abs(got-0.2) > 0.01 {
		t.Fatalf("test positive rate %v, want ~0.2", got)
	}
	if got := positiveRate(trainY); math.Abs(got-0.2) > 0.01 {
		t.Fatalf("train positive rate %v, want ~0.2", got)
	}
}

func TestStratifiedSplitDeterministic(t *testing.T) {
	X := make([][]float64, 100)
	y := make([]float64, 100)
	for i := range X {
		X[i] = []float64{float64(i)}
		y[i] = float64(i % 2)
	}
	// Repeated calls so an order-dependent RNG consumption would be
	// caught even when two runs happen to agree.
	_, _, want, _ := StratifiedSplit(X, y, 0.3, 7)
	for attempt := 0; attempt < 20; attempt++ {
		_, _, got, _ := StratifiedSplit(X, y, 0.3, 7)
		if len(got) != len(want) {
			t.Fatalf("attempt %d: sizes differ", attempt)
		}
		for i := range got {
			if got[i][0] != want[i][0] {
				t.Fatalf("attempt %d: same seed produced a different split at row %d", attempt, i)
			}
		}
	}
}

func TestStratifiedFoldsDeterministic(t *testing.T) {
	y := make([]float64, 120)
	for i := range y {
		y[i] = float64(i % 2)
	}
	want := stratifiedFolds(y, 4, 7)
	for attempt := 0; attempt < 20; attempt++ {
		got := stratifiedFolds(y, 4, 7)
		for f := range want {
			if len(got[f]) != len(want[f]) {
				t.Fatalf("attempt %d: fold %d sizes differ", attempt, f)
			}
			for i := range want[f] {
				if got[f][i] != want[f][i] {
					t.Fatalf("attempt %d: same seed produced different folds", attempt)
				}
			}
		}
	}
}

func TestStratifiedFoldsCoverEveryRow(t *testing.T) {
	y := make([]float64, 103)
	for i := range y {
		y[i] = float64(i % 3 / 2) // roughly a third positive
	}
	folds := stratifiedFolds(y, 5, 42)
	if len(folds) != 5 {
		t.Fatalf("expected 5 folds")
	}
	seen := make(map[int]bool)
	for _, fold := range folds {
		for _, i := range fold {
			if seen[i] {
				t.Fatalf("row %d appears in two folds", i)
			}
			seen[i] = true
		}
	}
	if len(seen) != len(y) {
		t.Fatalf("folds cover %d of %d rows", len(seen), len(y))
	}
}

func TestEvaluateConfusionMatrix(t *testing.T) {
	labels := []float64{1, 1, 0, 0, 1, 0}
	probs := []float64{0.9, 0.4, 0.6, 0.1, 0.8, 0.2}
	// predictions: 1 0 1 0 1 0 -> tp=2 fn=1 fp=1 tn=2
	m := Evaluate(labels, probs)
	if m.ConfusionMatrix != [2][2]int{{2, 1}, {1, 2}} {
		t.Fatalf("confusion: %v", m.ConfusionMatrix)
	}
	if math.Abs(m.Precision-2.0/3.0) > 1e-9 {
		t.Fatalf("precision: %v", m.Precision)
	}
	if math.Abs(m.Recall-2.0/3.0) > 1e-9 {
		t.Fatalf("recall: %v", m.Recall)
	}
	if math.Abs(m.F1-2.0/3.0) > 1e-9 {
		t.Fatalf("f1: %v", m.F1)
	}
	if math.Abs(m.Accuracy-4.0/6.0) > 1e-9 {
		t.Fatalf("accuracy: %v", m.Accuracy)
	}
}

func TestAveragePrecisionPerfectRanking(t *testing.T) {
	labels := []float64{1, 1, 0, 0}
	probs := []float64{0.9, 0.8, 0.2, 0.1}
	if got := averagePrecision(labels, probs); math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("expected 1.0, got %v", got)
	}
}

func TestCVStats(t *testing.T) {
	res := cvStats([]float64{0.8, 0.9, 1.0})
	if math.Abs(res.Mean-0.9) > 1e-9 {
		t.Fatalf("mean: %v", res.Mean)
	}
	if math.Abs(res.Std-math.Sqrt(2.0/300.0)) > 1e-9 {
		t.Fatalf("std: %v", res.Std)
	}
}

func positiveRate(y []float64) float64 {
	var p float64
	for _, v := range y {
		p += v
	}
	return p / float64(len(y))
}
