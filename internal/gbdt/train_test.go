package gbdt

import (
	"context"
	"math"
	"math/rand"
	"testing"
)

// synthetic builds a separable binary dataset: label 1 when the sum of
// the first two features exceeds a threshold plus mild noise.
func synthetic(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, 5)
		for j := range row {
			row[j] = rng.Float64() * 10
		}
		X[i] = row
		score := row[0] + row[1] + rng.NormFloat64()
		if score > 10 {
			y[i] = 1
		}
	}
	return X, y
}

func TestTrainLearnsSeparableData(t *testing.T) {
	X, y := synthetic(600, 1)
	vX, vy := synthetic(200, 2)

	model, err := Train(context.Background(), X, y, vX, vy, Params{
		NumLeaves:           15,
		LearningRate:        0.1,
		NumBoostRound:       80,
		EarlyStoppingRounds: 10,
		MinDataInLeaf:       10,
		Seed:                42,
	}, nil)
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	if model.BestIteration < 1 {
		t.Fatalf("expected at least one kept iteration")
	}
	if model.BestScore < 0.85 {
		t.Fatalf("expected validation AUC >= 0.85, got %v", model.BestScore)
	}

	probs := make([]float64, len(vy))
	for i, x := range vX {
		probs[i] = model.PredictProba(x)
	}
	if auc := AUC(vy, probs); auc < 0.85 {
		t.Fatalf("expected holdout AUC >= 0.85, got %v", auc)
	}
}

func TestTrainImportancesFavorInformativeFeatures(t *testing.T) {
	X, y := synthetic(600, 3)
	model, err := Train(context.Background(), X, y, nil, nil, Params{
		NumLeaves:     15,
		LearningRate:  0.1,
		NumBoostRound: 40,
		MinDataInLeaf: 10,
		Seed:          7,
	}, nil)
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	informative := model.Importances[0] + model.Importances[1]
	noise := model.Importances[2] + model.Importances[3] + model.Importances[4]
	if informative <= noise {
		t.Fatalf("expected informative features to dominate gain: %v", model.Importances)
	}
}

func TestTrainDeterministicForSeed(t *testing.T) {
	X, y := synthetic(300, 4)
	p := Params{NumLeaves: 7, LearningRate: 0.1, NumBoostRound: 20, MinDataInLeaf: 10, Seed: 11, FeatureFraction: 0.8, BaggingFraction: 0.8, BaggingFreq: 2}

	m1, err := Train(context.Background(), X, y, nil, nil, p, nil)
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	m2, err := Train(context.Background(), X, y, nil, nil, p, nil)
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	probe := X[0]
	if m1.PredictProba(probe) != m2.PredictProba(probe) {
		t.Fatalf("expected identical models for identical seed")
	}
}

func TestTrainCancellation(t *testing.T) {
	X, y := synthetic(300, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Train(ctx, X, y, nil, nil, Params{NumBoostRound: 50}, nil); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestTrainOnIterCallback(t *testing.T) {
	X, y := synthetic(300, 6)
	var calls int
	_, err := Train(context.Background(), X, y, nil, nil, Params{
		NumLeaves: 7, LearningRate: 0.2, NumBoostRound: 15, MinDataInLeaf: 10,
	}, func(iteration int) { calls++ })
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	if calls != 15 {
		t.Fatalf("expected 15 iteration callbacks, got %d", calls)
	}
}

func TestAUCKnownValue(t *testing.T) {
	labels := []float64{0, 0, 1, 1}
	scores := []float64{0.1, 0.4, 0.35, 0.8}
	// Classic sklearn example: AUC = 0.75.
	if got := AUC(labels, scores); math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("expected 0.75, got %v", got)
	}
}

func TestAUCPerfectAndDegenerate(t *testing.T) {
	if got := AUC([]float64{0, 0, 1, 1}, []float64{0.1, 0.2, 0.8, 0.9}); got != 1.0 {
		t.Fatalf("expected 1.0, got %v", got)
	}
	if got := AUC([]float64{1, 1}, []float64{0.2, 0.9}); got != 0.5 {
		t.Fatalf("expected 0.5 for single-class labels, got %v", got)
	}
}

func TestLogLossBounds(t *testing.T) {
	labels := []float64{1, 0}
	probs := []float64{0.9, 0.1}
	got := LogLoss(labels, probs)
	want := -math.Log(0.9)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
