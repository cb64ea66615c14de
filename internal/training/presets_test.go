package training

import (
	"errors"
	"testing"

	"FraudSight/internal/domain/models"
	"FraudSight/internal/domain/repository"
)

func TestResolveConfigPresets(t *testing.T) {
	cases := []struct {
		preset string
		want   models.Hyperparameters
	}{
		{"fast", models.Hyperparameters{NumLeaves: 31, LearningRate: 0.1, FeatureFraction: 0.9, BaggingFraction: 0.8, BaggingFreq: 5, NumBoostRound: 100, EarlyStoppingRounds: 10}},
		{"balanced", models.Hyperparameters{NumLeaves: 63, LearningRate: 0.05, FeatureFraction: 0.8, BaggingFraction: 0.7, BaggingFreq: 5, NumBoostRound: 300, EarlyStoppingRounds: 20}},
		{"thorough", models.Hyperparameters{NumLeaves: 127, LearningRate: 0.02, FeatureFraction: 0.7, BaggingFraction: 0.6, BaggingFreq: 5, NumBoostRound: 1000, EarlyStoppingRounds: 50}},
	}
	for _, tc := range cases {
		cfg, err := ResolveConfig(&models.TrainingJobRequest{Preset: tc.preset, CVFolds: 5, TestSize: 0.2, RandomState: 42})
		if err != nil {
			t.Fatalf("%s: %v", tc.preset, err)
		}
		if cfg.Hyperparameters != tc.want {
			t.Fatalf("%s: got %+v", tc.preset, cfg.Hyperparameters)
		}
		if cfg.Algorithm != "gbdt" || cfg.CVFolds != 5 || cfg.TestSize != 0.2 || cfg.RandomState != 42 {
			t.Fatalf("%s: config fields not carried: %+v", tc.preset, cfg)
		}
	}
}

func TestResolveConfigOverrides(t *testing.T) {
	cfg, err := ResolveConfig(&models.TrainingJobRequest{
		Preset: "balanced",
		Hyperparams: &models.Hyperparameters{
			NumLeaves:     15,
			NumBoostRound: 50,
		},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	hp := cfg.Hyperparameters
	if hp.NumLeaves != 15 || hp.NumBoostRound != 50 {
		t.Fatalf("overrides not applied: %+v", hp)
	}
	// Untouched fields keep the preset values.
	if hp.LearningRate != 0.05 || hp.EarlyStoppingRounds != 20 {
		t.Fatalf("preset values lost: %+v", hp)
	}
}

func TestResolveConfigDefaults(t *testing.T) {
	cfg, err := ResolveConfig(&models.TrainingJobRequest{Preset: "fast", DatasetID: "d"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.CVFolds != 5 {
		t.Fatalf("cv_folds should default to 5, got %d", cfg.CVFolds)
	}
	if cfg.TestSize != 0.2 {
		t.Fatalf("test_size should default to 0.2, got %v", cfg.TestSize)
	}
	if cfg.RandomState != 42 {
		t.Fatalf("random_state should default to 42, got %d", cfg.RandomState)
	}
}

func TestResolveConfigRejectsBadSplits(t *testing.T) {
	if _, err := ResolveConfig(&models.TrainingJobRequest{Preset: "fast", CVFolds: 1}); !errors.Is(err, repository.ErrInvalidInput) {
		t.Fatalf("cv_folds 1: expected ErrInvalidInput, got %v", err)
	}
	if _, err := ResolveConfig(&models.TrainingJobRequest{Preset: "fast", CVFolds: -3}); !errors.Is(err, repository.ErrInvalidInput) {
		t.Fatalf("negative cv_folds: expected ErrInvalidInput, got %v", err)
	}
	if _, err := ResolveConfig(&models.TrainingJobRequest{Preset: "fast", TestSize: 1.5}); !errors.Is(err, repository.ErrInvalidInput) {
		t.Fatalf("test_size 1.5: expected ErrInvalidInput, got %v", err)
	}
	if _, err := ResolveConfig(&models.TrainingJobRequest{Preset: "fast", TestSize: -0.1}); !errors.Is(err, repository.ErrInvalidInput) {
		t.Fatalf("negative test_size: expected ErrInvalidInput, got %v", err)
	}
}

func TestResolveConfigUnknownPreset(t *testing.T) {
	if _, err := ResolveConfig(&models.TrainingJobRequest{Preset: "extreme"}); !errors.Is(err, repository.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
