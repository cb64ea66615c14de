package training

import (
	"fmt"

	"FraudSight/internal/domain/models"
	"FraudSight/internal/domain/repository"
	"FraudSight/internal/gbdt"
)

// presets are the named hyperparameter profiles a job can start from.
// Explicit hyperparameters in the request override preset values
// field by field.
var presets = map[string]models.Hyperparameters{
	"fast": {
		NumLeaves:           31,
		LearningRate:        0.1,
		FeatureFraction:     0.9,
		BaggingFraction:     0.8,
		BaggingFreq:         5,
		NumBoostRound:       100,
		EarlyStoppingRounds: 10,
	},
	"balanced": {
		NumLeaves:           63,
		LearningRate:        0.05,
		FeatureFraction:     0.8,
		BaggingFraction:     0.7,
		BaggingFreq:         5,
		NumBoostRound:       300,
		EarlyStoppingRounds: 20,
	},
	"thorough": {
		NumLeaves:           127,
		LearningRate:        0.02,
		FeatureFraction:     0.7,
		BaggingFraction:     0.6,
		BaggingFreq:         5,
		NumBoostRound:       1000,
		EarlyStoppingRounds: 50,
	},
}

// ResolveConfig turns a job request into the concrete configuration
// the run executes with. Defaults are applied here as well as at the
// HTTP edge so programmatic submissions get the same guarantees.
func ResolveConfig(req *models.TrainingJobRequest) (models.TrainingConfig, error) {
	hp, ok := presets[req.Preset]
	if !ok {
		return models.TrainingConfig{}, fmt.Errorf("%w: unknown preset %q", repository.ErrInvalidInput, req.Preset)
	}

	cvFolds := req.CVFolds
	if cvFolds == 0 {
		cvFolds = 5
	}
	if cvFolds < 2 {
		return models.TrainingConfig{}, fmt.Errorf("%w: cv_folds must be at least 2, got %d", repository.ErrInvalidInput, req.CVFolds)
	}
	testSize := req.TestSize
	if testSize == 0 {
		testSize = 0.2
	}
	if testSize < 0 || testSize >= 1 {
		return models.TrainingConfig{}, fmt.Errorf("%w: test_size must be in (0, 1), got %v", repository.ErrInvalidInput, req.TestSize)
	}
	seed := req.RandomState
	if seed == 0 {
		seed = 42
	}

	if o := req.Hyperparams; o != nil {
		if o.NumLeaves > 0 {
			hp.NumLeaves = o.NumLeaves
		}
		if o.LearningRate > 0 {
			hp.LearningRate = o.LearningRate
		}
		if o.FeatureFraction > 0 {
			hp.FeatureFraction = o.FeatureFraction
		}
		if o.BaggingFraction > 0 {
			hp.BaggingFraction = o.BaggingFraction
		}
		if o.BaggingFreq > 0 {
			hp.BaggingFreq = o.BaggingFreq
		}
		if o.NumBoostRound > 0 {
			hp.NumBoostRound = o.NumBoostRound
		}
		if o.EarlyStoppingRounds > 0 {
			hp.EarlyStoppingRounds = o.EarlyStoppingRounds
		}
	}

	return models.TrainingConfig{
		Algorithm:       "gbdt",
		Preset:          req.Preset,
		CVFolds:         cvFolds,
		TestSize:        testSize,
		RandomState:     seed,
		Hyperparameters: hp,
	}, nil
}

// boostParams maps a resolved configuration onto the learner's
// parameter surface.
func boostParams(cfg models.TrainingConfig) gbdt.Params {
	hp := cfg.Hyperparameters
	return gbdt.Params{
		NumLeaves:           hp.NumLeaves,
		LearningRate:        hp.LearningRate,
		FeatureFraction:     hp.FeatureFraction,
		BaggingFraction:     hp.BaggingFraction,
		BaggingFreq:         hp.BaggingFreq,
		NumBoostRound:       hp.NumBoostRound,
		EarlyStoppingRounds: hp.EarlyStoppingRounds,
		Seed:                cfg.RandomState,
	}
}
