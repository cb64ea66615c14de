package scoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FraudSight/internal/domain/models"
	"FraudSight/internal/domain/repository"
	"FraudSight/internal/features"
	"FraudSight/internal/registry"
	"FraudSight/pkg/logger"
)

const predictionLogTimeout = 5 * time.Second

// Engine turns a scoring request into a PredictionResult: resolve the
// model version, build the feature vector, infer, and explain.
type Engine struct {
	cache      *registry.Cache
	normalizer *features.Normalizer
	metrics    repository.Metrics
	predLog    repository.PredictionLog
	logger     *logger.Logger
	now        func() time.Time

	mu             sync.Mutex
	predictions    int64
	totalLatencyMS float64
}

func NewEngine(cache *registry.Cache, normalizer *features.Normalizer, metrics repository.Metrics, predLog repository.PredictionLog, log *logger.Logger) *Engine {
	return &Engine{
		cache:      cache,
		normalizer: normalizer,
		metrics:    metrics,
		predLog:    predLog,
		logger:     log,
		now:        time.Now,
	}
}

// Score runs one prediction. A pre-computed feature vector is used as
// given (length-checked only), otherwise raw application data is
// normalized first.
func (e *Engine) Score(ctx context.Context, req *models.ScoreRequest) (*models.PredictionResult, error) {
	start := e.now()

	art, err := e.cache.Resolve(req.ModelVersion)
	if err != nil {
		e.metrics.RecordError("model_not_found")
		return nil, err
	}

	var vector []float64
	switch {
	case len(req.Features) > 0:
		if len(req.Features) != models.FeatureCount {
			e.metrics.RecordError("invalid_input")
			return nil, fmt.Errorf("%w: expected %d features, got %d",
				repository.ErrInvalidInput, models.FeatureCount, len(req.Features))
		}
		vector = req.Features
	case req.RawFeatures != nil:
		vector = e.normalizer.Normalize(req.RawFeatures)
	default:
		e.metrics.RecordError("invalid_input")
		return nil, fmt.Errorf("%w: raw_features or features is required", repository.ErrInvalidInput)
	}

	prob := predictProba(art, vector)
	tier := riskTier(prob)

	elapsedMS := float64(e.now().Sub(start)) / float64(time.Millisecond)
	result := &models.PredictionResult{
		FraudProbability:  prob,
		ConfidenceScore:   confidence(prob, vector),
		RiskTier:          tier,
		FeatureImportance: rankImportances(art.Importances(), vector),
		ModelVersion:      art.Version,
		ProcessingTimeMS:  elapsedMS,
	}

	e.mu.Lock()
	e.predictions++
	e.totalLatencyMS += elapsedMS
	e.mu.Unlock()
	e.metrics.RecordPrediction(art.Version, tier, elapsedMS/1000.0)

	if e.predLog != nil {
		go e.logPrediction(result)
	}

	e.logger.Debug("scored application",
		logger.String("model_version", art.Version),
		logger.Float64("fraud_probability", prob),
		logger.String("risk_tier", string(tier)))

	return result, nil
}

// logPrediction writes the audit record off the request path. Failures
// are logged and never surface to the caller.
func (e *Engine) logPrediction(result *models.PredictionResult) {
	ctx, cancel := context.WithTimeout(context.Background(), predictionLogTimeout)
	defer cancel()
	if err := e.predLog.Insert(ctx, result); err != nil {
		e.metrics.RecordError("prediction_log")
		e.logger.Warn("prediction audit write failed", logger.Error(err))
	}
}

// Health reports liveness data for the health endpoint.
func (e *Engine) Health() *models.EngineHealth {
	e.mu.Lock()
	count := e.predictions
	total := e.totalLatencyMS
	e.mu.Unlock()

	avg := 0.0
	if count > 0 {
		avg = total / float64(count)
	}
	return &models.EngineHealth{
		ModelsLoaded:    e.cache.Len(),
		Versions:        e.cache.Versions(),
		PredictionCount: count,
		AvgPredictionMS: avg,
	}
}

// Info describes the loaded model set.
func (e *Engine) Info() *models.ModelInfo {
	active := ""
	if art, err := e.cache.Resolve("latest"); err == nil {
		active = art.Version
	}
	return &models.ModelInfo{
		AvailableModels: e.cache.Versions(),
		ActiveModel:     active,
		ModelDetails:    e.cache.Details(),
		FeatureNames:    models.FeatureNames(),
		LastUpdated:     e.now().Unix(),
	}
}

// Reload refreshes model artifacts from disk.
func (e *Engine) Reload(version string) *models.ReloadReport {
	report := e.cache.Reload(version)
	if report.Success {
		e.metrics.RecordModelReload("success")
	} else {
		e.metrics.RecordModelReload("failure")
	}
	return report
}

// FeatureInfo exposes the feature schema for API consumers.
func (e *Engine) FeatureInfo() map[string]interface{} {
	return e.normalizer.Info()
}
