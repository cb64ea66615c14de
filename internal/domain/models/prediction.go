package models

// RiskTier is the coarse risk bucket derived from fraud probability.
type RiskTier string

const (
	RiskLow    RiskTier = "low"
	RiskMedium RiskTier = "medium"
	RiskHigh   RiskTier = "high"
)

// FeatureImportance pairs a feature with its normalized importance and
// the actual input value that was scored.
type FeatureImportance struct {
	FeatureName string  `json:"feature_name"`
	Importance  float64 `json:"importance"`
	Value       float64 `json:"value"`
}

// PredictionResult is the outcome of a single scoring call. It is
// returned to the caller and never persisted by the engine itself.
type PredictionResult struct {
	FraudProbability  float64             `json:"fraud_probability"`
	ConfidenceScore   float64             `json:"confidence_score"`
	RiskTier          RiskTier            `json:"risk_tier"`
	FeatureImportance []FeatureImportance `json:"feature_importance"`
	ModelVersion      string              `json:"model_version"`
	ProcessingTimeMS  float64             `json:"processing_time_ms"`
}

// EngineHealth reports scoring engine liveness data.
type EngineHealth struct {
	ModelsLoaded     int      `json:"models_loaded"`
	Versions         []string `json:"versions"`
	PredictionCount  int64    `json:"prediction_count"`
	AvgPredictionMS  float64  `json:"average_prediction_time_ms"`
}

// ModelInfo describes the loaded model set.
type ModelInfo struct {
	AvailableModels []string                          `json:"available_models"`
	ActiveModel     string                            `json:"active_model"`
	ModelDetails    map[string]map[string]interface{} `json:"model_details"`
	FeatureNames    []string                          `json:"feature_names"`
	LastUpdated     int64                             `json:"last_updated"`
}

// ReloadReport summarizes a registry reload operation.
type ReloadReport struct {
	Success        bool     `json:"success"`
	ReloadedModels []string `json:"reloaded_models"`
	FailedModels   []string `json:"failed_models"`
	ReloadTimeMS   float64  `json:"reload_time_ms"`
	Message        string   `json:"message"`
}
