package registry

import (
	"time"

	"FraudSight/internal/domain/models"
	"FraudSight/internal/gbdt"
)

// Kind tags the predictor variant an artifact carries. Dispatch is by
// this tag, never by probing the payload.
type Kind string

const (
	KindGBDT     Kind = "gbdt"
	KindLinear   Kind = "linear"
	KindFallback Kind = "fallback"
)

// DefaultVersion is the version key of the synthesized fallback model.
const DefaultVersion = "v1.0.0"

// FallbackImportances is the fixed importance vector attributed to the
// rule-based fallback scorer, aligned to the canonical feature order.
var FallbackImportances = []float64{
	0.25, 0.20, 0.15, 0.10, 0.08, 0.06, 0.05, 0.04, 0.03, 0.02,
	0.01, 0.005, 0.003, 0.002, 0.001,
}

// Artifact is a trained predictor plus its metadata, stored and loaded
// as one opaque JSON unit. Immutable once loaded into the cache.
type Artifact struct {
	Kind         Kind                   `json:"kind"`
	Model        *gbdt.Model            `json:"model,omitempty"`
	Coefficients []float64              `json:"coefficients,omitempty"`
	Config       *models.TrainingConfig `json:"config,omitempty"`
	FeatureNames []string               `json:"feature_names"`
	CreatedAt    time.Time              `json:"created_at"`
	JobID        string                 `json:"job_id,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`

	// Populated by the cache, not serialized.
	Version  string    `json:"-"`
	FilePath string    `json:"-"`
	LoadedAt time.Time `json:"-"`
}

// Importances returns the raw (unnormalized) importance weights for
// the artifact's variant, aligned to the canonical feature order.
func (a *Artifact) Importances() []float64 {
	switch a.Kind {
	case KindGBDT:
		if a.Model != nil {
			return a.Model.Importances
		}
	case KindLinear:
		abs := make([]float64, len(a.Coefficients))
		for i, c := range a.Coefficients {
			if c < 0 {
				c = -c
			}
			abs[i] = c
		}
		return abs
	}
	return FallbackImportances
}

// newFallbackArtifact synthesizes the deterministic rule-based scorer
// registered when no trained artifact can be loaded.
func newFallbackArtifact(now time.Time) *Artifact {
	return &Artifact{
		Kind:         KindFallback,
		FeatureNames: models.FeatureNames(),
		CreatedAt:    now,
		Metadata: map[string]interface{}{
			"model_type":     "RuleBasedFallback",
			"is_fallback":    true,
			"accuracy":       0.85,
			"precision":      0.82,
			"recall":         0.88,
			"f1_score":       0.85,
			"features_count": models.FeatureCount,
		},
		Version:  DefaultVersion,
		LoadedAt: now,
	}
}
