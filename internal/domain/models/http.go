package models

// Requests for scoring and training HTTP endpoints. Defined in domain for consistency and reuse.

// ScoreRequest carries either raw application data (normalized server
// side) or a pre-computed 15-element feature vector.
type ScoreRequest struct {
	RawFeatures  map[string]interface{} `json:"raw_features,omitempty"`
	Features     []float64              `json:"features,omitempty"`
	ModelVersion string                 `json:"model_version,omitempty"`
}

type ReloadRequest struct {
	ModelVersion string `json:"model_version,omitempty"`
}

type TrainingJobRequest struct {
	DatasetID   string           `json:"dataset_id" validate:"required"`
	Name        string           `json:"name" validate:"required,max=128"`
	Description string           `json:"description,omitempty" validate:"max=1024"`
	Preset      string           `json:"preset" default:"balanced" validate:"oneof=fast balanced thorough"`
	CVFolds     int              `json:"cv_folds" default:"5" validate:"gte=2,lte=20"`
	TestSize    float64          `json:"test_size" default:"0.2" validate:"gt=0,lt=1"`
	RandomState int64            `json:"random_state" default:"42"`
	Hyperparams *Hyperparameters `json:"hyperparameters,omitempty"`
	CreatedBy   string           `json:"created_by,omitempty"`
}

type ListJobsRequest struct {
	Status    string `query:"status" json:"status" validate:"omitempty,oneof=queued running completed failed cancelled"`
	DatasetID string `query:"dataset_id" json:"dataset_id"`
	Limit     int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
	Offset    int    `query:"offset" json:"offset" validate:"gte=0"`
}

type ListModelsRequest struct {
	Status string `query:"status" json:"status" validate:"omitempty,oneof=ready deployed"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
	Offset int    `query:"offset" json:"offset" validate:"gte=0"`
}

type DeployRequest struct {
	Config map[string]interface{} `json:"config,omitempty"`
}
