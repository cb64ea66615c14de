package models

import "time"

// JobStatus is the lifecycle state of a training job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"

	// JobDeployed appears only on the event stream when a finished
	// model is promoted to production. It is never a stored job status.
	JobDeployed JobStatus = "deployed"
)

// Terminal reports whether no further transition is allowed.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// Hyperparameters are the tunable knobs of the boosted-tree learner.
// Zero values mean "take from preset".
type Hyperparameters struct {
	NumLeaves           int     `json:"num_leaves,omitempty"`
	LearningRate        float64 `json:"learning_rate,omitempty"`
	FeatureFraction     float64 `json:"feature_fraction,omitempty"`
	BaggingFraction     float64 `json:"bagging_fraction,omitempty"`
	BaggingFreq         int     `json:"bagging_freq,omitempty"`
	NumBoostRound       int     `json:"num_boost_round,omitempty"`
	EarlyStoppingRounds int     `json:"early_stopping_rounds,omitempty"`
}

// TrainingConfig is the resolved configuration a job runs with.
type TrainingConfig struct {
	Algorithm       string          `json:"algorithm"`
	Preset          string          `json:"preset"`
	CVFolds         int             `json:"cv_folds"`
	TestSize        float64         `json:"test_size"`
	RandomState     int64           `json:"random_state"`
	Hyperparameters Hyperparameters `json:"hyperparameters"`
}

// CVResults holds per-fold cross-validation AUC scores.
type CVResults struct {
	Scores []float64 `json:"cv_scores"`
	Mean   float64   `json:"cv_mean"`
	Std    float64   `json:"cv_std"`
}

// EvaluationMetrics are computed on the held-out test split at a 0.5
// decision threshold.
type EvaluationMetrics struct {
	AUCROC          float64  `json:"test_auc_roc"`
	AUCPR           float64  `json:"test_auc_pr"`
	Precision       float64  `json:"test_precision"`
	Recall          float64  `json:"test_recall"`
	F1              float64  `json:"test_f1"`
	Accuracy        float64  `json:"test_accuracy"`
	ConfusionMatrix [2][2]int `json:"confusion_matrix"`
}

// ImportanceEntry is a ranked gain-based feature importance.
type ImportanceEntry struct {
	FeatureName string  `json:"feature_name"`
	Importance  float64 `json:"importance"`
	Rank        int     `json:"rank"`
}

// TrainingMetrics combines training, evaluation, cross-validation and
// feature importance results attached to a completed job.
type TrainingMetrics struct {
	BestIteration     int               `json:"best_iteration"`
	BestScore         float64           `json:"best_score"`
	Hyperparameters   Hyperparameters   `json:"hyperparameters"`
	Evaluation        EvaluationMetrics `json:"evaluation"`
	CVResults         CVResults         `json:"cv_results"`
	FeatureImportance []ImportanceEntry `json:"feature_importance"`
}

// TrainingJob is the persisted record of one training run. It is
// mutated only by the orchestrator task that owns the job_id.
type TrainingJob struct {
	JobID         string           `json:"job_id"`
	DatasetID     string           `json:"dataset_id"`
	Name          string           `json:"name"`
	Description   string           `json:"description,omitempty"`
	Config        TrainingConfig   `json:"config"`
	Status        JobStatus        `json:"status"`
	Progress      int              `json:"progress"`
	StatusMessage string           `json:"status_message"`
	Metrics       *TrainingMetrics `json:"metrics,omitempty"`
	ModelPath     string           `json:"model_path,omitempty"`
	CreatedBy     string           `json:"created_by,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// ProgressUpdate is one progress observation emitted by a running job.
type ProgressUpdate struct {
	JobID    string `json:"job_id"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// JobEvent is a lifecycle transition published to the event stream.
type JobEvent struct {
	JobID     string    `json:"job_id"`
	DatasetID string    `json:"dataset_id"`
	Status    JobStatus `json:"status"`
	Message   string    `json:"message,omitempty"`
	ModelID   string    `json:"model_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
