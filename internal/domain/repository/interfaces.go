package repository

import (
	"context"
	"errors"

	"FraudSight/internal/domain/models"
)

// Sentinel errors shared by store implementations. Handlers map these
// to HTTP status codes at the edge.
var (
	ErrModelNotFound   = errors.New("model version not found")
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrJobNotFound     = errors.New("training job not found")
	ErrJobTerminal     = errors.New("training job already finished")
	ErrEntryNotFound   = errors.New("registry entry not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrSchema          = errors.New("dataset schema error")
)

// JobFilter narrows a job listing. Zero fields are not applied.
type JobFilter struct {
	Status    models.JobStatus
	DatasetID string
	Limit     int
	Offset    int
}

// EntryFilter narrows a registry listing. Zero fields are not applied.
type EntryFilter struct {
	Status models.RegistryEntryStatus
	Limit  int
	Offset int
}

// JobStore persists training job records.
type JobStore interface {
	Create(ctx context.Context, job *models.TrainingJob) error
	Update(ctx context.Context, job *models.TrainingJob) error
	Get(ctx context.Context, jobID string) (*models.TrainingJob, error)
	List(ctx context.Context, f JobFilter) ([]*models.TrainingJob, int64, error)
}

// RegistryStore persists model registry entries and enforces the
// single-production invariant on Deploy.
type RegistryStore interface {
	Create(ctx context.Context, entry *models.RegistryEntry) error
	Get(ctx context.Context, modelID string) (*models.RegistryEntry, error)
	List(ctx context.Context, f EntryFilter) ([]*models.RegistryEntry, int64, error)
	Deploy(ctx context.Context, modelID string, config map[string]interface{}) error
}

// Dataset is a parsed tabular dataset: column names plus row-major data.
type Dataset struct {
	Columns []string
	Rows    [][]float64
}

// DatasetStore resolves dataset ids to parsed tabular data.
type DatasetStore interface {
	Load(ctx context.Context, datasetID string) (*Dataset, error)
}

// EventPublisher emits job lifecycle events. Implementations must be
// safe to call from the orchestrator's background tasks.
type EventPublisher interface {
	Publish(ctx context.Context, event models.JobEvent) error
}

// PredictionLog records scoring results for offline analysis. Writes
// are fire-and-forget from the engine's point of view.
type PredictionLog interface {
	Insert(ctx context.Context, result *models.PredictionResult) error
}

// Metrics abstracts operational counters so components stay decoupled
// from the metrics backend.
type Metrics interface {
	RecordPrediction(modelVersion string, tier models.RiskTier, seconds float64)
	RecordJobTransition(status models.JobStatus)
	RecordJobProgress(jobID string, progress int)
	RecordError(kind string)
	RecordModelReload(result string)
}
