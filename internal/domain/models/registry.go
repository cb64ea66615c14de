package models

import "time"

// RegistryEntryStatus is the lifecycle state of a registered model.
type RegistryEntryStatus string

const (
	EntryReady    RegistryEntryStatus = "ready"
	EntryDeployed RegistryEntryStatus = "deployed"
)

// RegistryEntry links a completed training job to its deployable
// artifact and metrics. At most one entry is production-deployed at a
// time across the whole registry.
type RegistryEntry struct {
	ModelID          string                 `json:"model_id"`
	Name             string                 `json:"name"`
	Version          string                 `json:"version"`
	TrainingJobID    string                 `json:"training_job_id"`
	ModelPath        string                 `json:"model_path"`
	Metrics          *TrainingMetrics       `json:"performance_metrics,omitempty"`
	Status           RegistryEntryStatus    `json:"status"`
	IsProduction     bool                   `json:"is_production"`
	DeployedAt       *time.Time             `json:"deployed_at,omitempty"`
	DeploymentConfig map[string]interface{} `json:"deployment_config,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}
