package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"FraudSight/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictionsTotal   *prometheus.CounterVec
	predictionDuration *prometheus.HistogramVec
	jobsTotal          *prometheus.CounterVec
	jobProgress        *prometheus.GaugeVec
	errorsTotal        *prometheus.CounterVec
	modelReloadsTotal  *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		predictionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraudsight_predictions_total",
				Help: "Total number of fraud predictions served",
			},
			[]string{"model_version", "risk_tier"},
		),
		predictionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fraudsight_prediction_duration_seconds",
				Help:    "Duration of scoring calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model_version"},
		),
		jobsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraudsight_training_jobs_total",
				Help: "Training job state transitions",
			},
			[]string{"status"},
		),
		jobProgress: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fraudsight_training_job_progress",
				Help: "Progress of a training job in percent",
			},
			[]string{"job_id"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraudsight_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		modelReloadsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraudsight_model_reloads_total",
				Help: "Model registry reload attempts by result",
			},
			[]string{"result"},
		),
	}
}

// RecordPrediction records one served prediction and its latency.
func (r *Recorder) RecordPrediction(modelVersion string, tier models.RiskTier, seconds float64) {
	r.predictionsTotal.WithLabelValues(modelVersion, string(tier)).Inc()
	r.predictionDuration.WithLabelValues(modelVersion).Observe(seconds)
}

// RecordJobTransition records a job entering a lifecycle state.
func (r *Recorder) RecordJobTransition(status models.JobStatus) {
	r.jobsTotal.WithLabelValues(string(status)).Inc()
}

// RecordJobProgress records the latest progress of a running job.
func (r *Recorder) RecordJobProgress(jobID string, progress int) {
	r.jobProgress.WithLabelValues(jobID).Set(float64(progress))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordModelReload records a registry reload attempt.
func (r *Recorder) RecordModelReload(result string) {
	r.modelReloadsTotal.WithLabelValues(result).Inc()
}
