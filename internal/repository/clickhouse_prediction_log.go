package repository

import (
	"context"
	"fmt"
	"time"

	"FraudSight/internal/domain/models"
	"FraudSight/pkg/clickhouse"
)

// PredictionLogSchema creates the audit table. Run once at startup via
// Client.InitSchema.
func PredictionLogSchema(table string) []string {
	return []string{fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    scored_at           DateTime64(3) DEFAULT now64(3),
    model_version       LowCardinality(String),
    fraud_probability   Float64,
    confidence_score    Float64,
    risk_tier           LowCardinality(String),
    processing_time_ms  Float64,
    top_feature         String,
    top_importance      Float64
) ENGINE = MergeTree()
ORDER BY (model_version, scored_at)
TTL toDateTime(scored_at) + INTERVAL 90 DAY`, table)}
}

// ClickHousePredictionLog records every scoring result for offline
// analysis.
type ClickHousePredictionLog struct {
	client *clickhouse.Client
	table  string
}

func NewClickHousePredictionLog(client *clickhouse.Client, table string) *ClickHousePredictionLog {
	return &ClickHousePredictionLog{client: client, table: table}
}

func (l *ClickHousePredictionLog) Insert(ctx context.Context, result *models.PredictionResult) error {
	topFeature := ""
	topImportance := 0.0
	if len(result.FeatureImportance) > 0 {
		topFeature = result.FeatureImportance[0].FeatureName
		topImportance = result.FeatureImportance[0].Importance
	}

	query := fmt.Sprintf(`
INSERT INTO %s
    (scored_at, model_version, fraud_probability, confidence_score,
     risk_tier, processing_time_ms, top_feature, top_importance)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, l.table)

	_, err := l.client.DB().ExecContext(ctx, query,
		time.Now().UTC(),
		result.ModelVersion,
		result.FraudProbability,
		result.ConfidenceScore,
		string(result.RiskTier),
		result.ProcessingTimeMS,
		topFeature,
		topImportance,
	)
	return err
}

// NopPredictionLog discards records. Used when the audit log is
// disabled in config.
type NopPredictionLog struct{}

func (NopPredictionLog) Insert(context.Context, *models.PredictionResult) error { return nil }
