package repository

import (
	"context"

	"FraudSight/internal/domain/models"
	"FraudSight/pkg/kafka"
)

// KafkaEventPublisher emits job lifecycle events to a Kafka topic,
// keyed by job_id so one job's events stay ordered.
type KafkaEventPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaEventPublisher(producer *kafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, event models.JobEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(event.JobID), event)
}

// NopEventPublisher drops events. Used when the event stream is
// disabled in config.
type NopEventPublisher struct{}

func (NopEventPublisher) Publish(context.Context, models.JobEvent) error { return nil }
